package events

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hackbox-events/server/internal/domain/registrations"
	"github.com/hackbox-events/server/internal/email"
	"github.com/hackbox-events/server/internal/metrics"
	"github.com/hackbox-events/server/internal/validation"
)

// Certificate batch stages a registrant can fail in.
const (
	StageGenerate = "generate"
	StageSend     = "send"
)

type CertificateFailure struct {
	RegistrationID string
	Name           string
	Stage          string
	Err            error
}

// CertificateReport summarizes one certificate batch. Skipped counts
// registrants without an email address.
type CertificateReport struct {
	EventID     string
	Registrants int
	Generated   int
	Sent        int
	Skipped     int
	Failures    []CertificateFailure
}

// SendCertificates generates a certificate for every registrant of the event
// and mails it to those with an email address. The whole batch is awaited;
// one registrant's failure does not stop the others. The event is flagged as
// certificated once every registrant has been attempted.
func (s *Service) SendCertificates(ctx context.Context, id, eventDate string) (*CertificateReport, error) {
	eventDate = strings.TrimSpace(eventDate)
	if eventDate == "" {
		return nil, validation.Required("eventDate")
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	regs, err := s.deps.Registrations.ListByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	report := &CertificateReport{EventID: id, Registrants: len(regs)}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.deps.CertificateConcurrency)
	for _, reg := range regs {
		g.Go(func() error {
			outcome := s.certify(ctx, event, reg, eventDate)
			metrics.Certificates.WithLabelValues(outcome.label()).Inc()

			mu.Lock()
			defer mu.Unlock()
			if outcome.generated {
				report.Generated++
			}
			switch {
			case outcome.failure != nil:
				report.Failures = append(report.Failures, *outcome.failure)
			case outcome.skipped:
				report.Skipped++
			default:
				report.Sent++
			}
			return nil
		})
	}
	_ = g.Wait()

	if _, err := s.repo.MarkCertificatesGenerated(context.WithoutCancel(ctx), id); err != nil {
		return report, fmt.Errorf("flag certificates generated: %w", err)
	}

	s.logger.Info().
		Str("event_id", id).
		Int("registrants", report.Registrants).
		Int("sent", report.Sent).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failures)).
		Msg("certificates dispatched")
	return report, nil
}

type certifyOutcome struct {
	generated bool
	skipped   bool
	failure   *CertificateFailure
}

func (o certifyOutcome) label() string {
	switch {
	case o.failure != nil && o.failure.Stage == StageGenerate:
		return "generate_error"
	case o.failure != nil:
		return "send_error"
	case o.skipped:
		return "skipped"
	default:
		return "sent"
	}
}

func (s *Service) certify(ctx context.Context, event *Event, reg registrations.Registration, eventDate string) certifyOutcome {
	log := s.logger.With().Str("event_id", event.ID).Str("registration_id", reg.ID).Logger()
	fail := func(stage string, err error) certifyOutcome {
		log.Warn().Err(err).Str("stage", stage).Msg("certificate not delivered")
		return certifyOutcome{
			generated: stage != StageGenerate,
			failure:   &CertificateFailure{RegistrationID: reg.ID, Name: reg.Name, Stage: stage, Err: err},
		}
	}

	pdf, err := s.deps.Certificates.Generate(reg.Name, event.Name, eventDate)
	if err != nil {
		return fail(StageGenerate, err)
	}
	if strings.TrimSpace(reg.Email) == "" {
		log.Info().Msg("registrant has no email, certificate not sent")
		return certifyOutcome{generated: true, skipped: true}
	}

	msg, err := email.Certificate(reg.Email, reg.Name, event.Name, pdf)
	if err == nil {
		err = s.deps.Mailer.Send(ctx, msg)
	}
	metrics.Notifications.WithLabelValues("certificate", metrics.Result(err)).Inc()
	if err != nil {
		return fail(StageSend, err)
	}
	return certifyOutcome{generated: true}
}
