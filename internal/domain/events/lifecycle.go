package events

import (
	"context"
	"fmt"

	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/ids"
	"github.com/hackbox-events/server/internal/email"
	"github.com/hackbox-events/server/internal/filestore"
	"github.com/hackbox-events/server/internal/metrics"
	"github.com/hackbox-events/server/internal/sanitize"
	"github.com/hackbox-events/server/internal/validation"
)

type RefInput struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// CreateInput is a new event as submitted by a committee.
type CreateInput struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Venue       string   `json:"venue" validate:"required,max=200"`
	StartDate   string   `json:"startDate" validate:"required"`
	EndDate     string   `json:"endDate" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Committee   RefInput `json:"committee"`
	CreatedBy   RefInput `json:"createdBy"`

	Banner *filestore.Upload `json:"-" validate:"-"`
	Order  *filestore.Upload `json:"-" validate:"-"`
}

func (in *CreateInput) normalize() {
	sanitize.Texts(&in.Name, &in.Venue, &in.StartDate, &in.EndDate, &in.Description,
		&in.Committee.ID, &in.Committee.Name, &in.CreatedBy.ID, &in.CreatedBy.Name)
}

func (in CreateInput) validate() error {
	var errs validation.Errors
	if err := validation.Struct(in); err != nil {
		fieldErrs, ok := validation.AsErrors(err)
		if !ok {
			return err
		}
		errs = append(errs, fieldErrs...)
	}
	if in.Banner == nil || in.Banner.Content == nil {
		errs.Add("banner", "is required")
	}
	if in.Order == nil || in.Order.Content == nil {
		errs.Add("order", "is required")
	}
	return errs.Err()
}

// Create stores the attachments and persists a new, unapproved and
// unpublished event. The committee convenor and the admin are notified; a
// failed notification never fails creation.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Event, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	banner, err := s.deps.Files.Save(ctx, filestore.KindBanner, *input.Banner)
	if err != nil {
		return nil, err
	}
	order, err := s.deps.Files.Save(ctx, filestore.KindOrder, *input.Order)
	if err != nil {
		s.discard(ctx, banner.Path)
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		s.discard(ctx, banner.Path, order.Path)
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	event, err := s.repo.Create(ctx, CreateParams{
		ID:          id,
		Name:        input.Name,
		Venue:       input.Venue,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Description: input.Description,
		Committee:   Ref(input.Committee),
		CreatedBy:   Ref(input.CreatedBy),
		Banner:      Attachment{Name: banner.Name, Path: banner.Path},
		Order:       Attachment{Name: order.Name, Path: order.Path},
	})
	if err != nil {
		s.discard(ctx, banner.Path, order.Path)
		return nil, fmt.Errorf("create event: %w", err)
	}

	metrics.EventsCreated.Inc()
	s.logger.Info().
		Str("event_id", event.ID).
		Str("committee_id", event.Committee.ID).
		Msg("event created")

	s.announce(ctx, event)
	return event, nil
}

// announce queues the review notices for a new event.
func (s *Service) announce(ctx context.Context, event *Event) {
	if s.deps.Notifier == nil || s.deps.Directory == nil {
		return
	}
	createdBy := event.CreatedBy.Name
	if createdBy == "" {
		createdBy = event.Committee.Name
	}

	reviewers := []struct {
		role    string
		section string
		find    func(context.Context) (*accounts.Account, error)
	}{
		{"convenor", email.SectionUnapproved, func(ctx context.Context) (*accounts.Account, error) {
			return s.deps.Directory.FindConvenor(ctx, event.Committee.ID)
		}},
		{"admin", email.SectionApprove, s.deps.Directory.FindAdmin},
	}

	for _, r := range reviewers {
		log := s.logger.With().Str("event_id", event.ID).Str("recipient_role", r.role).Logger()

		account, err := r.find(ctx)
		if err != nil {
			metrics.Notifications.WithLabelValues("handoff", "error").Inc()
			log.Warn().Err(err).Msg("no recipient for event notification")
			continue
		}
		msg, err := email.EventCreated(account.Email, event.Name, createdBy, r.section)
		if err == nil {
			err = s.deps.Notifier.Notify(ctx, msg)
		}
		metrics.Notifications.WithLabelValues("handoff", metrics.Result(err)).Inc()
		if err != nil {
			log.Warn().Err(err).Str("account_id", account.ID).Msg("event notification not queued")
		}
	}
}

// Approve approves and publishes an event in one step. Approving an approved
// event leaves it unchanged.
func (s *Service) Approve(ctx context.Context, id string) (*Event, error) {
	event, err := s.repo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.EventTransitions.WithLabelValues("approve").Inc()
	s.logger.Info().Str("event_id", id).Msg("event approved")
	return event, nil
}

// TogglePublish flips publication without touching approval. When current is
// given the event is set to its negation, otherwise the stored value flips.
func (s *Service) TogglePublish(ctx context.Context, id string, current *bool) (*Event, error) {
	var (
		event *Event
		err   error
	)
	if current != nil {
		event, err = s.repo.SetPublished(ctx, id, !*current)
	} else {
		event, err = s.repo.TogglePublished(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	action := "unpublish"
	if event.IsPublished {
		action = "publish"
	}
	metrics.EventTransitions.WithLabelValues(action).Inc()
	s.logger.Info().Str("event_id", id).Bool("is_published", event.IsPublished).Msg("event publication changed")
	return event, nil
}
