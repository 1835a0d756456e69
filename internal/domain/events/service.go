package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/registrations"
	"github.com/hackbox-events/server/internal/email"
	"github.com/hackbox-events/server/internal/filestore"
)

// FileStore keeps uploaded attachments.
type FileStore interface {
	Save(ctx context.Context, kind filestore.Kind, upload filestore.Upload) (filestore.File, error)
	Delete(ctx context.Context, path string) error
}

// Notifier hands a message off for delivery without waiting for it.
type Notifier interface {
	Notify(ctx context.Context, msg email.Message) error
}

// Mailer delivers a message and reports the outcome.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

type CertificateGenerator interface {
	Generate(recipient, eventName, eventDate string) ([]byte, error)
}

// Directory resolves the accounts that review new events.
type Directory interface {
	FindAdmin(ctx context.Context) (*accounts.Account, error)
	FindConvenor(ctx context.Context, committeeID string) (*accounts.Account, error)
}

// Registrations is the registration store as seen by event workflows.
type Registrations interface {
	ListByEvent(ctx context.Context, eventID string) ([]registrations.Registration, error)
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

// PhotoCompressor produces the compressed copy of a stored photo.
type PhotoCompressor interface {
	CompressPhoto(ctx context.Context, source, target string) error
}

// Deps are the collaborators of Service. Photos may be nil when compressed
// copies are produced elsewhere.
type Deps struct {
	Files         FileStore
	Notifier      Notifier
	Mailer        Mailer
	Certificates  CertificateGenerator
	Directory     Directory
	Registrations Registrations
	Photos        PhotoCompressor

	// CertificateConcurrency bounds parallel generate+send work per batch.
	CertificateConcurrency int
	Now                    func() time.Time
}

// Service runs the event workflows: creation, review, attachments,
// certificates and the problem statement / submission cycle.
type Service struct {
	repo   Repository
	deps   Deps
	logger zerolog.Logger
}

func NewService(repo Repository, deps Deps, logger zerolog.Logger) *Service {
	if deps.CertificateConcurrency <= 0 {
		deps.CertificateConcurrency = 4
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		repo:   repo,
		deps:   deps,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPublished returns the events visible to the public.
func (s *Service) ListPublished(ctx context.Context) ([]Event, error) {
	published := true
	return s.repo.List(ctx, ListFilter{Published: &published})
}

// ListUnapproved returns events awaiting admin review.
func (s *Service) ListUnapproved(ctx context.Context) ([]Event, error) {
	approved := false
	return s.repo.List(ctx, ListFilter{Approved: &approved})
}

func (s *Service) ListApproved(ctx context.Context) ([]Event, error) {
	approved := true
	return s.repo.List(ctx, ListFilter{Approved: &approved})
}

// ListCommittee returns a committee's events in the given review state, most
// recent start date first.
func (s *Service) ListCommittee(ctx context.Context, committeeID string, approved bool) ([]Event, error) {
	list, err := s.repo.List(ctx, ListFilter{CommitteeID: committeeID, Approved: &approved})
	if err != nil {
		return nil, err
	}
	SortByStartDate(list)
	return list, nil
}

// LookupEventName resolves an event id for registrations. The boolean is
// false when no event has that id.
func (s *Service) LookupEventName(ctx context.Context, id string) (string, bool, error) {
	event, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return event.Name, true, nil
}

// discard removes files stored for an operation that did not complete.
func (s *Service) discard(ctx context.Context, paths ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.deps.Files.Delete(ctx, p); err != nil {
			s.logger.Warn().Err(err).Str("path", p).Msg("failed to remove orphaned upload")
		}
	}
}
