package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/auth"
	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/ids"
	"github.com/hackbox-events/server/internal/email"
	"github.com/hackbox-events/server/internal/metrics"
	"github.com/hackbox-events/server/internal/sanitize"
	"github.com/hackbox-events/server/internal/validation"
)

// EventLookup resolves the event a registration targets.
type EventLookup interface {
	LookupEventName(ctx context.Context, id string) (name string, found bool, err error)
}

// Accounts provisions member logins for registered students.
type Accounts interface {
	Exists(ctx context.Context, email string) (bool, error)
	CreateMember(ctx context.Context, email, hashedPassword, name string, committee accounts.Committee) (*accounts.Account, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg email.Message) error
}

// Deps are optional collaborators. Without Events the event id is taken as
// given; without Accounts and Notifier no member login is provisioned.
type Deps struct {
	Events   EventLookup
	Accounts Accounts
	Notifier Notifier
}

type Service struct {
	repo   Repository
	deps   Deps
	logger zerolog.Logger
}

func NewService(repo Repository, deps Deps, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		deps:   deps,
		logger: logger.With().Str("component", "registrations").Logger(),
	}
}

type EventInput struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

type StudentInput struct {
	Name       string     `json:"name" validate:"required,max=200"`
	Email      string     `json:"email" validate:"required,email"`
	MobileNo   string     `json:"mobileNo" validate:"required,max=20"`
	RegNo      string     `json:"regNo" validate:"required,max=50"`
	Semester   string     `json:"semester"`
	Course     string     `json:"course"`
	Department string     `json:"department"`
	Event      EventInput `json:"event"`
}

type FacultyInput struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Email       string     `json:"email" validate:"required,email"`
	MobileNo    string     `json:"mobileNo" validate:"required,max=20"`
	EmployeeID  string     `json:"employeeId" validate:"required,max=50"`
	Department  string     `json:"department"`
	Designation string     `json:"designation"`
	Event       EventInput `json:"event"`
}

// RegisterStudent records a student signup and provisions a participant
// member login for them. A second signup with the same registration number or
// email for the event fails with ErrAlreadyRegistered.
func (s *Service) RegisterStudent(ctx context.Context, input StudentInput) (*Registration, error) {
	sanitize.Texts(&input.Name, &input.Email, &input.MobileNo, &input.RegNo,
		&input.Semester, &input.Course, &input.Department, &input.Event.ID, &input.Event.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	reg, err := s.register(ctx, Registration{
		Type:       TypeStudent,
		Name:       input.Name,
		Email:      input.Email,
		MobileNo:   input.MobileNo,
		RegNo:      input.RegNo,
		Semester:   input.Semester,
		Course:     input.Course,
		Department: input.Department,
		Event:      EventRef(input.Event),
	})
	if err != nil {
		return nil, err
	}
	s.provisionMember(ctx, reg)
	return reg, nil
}

// RegisterFaculty records a faculty signup; employee id and email are unique
// per event.
func (s *Service) RegisterFaculty(ctx context.Context, input FacultyInput) (*Registration, error) {
	sanitize.Texts(&input.Name, &input.Email, &input.MobileNo, &input.EmployeeID,
		&input.Department, &input.Designation, &input.Event.ID, &input.Event.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	return s.register(ctx, Registration{
		Type:        TypeFaculty,
		Name:        input.Name,
		Email:       input.Email,
		MobileNo:    input.MobileNo,
		EmployeeID:  input.EmployeeID,
		Department:  input.Department,
		Designation: input.Designation,
		Event:       EventRef(input.Event),
	})
}

func (s *Service) register(ctx context.Context, reg Registration) (*Registration, error) {
	if s.deps.Events != nil {
		name, found, err := s.deps.Events.LookupEventName(ctx, reg.Event.ID)
		if err != nil {
			return nil, fmt.Errorf("lookup event: %w", err)
		}
		if !found {
			metrics.Registrations.WithLabelValues(string(reg.Type), "error").Inc()
			return nil, ErrEventNotFound
		}
		reg.Event.Name = name
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate registration id: %w", err)
	}
	reg.ID = id

	created, err := s.repo.Create(ctx, reg)
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
		metrics.Registrations.WithLabelValues(string(reg.Type), "duplicate").Inc()
		return nil, err
	case err != nil:
		metrics.Registrations.WithLabelValues(string(reg.Type), "error").Inc()
		return nil, fmt.Errorf("create registration: %w", err)
	}

	metrics.Registrations.WithLabelValues(string(reg.Type), "created").Inc()
	s.logger.Info().
		Str("registration_id", created.ID).
		Str("event_id", created.Event.ID).
		Str("type", string(created.Type)).
		Msg("registration created")
	return created, nil
}

// provisionMember creates a participant login for a new registrant and sends
// the credentials. Registrants who already have a login get a confirmation
// without a password. Failures are logged and never undo the registration.
func (s *Service) provisionMember(ctx context.Context, reg *Registration) {
	if s.deps.Accounts == nil || s.deps.Notifier == nil {
		return
	}
	log := s.logger.With().Str("registration_id", reg.ID).Logger()

	exists, err := s.deps.Accounts.Exists(ctx, reg.Email)
	if err != nil {
		log.Error().Err(err).Msg("member lookup failed")
		return
	}

	var password string
	if !exists {
		password, err = s.createMember(ctx, reg)
		switch {
		case errors.Is(err, accounts.ErrEmailTaken):
			password = ""
		case err != nil:
			log.Error().Err(err).Msg("member account not provisioned")
			return
		}
	}

	msg, err := email.Registration(email.RegistrationData{
		Name:      reg.Name,
		Email:     reg.Email,
		EventName: reg.Event.Name,
		Password:  password,
	})
	if err == nil {
		err = s.deps.Notifier.Notify(ctx, msg)
	}
	metrics.Notifications.WithLabelValues("handoff", metrics.Result(err)).Inc()
	if err != nil {
		log.Warn().Err(err).Msg("registration confirmation not queued")
	}
}

func (s *Service) createMember(ctx context.Context, reg *Registration) (string, error) {
	password, err := auth.GeneratePassword()
	if err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	committee := accounts.Committee{ID: accounts.ParticipantCommitteeID, Name: accounts.ParticipantCommitteeName}
	if _, err := s.deps.Accounts.CreateMember(ctx, reg.Email, hash, reg.Name, committee); err != nil {
		return "", err
	}
	return password, nil
}

func (s *Service) List(ctx context.Context) ([]Registration, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]Registration, error) {
	return s.repo.ListByEvent(ctx, eventID)
}

func (s *Service) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	return s.repo.DeleteByEvent(ctx, eventID)
}
