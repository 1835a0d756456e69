package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackbox-events/server/internal/domain/ids"
	"github.com/hackbox-events/server/internal/filestore"
	"github.com/hackbox-events/server/internal/metrics"
	"github.com/hackbox-events/server/internal/sanitize"
	"github.com/hackbox-events/server/internal/validation"
)

type ProblemStatementInput struct {
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description" validate:"required"`
}

// AddProblemStatement appends a problem statement to the event.
func (s *Service) AddProblemStatement(ctx context.Context, eventID string, input ProblemStatementInput) (*ProblemStatement, error) {
	input.Title = sanitize.Text(input.Title)
	input.Description = sanitize.Text(input.Description)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate problem statement id: %w", err)
	}
	ps, err := s.repo.AddProblemStatement(ctx, ProblemStatementCreateParams{
		ID:          id,
		EventID:     eventID,
		Title:       input.Title,
		Description: input.Description,
		CreatedAt:   s.deps.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("event_id", eventID).Str("problem_statement_id", ps.ID).Msg("problem statement added")
	return ps, nil
}

func (s *Service) ListProblemStatements(ctx context.Context, eventID string) ([]ProblemStatement, error) {
	return s.repo.ListProblemStatements(ctx, eventID)
}

// GetProblemStatement finds a problem statement by id across all events.
func (s *Service) GetProblemStatement(ctx context.Context, id string) (*ProblemStatement, error) {
	return s.repo.GetProblemStatement(ctx, id)
}

type SubmissionInput struct {
	ProblemStatementID string `json:"problemStatementId" validate:"required"`
	Name               string `json:"name" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	RegistrationNumber string `json:"registrationNumber" validate:"required"`
}

// AddSubmission stores a participant's solution file under the event with
// status Pending. The problem statement id is recorded as given.
func (s *Service) AddSubmission(ctx context.Context, eventID string, input SubmissionInput, upload *filestore.Upload) (*Submission, error) {
	sanitize.Texts(&input.ProblemStatementID, &input.Name, &input.Email, &input.RegistrationNumber)

	var errs validation.Errors
	if err := validation.Struct(input); err != nil {
		fieldErrs, ok := validation.AsErrors(err)
		if !ok {
			return nil, err
		}
		errs = append(errs, fieldErrs...)
	}
	if upload == nil || upload.Content == nil {
		errs.Add("submission", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	file, err := s.deps.Files.Save(ctx, filestore.KindSubmission, *upload)
	if err != nil {
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		s.discard(ctx, file.Path)
		return nil, fmt.Errorf("generate submission id: %w", err)
	}
	sub, err := s.repo.AddSubmission(ctx, SubmissionCreateParams{
		ID:                 id,
		EventID:            eventID,
		ProblemStatementID: input.ProblemStatementID,
		Name:               input.Name,
		Email:              input.Email,
		RegistrationNumber: input.RegistrationNumber,
		SubmissionPath:     file.Path,
	})
	if err != nil {
		s.discard(ctx, file.Path)
		return nil, err
	}
	s.logger.Info().Str("event_id", eventID).Str("submission_id", sub.ID).Msg("submission added")
	return sub, nil
}

// ViewSubmissions returns the event's submissions for one problem statement.
func (s *Service) ViewSubmissions(ctx context.Context, eventID, problemStatementID string) ([]Submission, error) {
	return s.repo.ListSubmissions(ctx, eventID, problemStatementID)
}

// EvaluateSubmission sets the status of a submission. Any status may follow
// any other; the last evaluation wins.
func (s *Service) EvaluateSubmission(ctx context.Context, eventID, submissionID, status string) (*Submission, error) {
	parsed, err := ParseSubmissionStatus(status)
	if err != nil {
		return nil, validation.Errors{{Field: "status", Message: "must be one of: Pending Approved Rejected"}}
	}
	sub, err := s.repo.SetSubmissionStatus(ctx, eventID, submissionID, parsed)
	if err != nil {
		return nil, err
	}
	metrics.SubmissionsEvaluated.WithLabelValues(string(parsed)).Inc()
	s.logger.Info().
		Str("event_id", eventID).
		Str("submission_id", submissionID).
		Str("status", string(parsed)).
		Msg("submission evaluated")
	return sub, nil
}

// UpdateSubmission replaces the file of a submission. The previous file is
// kept in the store.
func (s *Service) UpdateSubmission(ctx context.Context, submissionID string, upload *filestore.Upload) (*Submission, error) {
	if upload == nil || upload.Content == nil {
		return nil, validation.Required("submission")
	}
	file, err := s.deps.Files.Save(ctx, filestore.KindSubmission, *upload)
	if err != nil {
		return nil, err
	}
	sub, previous, err := s.repo.UpdateSubmissionPath(ctx, submissionID, file.Path)
	if err != nil {
		s.discard(ctx, file.Path)
		if errors.Is(err, ErrSubmissionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update submission: %w", err)
	}
	s.logger.Info().
		Str("submission_id", submissionID).
		Str("path", file.Path).
		Str("retained_path", previous).
		Msg("submission file replaced")
	return sub, nil
}

// AllSubmissions lists every submission with its parent event.
func (s *Service) AllSubmissions(ctx context.Context) ([]SubmissionWithEvent, error) {
	return s.repo.ListAllSubmissions(ctx)
}
