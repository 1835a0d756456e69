package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackbox-events/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	db queryer
}

const eventColumns = `id, name, venue, start_date, end_date, description,
       committee_id, committee_name, created_by_id, created_by_name,
       banner_name, banner_path, order_name, order_path, report_name, report_path, photos,
       is_photo_uploaded, is_approved, is_published, is_certificate_generated, status,
       created_at, updated_at`

type photoJSON struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		e          events.Event
		reportName *string
		reportPath *string
		photos     []photoJSON
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.Venue, &e.StartDate, &e.EndDate, &e.Description,
		&e.Committee.ID, &e.Committee.Name, &e.CreatedBy.ID, &e.CreatedBy.Name,
		&e.Banner.Name, &e.Banner.Path, &e.Order.Name, &e.Order.Path, &reportName, &reportPath, &photos,
		&e.IsPhotoUploaded, &e.IsApproved, &e.IsPublished, &e.IsCertificateGenerated, &e.Status,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, err
	}
	if reportPath != nil {
		e.Report = &events.Attachment{Name: derefString(reportName), Path: *reportPath}
	}
	for _, p := range photos {
		e.Photos = append(e.Photos, events.Attachment{Name: p.Name, Path: p.Path})
	}
	return &e, nil
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (_ *events.Event, err error) {
	defer observe("events.create", time.Now(), &err)

	row := r.db.QueryRow(ctx, `
INSERT INTO events (id, name, venue, start_date, end_date, description,
                    committee_id, committee_name, created_by_id, created_by_name,
                    banner_name, banner_path, order_name, order_path)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+eventColumns,
		params.ID, params.Name, params.Venue, params.StartDate, params.EndDate, params.Description,
		params.Committee.ID, params.Committee.Name, params.CreatedBy.ID, params.CreatedBy.Name,
		params.Banner.Name, params.Banner.Path, params.Order.Name, params.Order.Path,
	)
	return scanEvent(row)
}

// GetByID loads the event with its problem statements and submissions.
func (r *EventRepository) GetByID(ctx context.Context, id string) (_ *events.Event, err error) {
	defer observe("events.get", time.Now(), &err)

	event, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if event.ProblemStatements, err = r.queryProblemStatements(ctx, id); err != nil {
		return nil, err
	}
	if event.Submissions, err = r.querySubmissions(ctx, `WHERE event_id = $1`, id); err != nil {
		return nil, err
	}
	return event, nil
}

// List returns matching events oldest first, without nested collections.
func (r *EventRepository) List(ctx context.Context, filter events.ListFilter) (_ []events.Event, err error) {
	defer observe("events.list", time.Now(), &err)

	var (
		where []string
		args  []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Approved != nil {
		add("is_approved = $%d", *filter.Approved)
	}
	if filter.Published != nil {
		add("is_published = $%d", *filter.Published)
	}
	if filter.CommitteeID != "" {
		add("committee_id = $%d", filter.CommitteeID)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []events.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EventRepository) update(ctx context.Context, operation, set string, args ...any) (_ *events.Event, err error) {
	defer observe(operation, time.Now(), &err)
	query := `UPDATE events SET ` + set + `, updated_at = now() WHERE id = $1 RETURNING ` + eventColumns
	return scanEvent(r.db.QueryRow(ctx, query, args...))
}

func (r *EventRepository) Approve(ctx context.Context, id string) (*events.Event, error) {
	return r.update(ctx, "events.approve", `is_approved = true, is_published = true`, id)
}

func (r *EventRepository) SetPublished(ctx context.Context, id string, published bool) (*events.Event, error) {
	return r.update(ctx, "events.set_published", `is_published = $2`, id, published)
}

func (r *EventRepository) TogglePublished(ctx context.Context, id string) (*events.Event, error) {
	return r.update(ctx, "events.toggle_published", `is_published = NOT is_published`, id)
}

func (r *EventRepository) SetReport(ctx context.Context, id string, report events.Attachment) (*events.Event, error) {
	return r.update(ctx, "events.set_report", `report_name = $2, report_path = $3, status = true`, id, report.Name, report.Path)
}

func (r *EventRepository) SetPhotos(ctx context.Context, id string, photos []events.Attachment) (*events.Event, error) {
	payload := make([]photoJSON, 0, len(photos))
	for _, p := range photos {
		payload = append(payload, photoJSON{Name: p.Name, Path: p.Path})
	}
	return r.update(ctx, "events.set_photos", `photos = $2, is_photo_uploaded = true`, id, payload)
}

func (r *EventRepository) MarkCertificatesGenerated(ctx context.Context, id string) (*events.Event, error) {
	return r.update(ctx, "events.mark_certificates", `is_certificate_generated = true`, id)
}

// Delete removes the event; problem statements and submissions go with it.
func (r *EventRepository) Delete(ctx context.Context, id string) (_ *events.Event, err error) {
	defer observe("events.delete", time.Now(), &err)
	return scanEvent(r.db.QueryRow(ctx, `DELETE FROM events WHERE id = $1 RETURNING `+eventColumns, id))
}

func (r *EventRepository) exists(ctx context.Context, id string) error {
	var found bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&found); err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if !found {
		return events.ErrNotFound
	}
	return nil
}

const problemStatementColumns = `id, event_id, title, description, created_at`

func scanProblemStatement(row pgx.Row) (*events.ProblemStatement, error) {
	var ps events.ProblemStatement
	if err := row.Scan(&ps.ID, &ps.EventID, &ps.Title, &ps.Description, &ps.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrProblemStatementNotFound
		}
		return nil, err
	}
	return &ps, nil
}

func (r *EventRepository) AddProblemStatement(ctx context.Context, params events.ProblemStatementCreateParams) (_ *events.ProblemStatement, err error) {
	defer observe("problem_statements.create", time.Now(), &err)

	ps, err := scanProblemStatement(r.db.QueryRow(ctx, `
INSERT INTO problem_statements (id, event_id, title, description, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+problemStatementColumns,
		params.ID, params.EventID, params.Title, params.Description, params.CreatedAt,
	))
	if pgCode(err) == codeForeignKeyViolation {
		return nil, events.ErrNotFound
	}
	return ps, err
}

func (r *EventRepository) ListProblemStatements(ctx context.Context, eventID string) (_ []events.ProblemStatement, err error) {
	defer observe("problem_statements.list", time.Now(), &err)
	if err := r.exists(ctx, eventID); err != nil {
		return nil, err
	}
	return r.queryProblemStatements(ctx, eventID)
}

func (r *EventRepository) queryProblemStatements(ctx context.Context, eventID string) ([]events.ProblemStatement, error) {
	rows, err := r.db.Query(ctx, `SELECT `+problemStatementColumns+` FROM problem_statements WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list problem statements: %w", err)
	}
	defer rows.Close()

	out := []events.ProblemStatement{}
	for rows.Next() {
		ps, err := scanProblemStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan problem statement: %w", err)
		}
		out = append(out, *ps)
	}
	return out, rows.Err()
}

func (r *EventRepository) GetProblemStatement(ctx context.Context, id string) (_ *events.ProblemStatement, err error) {
	defer observe("problem_statements.get", time.Now(), &err)
	return scanProblemStatement(r.db.QueryRow(ctx, `SELECT `+problemStatementColumns+` FROM problem_statements WHERE id = $1`, id))
}

const submissionColumns = `id, event_id, problem_statement_id, name, email, registration_number,
       submission_path, status, created_at, updated_at`

func scanSubmission(row pgx.Row, extra ...any) (*events.Submission, error) {
	var (
		s      events.Submission
		status string
	)
	dest := append([]any{
		&s.ID, &s.EventID, &s.ProblemStatementID, &s.Name, &s.Email, &s.RegistrationNumber,
		&s.SubmissionPath, &status, &s.CreatedAt, &s.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrSubmissionNotFound
		}
		return nil, err
	}
	s.Status = events.SubmissionStatus(status)
	return &s, nil
}

func (r *EventRepository) AddSubmission(ctx context.Context, params events.SubmissionCreateParams) (_ *events.Submission, err error) {
	defer observe("submissions.create", time.Now(), &err)

	sub, err := scanSubmission(r.db.QueryRow(ctx, `
INSERT INTO submissions (id, event_id, problem_statement_id, name, email, registration_number, submission_path, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+submissionColumns,
		params.ID, params.EventID, params.ProblemStatementID, params.Name, params.Email,
		params.RegistrationNumber, params.SubmissionPath, string(events.StatusPending),
	))
	if pgCode(err) == codeForeignKeyViolation {
		return nil, events.ErrNotFound
	}
	return sub, err
}

func (r *EventRepository) ListSubmissions(ctx context.Context, eventID, problemStatementID string) (_ []events.Submission, err error) {
	defer observe("submissions.list", time.Now(), &err)
	if err := r.exists(ctx, eventID); err != nil {
		return nil, err
	}
	return r.querySubmissions(ctx, `WHERE event_id = $1 AND problem_statement_id = $2`, eventID, problemStatementID)
}

func (r *EventRepository) querySubmissions(ctx context.Context, where string, args ...any) ([]events.Submission, error) {
	rows, err := r.db.Query(ctx, `SELECT `+submissionColumns+` FROM submissions `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := []events.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

func (r *EventRepository) SetSubmissionStatus(ctx context.Context, eventID, submissionID string, status events.SubmissionStatus) (_ *events.Submission, err error) {
	defer observe("submissions.set_status", time.Now(), &err)

	sub, err := scanSubmission(r.db.QueryRow(ctx, `
UPDATE submissions SET status = $3, updated_at = now()
 WHERE event_id = $1 AND id = $2
RETURNING `+submissionColumns,
		eventID, submissionID, string(status),
	))
	if errors.Is(err, events.ErrSubmissionNotFound) {
		if existsErr := r.exists(ctx, eventID); existsErr != nil {
			return nil, existsErr
		}
	}
	return sub, err
}

func (r *EventRepository) UpdateSubmissionPath(ctx context.Context, submissionID, path string) (_ *events.Submission, previous string, err error) {
	defer observe("submissions.update_path", time.Now(), &err)

	sub, err := scanSubmission(r.db.QueryRow(ctx, `
UPDATE submissions s SET submission_path = $2, updated_at = now()
  FROM (SELECT id, submission_path FROM submissions WHERE id = $1 FOR UPDATE) prev
 WHERE s.id = prev.id
RETURNING s.id, s.event_id, s.problem_statement_id, s.name, s.email, s.registration_number,
          s.submission_path, s.status, s.created_at, s.updated_at, prev.submission_path`,
		submissionID, path,
	), &previous)
	if err != nil {
		return nil, "", err
	}
	return sub, previous, nil
}

func (r *EventRepository) ListAllSubmissions(ctx context.Context) (_ []events.SubmissionWithEvent, err error) {
	defer observe("submissions.list_all", time.Now(), &err)

	rows, err := r.db.Query(ctx, `
SELECT s.id, s.event_id, s.problem_statement_id, s.name, s.email, s.registration_number,
       s.submission_path, s.status, s.created_at, s.updated_at, e.name
  FROM submissions s
  JOIN events e ON e.id = s.event_id
 ORDER BY e.created_at, e.id, s.created_at, s.id`)
	if err != nil {
		return nil, fmt.Errorf("list all submissions: %w", err)
	}
	defer rows.Close()

	out := []events.SubmissionWithEvent{}
	for rows.Next() {
		var eventName string
		sub, err := scanSubmission(rows, &eventName)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, events.SubmissionWithEvent{Submission: *sub, EventName: eventName})
	}
	return out, rows.Err()
}
