package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackbox-events/server/internal/domain/registrations"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

// RegistrationRepository relies on the partial unique indexes on registrations
// for per-event uniqueness.
type RegistrationRepository struct {
	db queryer
}

const registrationColumns = `id, type, name, email, mobile_no, reg_no, semester, course, department,
       employee_id, designation, event_id, event_name, created_at`

func scanRegistration(row pgx.Row) (*registrations.Registration, error) {
	var (
		reg        registrations.Registration
		kind       string
		regNo      *string
		employeeID *string
	)
	err := row.Scan(
		&reg.ID, &kind, &reg.Name, &reg.Email, &reg.MobileNo, &regNo, &reg.Semester, &reg.Course, &reg.Department,
		&employeeID, &reg.Designation, &reg.Event.ID, &reg.Event.Name, &reg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	reg.Type = registrations.Type(kind)
	reg.RegNo = derefString(regNo)
	reg.EmployeeID = derefString(employeeID)
	return &reg, nil
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (r *RegistrationRepository) Create(ctx context.Context, reg registrations.Registration) (_ *registrations.Registration, err error) {
	defer observe("registrations.create", time.Now(), &err)

	created, err := scanRegistration(r.db.QueryRow(ctx, `
INSERT INTO registrations (id, type, name, email, mobile_no, reg_no, semester, course, department,
                           employee_id, designation, event_id, event_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING `+registrationColumns,
		reg.ID, string(reg.Type), reg.Name, reg.Email, reg.MobileNo, nullIfEmpty(reg.RegNo),
		reg.Semester, reg.Course, reg.Department, nullIfEmpty(reg.EmployeeID), reg.Designation,
		reg.Event.ID, reg.Event.Name,
	))
	if pgCode(err) == codeUniqueViolation {
		return nil, registrations.ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return created, nil
}

func (r *RegistrationRepository) List(ctx context.Context) (_ []registrations.Registration, err error) {
	defer observe("registrations.list", time.Now(), &err)
	return r.query(ctx, `SELECT `+registrationColumns+` FROM registrations ORDER BY created_at, id`)
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) (_ []registrations.Registration, err error) {
	defer observe("registrations.list_by_event", time.Now(), &err)
	return r.query(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY created_at, id`, eventID)
}

func (r *RegistrationRepository) query(ctx context.Context, sql string, args ...any) ([]registrations.Registration, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := []registrations.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, *reg)
	}
	return out, rows.Err()
}

func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID string) (_ int64, err error) {
	defer observe("registrations.delete_by_event", time.Now(), &err)

	tag, err := r.db.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("delete registrations: %w", err)
	}
	return tag.RowsAffected(), nil
}
