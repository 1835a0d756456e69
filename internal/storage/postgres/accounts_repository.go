package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackbox-events/server/internal/auth"
	"github.com/hackbox-events/server/internal/domain/accounts"
)

var _ accounts.Repository = (*AccountRepository)(nil)

type AccountRepository struct {
	db queryer
}

const accountColumns = `id, email, password_hash, name, role, committee_id, committee_name, mobile, created_at`

func scanAccount(row pgx.Row) (*accounts.Account, error) {
	var (
		a    accounts.Account
		role string
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &role, &a.Committee.ID, &a.Committee.Name, &a.Mobile, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	a.Role = auth.Role(role)
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, params accounts.CreateParams) (_ *accounts.Account, err error) {
	defer observe("accounts.create", time.Now(), &err)

	account, err := scanAccount(r.db.QueryRow(ctx, `
INSERT INTO accounts (id, email, password_hash, name, role, committee_id, committee_name, mobile)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+accountColumns,
		params.ID, params.Email, params.PasswordHash, params.Name, string(params.Role),
		params.Committee.ID, params.Committee.Name, params.Mobile,
	))
	if pgCode(err) == codeUniqueViolation {
		return nil, accounts.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (_ *accounts.Account, err error) {
	defer observe("accounts.get_by_email", time.Now(), &err)
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email))
}

// FindByRole returns the oldest account holding the role.
func (r *AccountRepository) FindByRole(ctx context.Context, role auth.Role) (_ *accounts.Account, err error) {
	defer observe("accounts.find_by_role", time.Now(), &err)
	return scanAccount(r.db.QueryRow(ctx, `
SELECT `+accountColumns+` FROM accounts WHERE role = $1 ORDER BY created_at, id LIMIT 1`, string(role)))
}

func (r *AccountRepository) FindByCommittee(ctx context.Context, committeeID string, role auth.Role) (_ *accounts.Account, err error) {
	defer observe("accounts.find_by_committee", time.Now(), &err)
	return scanAccount(r.db.QueryRow(ctx, `
SELECT `+accountColumns+` FROM accounts WHERE committee_id = $1 AND role = $2 ORDER BY created_at, id LIMIT 1`,
		committeeID, string(role)))
}

func (r *AccountRepository) List(ctx context.Context) (_ []accounts.Account, err error) {
	defer observe("accounts.list", time.Now(), &err)

	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []accounts.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
