package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/hackbox-events/server/internal/auth"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Committee of the provisioned participant accounts.
const (
	ParticipantCommitteeID   = "participant"
	ParticipantCommitteeName = "Participant"
)

type Committee struct {
	ID   string
	Name string
}

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         auth.Role
	Committee    Committee
	Mobile       string
	CreatedAt    time.Time
}

type CreateParams struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         auth.Role
	Committee    Committee
	Mobile       string
}

// Repository stores login accounts. Emails are unique case-insensitively;
// Create returns ErrEmailTaken on a duplicate.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	FindByRole(ctx context.Context, role auth.Role) (*Account, error)
	FindByCommittee(ctx context.Context, committeeID string, role auth.Role) (*Account, error)
	List(ctx context.Context) ([]Account, error)
}
