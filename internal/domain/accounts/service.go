package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/auth"
	"github.com/hackbox-events/server/internal/domain/ids"
	"github.com/hackbox-events/server/internal/sanitize"
	"github.com/hackbox-events/server/internal/validation"
)

const minPasswordLength = 8

// Service manages admin, convenor and member accounts and issues login tokens.
type Service struct {
	repo   Repository
	tokens *auth.JWTManager
	logger zerolog.Logger
}

func NewService(repo Repository, tokens *auth.JWTManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("component", "accounts").Logger(),
	}
}

// NewAccount is the input for creating an account from a plaintext password.
type NewAccount struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=admin convenor member"`
	Committee Committee
	Mobile    string `json:"mobile"`
}

// Create validates input, hashes the password and stores the account.
func (s *Service) Create(ctx context.Context, input NewAccount) (*Account, error) {
	input.Email = normalizeEmail(input.Email)
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))
	sanitize.Texts(&input.Name, &input.Committee.ID, &input.Committee.Name, &input.Mobile)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, validation.Errors{{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}}
	}
	role, _ := auth.ParseRole(input.Role)
	if role == auth.RoleConvenor && input.Committee.ID == "" {
		return nil, validation.Required("committee.id")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, CreateParams{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         role,
		Committee:    input.Committee,
		Mobile:       input.Mobile,
	})
}

// CreateMember stores a member account whose password has already been hashed.
func (s *Service) CreateMember(ctx context.Context, email, hashedPassword, name string, committee Committee) (*Account, error) {
	if hashedPassword == "" {
		return nil, validation.Required("password")
	}
	return s.create(ctx, CreateParams{
		Email:        normalizeEmail(email),
		PasswordHash: hashedPassword,
		Name:         sanitize.Text(name),
		Role:         auth.RoleMember,
		Committee:    committee,
	})
}

func (s *Service) create(ctx context.Context, params CreateParams) (*Account, error) {
	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate account id: %w", err)
	}
	params.ID = id
	account, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("account_id", account.ID).
		Str("role", string(account.Role)).
		Str("committee_id", account.Committee.ID).
		Msg("account created")
	return account, nil
}

// Login checks credentials and returns the account with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	account, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := auth.CheckPassword(account.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(auth.Identity{
		AccountID:     account.ID,
		Role:          string(account.Role),
		Name:          account.Name,
		CommitteeID:   account.Committee.ID,
		CommitteeName: account.Committee.Name,
	})
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return account, token, nil
}

// Exists reports whether an account with email is already registered.
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// FindAdmin returns the system administrator account.
func (s *Service) FindAdmin(ctx context.Context) (*Account, error) {
	return s.repo.FindByRole(ctx, auth.RoleAdmin)
}

// FindConvenor returns the convenor of the committee.
func (s *Service) FindConvenor(ctx context.Context, committeeID string) (*Account, error) {
	return s.repo.FindByCommittee(ctx, committeeID, auth.RoleConvenor)
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// EnsureAdmin creates the bootstrap administrator unless an admin exists.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.repo.FindByRole(ctx, auth.RoleAdmin); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if name == "" {
		name = "Administrator"
	}
	if _, err := s.Create(ctx, NewAccount{Email: email, Password: password, Name: name, Role: string(auth.RoleAdmin)}); err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
