package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hackbox-events/server/internal/auth"
	"github.com/hackbox-events/server/internal/domain/accounts"
)

var _ accounts.Repository = (*AccountRepository)(nil)

type AccountRepository struct {
	mu       sync.RWMutex
	now      func() time.Time
	accounts []accounts.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{now: time.Now}
}

func (r *AccountRepository) Create(_ context.Context, params accounts.CreateParams) (*accounts.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, params.Email) {
			return nil, accounts.ErrEmailTaken
		}
	}
	account := accounts.Account{
		ID:           params.ID,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Name:         params.Name,
		Role:         params.Role,
		Committee:    params.Committee,
		Mobile:       params.Mobile,
		CreatedAt:    r.now().UTC(),
	}
	r.accounts = append(r.accounts, account)
	return &account, nil
}

func (r *AccountRepository) find(match func(accounts.Account) bool) (*accounts.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if match(a) {
			out := a
			return &out, nil
		}
	}
	return nil, accounts.ErrNotFound
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*accounts.Account, error) {
	return r.find(func(a accounts.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (r *AccountRepository) FindByRole(_ context.Context, role auth.Role) (*accounts.Account, error) {
	return r.find(func(a accounts.Account) bool { return a.Role == role })
}

func (r *AccountRepository) FindByCommittee(_ context.Context, committeeID string, role auth.Role) (*accounts.Account, error) {
	return r.find(func(a accounts.Account) bool { return a.Committee.ID == committeeID && a.Role == role })
}

func (r *AccountRepository) List(_ context.Context) ([]accounts.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]accounts.Account, len(r.accounts))
	copy(out, r.accounts)
	return out, nil
}
