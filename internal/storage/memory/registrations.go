package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hackbox-events/server/internal/domain/registrations"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

// RegistrationRepository enforces the same per-event uniqueness as the
// database indexes: identifier per type, and email case-insensitively.
type RegistrationRepository struct {
	mu   sync.RWMutex
	now  func() time.Time
	regs []registrations.Registration
}

func NewRegistrationRepository() *RegistrationRepository {
	return &RegistrationRepository{now: time.Now}
}

func (r *RegistrationRepository) Create(_ context.Context, reg registrations.Registration) (*registrations.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.regs {
		if existing.Event.ID != reg.Event.ID {
			continue
		}
		if strings.EqualFold(existing.Email, reg.Email) {
			return nil, registrations.ErrAlreadyRegistered
		}
		if existing.Type == reg.Type && existing.Identifier() != "" && existing.Identifier() == reg.Identifier() {
			return nil, registrations.ErrAlreadyRegistered
		}
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = r.now().UTC()
	}
	r.regs = append(r.regs, reg)
	out := reg
	return &out, nil
}

func (r *RegistrationRepository) List(_ context.Context) ([]registrations.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]registrations.Registration, len(r.regs))
	copy(out, r.regs)
	return out, nil
}

func (r *RegistrationRepository) ListByEvent(_ context.Context, eventID string) ([]registrations.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []registrations.Registration{}
	for _, reg := range r.regs {
		if reg.Event.ID == eventID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *RegistrationRepository) DeleteByEvent(_ context.Context, eventID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.regs[:0]
	var deleted int64
	for _, reg := range r.regs {
		if reg.Event.ID == eventID {
			deleted++
			continue
		}
		kept = append(kept, reg)
	}
	r.regs = kept
	return deleted, nil
}
