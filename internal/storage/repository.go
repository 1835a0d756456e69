// Package storage names the stores a backend must provide. The memory and
// postgres subpackages implement them.
package storage

import (
	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/events"
	"github.com/hackbox-events/server/internal/domain/registrations"
)

// Repositories groups data access by domain.
type Repositories struct {
	Events        events.Repository
	Registrations registrations.Repository
	Accounts      accounts.Repository
}
