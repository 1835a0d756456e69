package registrations

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyRegistered is returned when the identifier or email is already
	// registered for the event.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrEventNotFound     = errors.New("event not found")
)

type Type string

const (
	TypeStudent Type = "student"
	TypeFaculty Type = "faculty"
)

type EventRef struct {
	ID   string
	Name string
}

// Registration is a student or faculty signup for one event. Students are
// identified by RegNo, faculty by EmployeeID.
type Registration struct {
	ID          string
	Type        Type
	Name        string
	Email       string
	MobileNo    string
	RegNo       string
	Semester    string
	Course      string
	Department  string
	EmployeeID  string
	Designation string
	Event       EventRef
	CreatedAt   time.Time
}

// Identifier returns the registrant's per-event unique identifier.
func (r Registration) Identifier() string {
	if r.Type == TypeFaculty {
		return r.EmployeeID
	}
	return r.RegNo
}

// Repository stores registrations. Create must return ErrAlreadyRegistered
// when the (identifier, event) or (email, event) pair already exists.
type Repository interface {
	Create(ctx context.Context, reg Registration) (*Registration, error)
	List(ctx context.Context) ([]Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]Registration, error)
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}
