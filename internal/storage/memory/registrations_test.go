package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackbox-events/server/internal/domain/registrations"
)

func student(id, regNo, email, eventID string) registrations.Registration {
	return registrations.Registration{
		ID:    id,
		Type:  registrations.TypeStudent,
		Name:  "Asha",
		Email: email,
		RegNo: regNo,
		Event: registrations.EventRef{ID: eventID, Name: "Hack Night"},
	}
}

func TestRegistrationRepositoryUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewRegistrationRepository()

	_, err := repo.Create(ctx, student("r1", "R1", "a@x.com", "e1"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		reg     registrations.Registration
		wantErr error
	}{
		{"same regNo same event", student("r2", "R1", "b@x.com", "e1"), registrations.ErrAlreadyRegistered},
		{"same email differing case", student("r3", "R9", "A@X.com", "e1"), registrations.ErrAlreadyRegistered},
		{"same regNo other event", student("r4", "R1", "a@x.com", "e2"), nil},
		{"faculty with employee id equal to a regNo", registrations.Registration{
			ID: "r5", Type: registrations.TypeFaculty, Email: "f@x.com", EmployeeID: "R1",
			Event: registrations.EventRef{ID: "e1"},
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.reg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	byEvent, err := repo.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, byEvent, 2)
}

func TestRegistrationRepositoryDeleteByEvent(t *testing.T) {
	ctx := context.Background()
	repo := NewRegistrationRepository()
	for i, eventID := range []string{"e1", "e1", "e2"} {
		reg := student(string(rune('a'+i)), string(rune('A'+i)), string(rune('a'+i))+"@x.com", eventID)
		_, err := repo.Create(ctx, reg)
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "e2", all[0].Event.ID)
	assert.False(t, all[0].CreatedAt.IsZero())
}
