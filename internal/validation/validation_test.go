package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type nested struct {
	ID string `json:"id" validate:"required"`
}

type sample struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Status string `json:"status" validate:"omitempty,oneof=Pending Approved"`
	Event  nested `json:"event"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Email: "not-an-email", Status: "Maybe"})
	require.Error(t, err)

	errs, ok := AsErrors(err)
	require.True(t, ok)
	fields := errs.Fields()
	require.Equal(t, "is required", fields["name"])
	require.Equal(t, "must be a valid email address", fields["email"])
	require.Equal(t, "must be one of: Pending Approved", fields["status"])
	require.Equal(t, "is required", fields["event.id"])
}

func TestStructValid(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "A", Email: "a@x.com", Event: nested{ID: "e1"}}))
}

func TestErrorsErrAndWrapping(t *testing.T) {
	var errs Errors
	require.NoError(t, errs.Err())

	errs.Add("banner", "is required")
	wrapped := fmt.Errorf("create event: %w", errs.Err())

	got, ok := AsErrors(wrapped)
	require.True(t, ok)
	require.Len(t, got, 1)
	require.Contains(t, wrapped.Error(), "banner: is required")

	_, ok = AsErrors(errors.New("boom"))
	require.False(t, ok)
}

func TestAsErrorsAcceptsSingleFieldError(t *testing.T) {
	got, ok := AsErrors(FieldError{Field: "status", Message: "is invalid"})
	require.True(t, ok)
	require.Equal(t, "is invalid", got.Fields()["status"])
}

func TestValidateBaseURL(t *testing.T) {
	valid := []string{"", "http://localhost:8080", "https://events.example.edu/"}
	for _, u := range valid {
		require.NoError(t, ValidateBaseURL(u, "base_url"), u)
	}

	invalid := map[string]string{
		"ftp://example.com":         "scheme",
		"https://":                  "host",
		"https://example.com/api":   "path",
		"https://example.com/?a=1":  "query",
		"https://example.com/#frag": "fragment",
	}
	for u, want := range invalid {
		err := ValidateBaseURL(u, "base_url")
		require.Error(t, err, u)
		require.Contains(t, err.Error(), want, u)
	}
}
