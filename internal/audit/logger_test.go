package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hackbox-events/server/internal/auth"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestLogFromRequestSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	req := httptest.NewRequest("POST", "/api/v1/events/e1/approve", nil)
	req.RemoteAddr = "10.0.0.9:5123"
	claims := &auth.Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "acct-1"}}

	logger.LogFromRequest(req, claims, "event.approve", "event", "e1", nil, map[string]string{"name": "Hackathon"})

	entry := decode(t, &buf)
	require.Equal(t, "audit", entry["component"])
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "event.approve", entry["action"])
	require.Equal(t, "acct-1", entry["actor_id"])
	require.Equal(t, "admin", entry["actor_role"])
	require.Equal(t, "10.0.0.9", entry["ip"])
	require.Equal(t, StatusSuccess, entry["status"])
	require.Equal(t, map[string]any{"name": "Hackathon"}, entry["details"])
}

func TestLogFromRequestFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	req := httptest.NewRequest("DELETE", "/api/v1/events/e1", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	logger.LogFromRequest(req, nil, "event.delete", "event", "e1", errors.New("event not found"), nil)

	entry := decode(t, &buf)
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, StatusFailure, entry["status"])
	require.Equal(t, "203.0.113.7", entry["ip"])
	require.Equal(t, "", entry["actor_id"])
	require.Equal(t, map[string]any{"error": "event not found"}, entry["details"])
}

func TestContextRoundTrip(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))
	FromContext(context.Background()).Log(Entry{Action: "noop"})

	logger := NewLogger(zerolog.Nop())
	require.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))
}
