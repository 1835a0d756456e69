package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hackbox-events/server/internal/config"
)

func newTestResendSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sender, err := NewResendSender(config.EmailConfig{
		Provider:     config.EmailProviderResend,
		From:         "events@example.com",
		FromName:     "Team Hackbox",
		ResendAPIKey: "test-api-key",
	}, zerolog.Nop())
	require.NoError(t, err)

	baseURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	sender.client.BaseURL = baseURL
	return sender
}

func TestResendSenderSendsAttachments(t *testing.T) {
	sender := newTestResendSender(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		require.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))

		var req resend.SendEmailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Team Hackbox <events@example.com>", req.From)
		require.Equal(t, []string{"a@x.com"}, req.To)
		require.Equal(t, "Event Certificate - Hack Night", req.Subject)
		require.Len(t, req.Attachments, 1)
		require.Equal(t, "Asha_certificate.pdf", req.Attachments[0].Filename)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "mock-email-id-123"})
	})

	msg, err := Certificate("a@x.com", "Asha", "Hack Night", []byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), msg))
}

func TestResendSenderRateLimit(t *testing.T) {
	sender := newTestResendSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "100")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "60")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Rate limit exceeded"})
	})

	err := sender.Send(context.Background(), Message{To: "a@x.com", Subject: "Hi", Text: "body"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limit")
}

func TestResendSenderRejectsInvalidMessage(t *testing.T) {
	sender := newTestResendSender(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	require.Error(t, sender.Send(context.Background(), Message{To: "bad", Subject: "Hi", Text: "b"}))
}
