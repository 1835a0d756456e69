package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hackbox-events/server/internal/config"
)

func TestValidateEmailAddress(t *testing.T) {
	valid := []string{
		"user@example.com",
		"user+tag@example.co.uk",
		"User Name <user@example.com>",
	}
	for _, addr := range valid {
		require.NoError(t, validateEmailAddress(addr), addr)
	}

	invalid := []string{
		"",
		"notanemail",
		"@example.com",
		"user@",
		"user@@example.com",
		"victim@example.com\r\nBcc: attacker@evil.com",
		"test@example.com\nCc: hacker@evil.com",
	}
	for _, addr := range invalid {
		require.Error(t, validateEmailAddress(addr), addr)
	}
}

func TestMessageValidate(t *testing.T) {
	ok := Message{To: "a@x.com", Subject: "Hi", Text: "body"}
	require.NoError(t, ok.Validate())

	tests := map[string]Message{
		"bad recipient":      {To: "nope", Subject: "Hi", Text: "b"},
		"missing subject":    {To: "a@x.com", Text: "b"},
		"subject injection":  {To: "a@x.com", Subject: "Hi\r\nBcc: x@y.z", Text: "b"},
		"empty body":         {To: "a@x.com", Subject: "Hi"},
		"attachment path":    {To: "a@x.com", Subject: "Hi", Text: "b", Attachments: []Attachment{{Filename: "../etc/passwd"}}},
		"attachment no name": {To: "a@x.com", Subject: "Hi", Text: "b", Attachments: []Attachment{{}}},
	}
	for name, msg := range tests {
		t.Run(name, func(t *testing.T) {
			require.Error(t, msg.Validate())
		})
	}
}

func TestEventCreatedMessage(t *testing.T) {
	msg, err := EventCreated("convenor@x.com", "Hack Night", "Asha", SectionUnapproved)
	require.NoError(t, err)
	require.Equal(t, "New Event Created - Hack Night", msg.Subject)
	require.Contains(t, msg.Text, "Event Name: Hack Night.")
	require.Contains(t, msg.Text, "Created By: Asha.")
	require.Contains(t, msg.Text, "Unapproved Events Section")
	require.NoError(t, msg.Validate())
}

func TestCertificateMessage(t *testing.T) {
	msg, err := Certificate("a@x.com", "Asha Rao", "Hack Night", []byte("%PDF-1.3"))
	require.NoError(t, err)
	require.Equal(t, "Event Certificate - Hack Night", msg.Subject)
	require.Contains(t, msg.Text, `For attending the event "Hack Night".`)
	require.Len(t, msg.Attachments, 1)
	require.Equal(t, "Asha_certificate.pdf", msg.Attachments[0].Filename)
	require.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
}

func TestCertificateFilename(t *testing.T) {
	require.Equal(t, "participant_certificate.pdf", CertificateFilename("   "))
	require.Equal(t, "Ravi_certificate.pdf", CertificateFilename("Ravi Kumar"))
	require.Equal(t, "ab_certificate.pdf", CertificateFilename("a/b c"))
}

func TestRegistrationMessageEscapesHTML(t *testing.T) {
	msg, err := Registration(RegistrationData{
		Name:      "<script>x</script>",
		Email:     "a@x.com",
		EventName: "Hack Night",
		Password:  "s3cret",
	})
	require.NoError(t, err)
	require.Equal(t, "Your Event Registration and Member Credentials", msg.Subject)
	require.Contains(t, msg.HTML, "s3cret")
	require.Contains(t, msg.HTML, "<strong>Hack Night</strong>")
	require.NotContains(t, msg.HTML, "<script>")

	existing, err := Registration(RegistrationData{Name: "Asha", Email: "a@x.com", EventName: "Hack Night"})
	require.NoError(t, err)
	require.NotContains(t, existing.HTML, "Password:")
	require.Contains(t, existing.HTML, "existing member account")
}

func TestNewSenderSelectsProvider(t *testing.T) {
	logger := zerolog.Nop()

	s, err := NewSender(config.EmailConfig{Provider: config.EmailProviderLog}, logger)
	require.NoError(t, err)
	require.IsType(t, &LogSender{}, s)

	s, err = NewSender(config.EmailConfig{Provider: config.EmailProviderSMTP, From: "events@x.com", SMTPHost: "smtp.x.com", SMTPPort: 587}, logger)
	require.NoError(t, err)
	require.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.EmailConfig{Provider: config.EmailProviderSMTP, From: "bad"}, logger)
	require.Error(t, err)

	_, err = NewSender(config.EmailConfig{Provider: "carrier-pigeon"}, logger)
	require.Error(t, err)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func TestAsyncNotifierDeliversInBackground(t *testing.T) {
	sender := &recordingSender{}
	n := NewAsyncNotifier(sender, zerolog.Nop(), false)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.Notify(ctx, Message{To: "a@x.com", Subject: "Hi", Text: "body"}))
	// cancelling the request context must not abort delivery
	cancel()

	waitCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	require.NoError(t, n.Wait(waitCtx))
	require.Len(t, sender.sent, 1)
}

func TestAsyncNotifierSwallowsDeliveryErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	n := NewAsyncNotifier(sender, zerolog.Nop(), true)

	require.NoError(t, n.Notify(context.Background(), Message{To: "a@x.com", Subject: "Hi", Text: "body"}))
	require.NoError(t, n.Wait(context.Background()))

	err := n.Notify(context.Background(), Message{To: "not-an-address", Subject: "Hi", Text: "body"})
	require.Error(t, err)
}

func TestRedact(t *testing.T) {
	require.Equal(t, "a***@x.com", redact("asha@x.com"))
	require.Equal(t, "***", redact("a@x.com"))
	require.False(t, strings.Contains(redact("ravi.kumar@college.edu"), "ravi.kumar"))
}
