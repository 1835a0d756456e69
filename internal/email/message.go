package email

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single notification to one recipient. At least one of Text
// or HTML must be set.
type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Validate rejects malformed recipients and header injection attempts.
func (m Message) Validate() error {
	if err := validateEmailAddress(m.To); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("subject is required")
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return errors.New("subject contains newline characters")
	}
	if m.Text == "" && m.HTML == "" {
		return errors.New("message body is empty")
	}
	for _, a := range m.Attachments {
		if a.Filename == "" || strings.ContainsAny(a.Filename, "\r\n\"/\\") {
			return fmt.Errorf("invalid attachment filename %q", a.Filename)
		}
	}
	return nil
}

// validateEmailAddress validates an email address for format and header injection attempts
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}

	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}

	return nil
}

// ValidAddress reports whether email can be used as a recipient.
func ValidAddress(email string) bool {
	return validateEmailAddress(email) == nil
}

// redact hides the local part of an address for production logs.
func redact(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 1 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}
