package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
)

// Review sections named in event-created notices.
const (
	SectionUnapproved = "Unapproved Events"
	SectionApprove    = "Approve Events"
)

// EventCreated announces a new event awaiting review.
func EventCreated(to, eventName, createdBy, section string) (Message, error) {
	body, err := renderText("event_created.txt", map[string]string{
		"EventName": eventName,
		"CreatedBy": createdBy,
		"Section":   section,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "New Event Created - " + eventName,
		Text:    body,
	}, nil
}

// Certificate delivers a participation certificate as a PDF attachment.
func Certificate(to, name, eventName string, pdf []byte) (Message, error) {
	body, err := renderText("certificate.txt", map[string]string{
		"Name":      name,
		"EventName": eventName,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Event Certificate - " + eventName,
		Text:    body,
		Attachments: []Attachment{{
			Filename:    CertificateFilename(name),
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	}, nil
}

// CertificateFilename is "<first name>_certificate.pdf".
func CertificateFilename(name string) string {
	first := "participant"
	if fields := strings.Fields(name); len(fields) > 0 {
		first = strings.Map(func(r rune) rune {
			if strings.ContainsRune("\r\n\"/\\", r) {
				return -1
			}
			return r
		}, fields[0])
	}
	return first + "_certificate.pdf"
}

// RegistrationData renders the registration confirmation. Password is empty
// when the registrant already had a member account.
type RegistrationData struct {
	Name      string
	Email     string
	EventName string
	Password  string
}

func Registration(data RegistrationData) (Message, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, "registration.html", data); err != nil {
		return Message{}, fmt.Errorf("render registration.html: %w", err)
	}
	return Message{
		To:      data.Email,
		Subject: "Your Event Registration and Member Credentials",
		HTML:    buf.String(),
	}, nil
}

func renderText(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
