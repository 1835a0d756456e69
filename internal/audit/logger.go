// Package audit records privileged actions on events and submissions.
package audit

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/auth"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry is one audited action.
type Entry struct {
	Action       string
	ActorID      string
	ActorRole    string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Status       string
	Details      map[string]string
}

// Logger writes audit entries as structured log lines tagged component=audit.
type Logger struct {
	logger zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "audit").Logger()}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	evt := l.logger.Info()
	if entry.Status == StatusFailure {
		evt = l.logger.Warn()
	}
	evt = evt.
		Str("action", entry.Action).
		Str("actor_id", entry.ActorID).
		Str("actor_role", entry.ActorRole).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("ip", entry.IPAddress).
		Str("status", entry.Status)
	if len(entry.Details) > 0 {
		dict := zerolog.Dict()
		for k, v := range entry.Details {
			dict = dict.Str(k, v)
		}
		evt = evt.Dict("details", dict)
	}
	evt.Msg("audit")
}

// LogFromRequest fills the actor from the request's claims and the client
// address from the connection.
func (l *Logger) LogFromRequest(r *http.Request, claims *auth.Claims, action, resourceType, resourceID string, err error, details map[string]string) {
	entry := Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    clientIP(r),
		Status:       StatusSuccess,
		Details:      details,
	}
	if claims != nil {
		entry.ActorID = claims.Subject
		entry.ActorRole = claims.Role
	}
	if err != nil {
		entry.Status = StatusFailure
		if entry.Details == nil {
			entry.Details = map[string]string{}
		}
		entry.Details["error"] = err.Error()
	}
	l.Log(entry)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type contextKey struct{}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request's audit logger, or nil, on which Log is a no-op.
func FromContext(ctx context.Context) *Logger {
	logger, _ := ctx.Value(contextKey{}).(*Logger)
	return logger
}
