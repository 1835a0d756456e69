// Package testauth mints bearer tokens for local development, smoke scripts
// and integration tests. It must never be wired into the server itself.
//
// Tokens are signed with DEV_JWT_SECRET (or a well-known development secret),
// so they are only accepted by a server started with the same secret.
package testauth

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hackbox-events/server/internal/auth"
)

const (
	devSecret = "dev_jwt_secret_change_me_in_production"
	devIssuer = "hackbox-events"
)

// Config describes the identity to sign. Zero fields fall back to a
// development admin.
type Config struct {
	Secret string
	Issuer string
	Expiry time.Duration

	AccountID     string
	Role          auth.Role
	Name          string
	CommitteeID   string
	CommitteeName string
}

func (c Config) withDefaults() Config {
	if c.Secret == "" {
		c.Secret = os.Getenv("DEV_JWT_SECRET")
	}
	if c.Secret == "" {
		c.Secret = devSecret
	}
	if c.Issuer == "" {
		c.Issuer = devIssuer
	}
	if c.Expiry <= 0 {
		c.Expiry = 24 * time.Hour
	}
	if c.Role == "" {
		c.Role = auth.RoleAdmin
	}
	if c.AccountID == "" {
		c.AccountID = "dev-" + string(c.Role)
	}
	if c.Name == "" {
		c.Name = "Dev " + string(c.Role)
	}
	return c
}

// Token signs a JWT for cfg.
func Token(cfg Config) (string, error) {
	cfg = cfg.withDefaults()
	role, ok := auth.ParseRole(string(cfg.Role))
	if !ok {
		return "", fmt.Errorf("unknown role %q", cfg.Role)
	}
	cfg.Role = role
	if cfg.Role == auth.RoleConvenor && cfg.CommitteeID == "" {
		return "", fmt.Errorf("convenor tokens need a committee id")
	}

	manager := auth.NewJWTManager(cfg.Secret, cfg.Expiry, cfg.Issuer)
	token, err := manager.Generate(auth.Identity{
		AccountID:     cfg.AccountID,
		Role:          string(cfg.Role),
		Name:          cfg.Name,
		CommitteeID:   cfg.CommitteeID,
		CommitteeName: cfg.CommitteeName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT: %w", err)
	}
	return token, nil
}

// Authenticator adds a fixed bearer token to outgoing requests.
type Authenticator struct {
	token string
}

func NewAuthenticator(cfg Config) (*Authenticator, error) {
	token, err := Token(cfg)
	if err != nil {
		return nil, err
	}
	return &Authenticator{token: token}, nil
}

func (a *Authenticator) AddAuth(req *http.Request) {
	if req == nil {
		return
	}
	req.Header.Set("Authorization", a.AuthHeader())
}

func (a *Authenticator) AuthHeader() string {
	return "Bearer " + a.token
}
