package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/config"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.Database.Driver = config.DatabaseDriverMemory
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Storage.LocalRoot = t.TempDir()
	cfg.AdminBootstrap = config.AdminBootstrapConfig{
		Name:     "Dean",
		Email:    "admin@college.edu",
		Password: "admin-password",
	}
	return cfg
}

func startApplication(t *testing.T, cfg config.Config) (*application, *httptest.Server) {
	t.Helper()
	ctx := context.Background()

	app, err := newApplication(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApplication: %v", err)
	}
	if err := app.bootstrapAdmin(ctx); err != nil {
		t.Fatalf("bootstrapAdmin: %v", err)
	}
	server := httptest.NewServer(app.router)
	t.Cleanup(func() {
		server.Close()
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.close(closeCtx)
	})
	return app, server
}

func TestApplicationMemoryDriver(t *testing.T) {
	app, server := startApplication(t, memoryConfig(t))

	if app.pool != nil || app.river != nil {
		t.Fatal("memory driver must not open a database or River client")
	}
	if app.jobsEnabled() {
		t.Fatal("jobs need Postgres and must fall back to in-process work")
	}
	if app.notifier == nil || app.inline == nil {
		t.Fatal("expected in-process notifier and photo compressor")
	}

	result := performHealthCheck(server.URL+"/health", 5*time.Second)
	if !result.IsHealthy || result.Status != "degraded" {
		t.Fatalf("expected degraded but healthy status for the memory store, got %+v", result)
	}
}

func TestApplicationBootstrappedAdminCanLogIn(t *testing.T) {
	_, server := startApplication(t, memoryConfig(t))

	resp, err := http.Post(server.URL+"/api/v1/auth/login", "application/json",
		strings.NewReader(`{"email":"admin@college.edu","password":"admin-password"}`))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/v1/events/unapproved", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list request: %v", err)
	}
	defer func() { _ = listResp.Body.Close() }()
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("expected admin to list unapproved events, got %d", listResp.StatusCode)
	}
}

func TestBootstrapAdminIsIdempotent(t *testing.T) {
	app, _ := startApplication(t, memoryConfig(t))

	if err := app.bootstrapAdmin(context.Background()); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	list, err := app.accounts.List(context.Background())
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one admin, got %d accounts", len(list))
	}
}

func TestBootstrapAdminSkipsWithoutCredentials(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.AdminBootstrap = config.AdminBootstrapConfig{}
	app, _ := startApplication(t, cfg)

	list, err := app.accounts.List(context.Background())
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no accounts, got %d", len(list))
	}
}

func TestNewFileStoreLocal(t *testing.T) {
	cfg := config.Defaults().Storage
	cfg.LocalRoot = t.TempDir()
	store, err := newFileStore(context.Background(), cfg)
	if err != nil || store == nil {
		t.Fatalf("expected local store, got %v, %v", store, err)
	}
}
