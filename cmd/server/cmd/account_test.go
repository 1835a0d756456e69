package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/storage/memory"
)

func TestCreateAccountWithPassword(t *testing.T) {
	repo := memory.NewAccountRepository()
	service := accounts.NewService(repo, nil, zerolog.Nop())
	out := new(bytes.Buffer)

	err := createAccount(context.Background(), out, service, accountFlags{
		email:         "Convenor@College.edu",
		name:          "Priya",
		role:          "convenor",
		committeeID:   "coding",
		committeeName: "Coding Club",
		password:      "correct-horse",
	})
	if err != nil {
		t.Fatalf("createAccount: %v", err)
	}
	if !strings.Contains(out.String(), "Created convenor account convenor@college.edu") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Password:") {
		t.Error("an explicit password must not be echoed")
	}

	stored, err := repo.GetByEmail(context.Background(), "convenor@college.edu")
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if stored.Committee.ID != "coding" {
		t.Errorf("expected committee coding, got %q", stored.Committee.ID)
	}
}

func TestCreateAccountGeneratesPassword(t *testing.T) {
	service := accounts.NewService(memory.NewAccountRepository(), nil, zerolog.Nop())
	out := new(bytes.Buffer)

	err := createAccount(context.Background(), out, service, accountFlags{
		email: "admin@college.edu",
		name:  "Dean",
		role:  "admin",
	})
	if err != nil {
		t.Fatalf("createAccount: %v", err)
	}

	var password string
	for _, line := range strings.Split(out.String(), "\n") {
		if rest, ok := strings.CutPrefix(line, "Password: "); ok {
			password = rest
		}
	}
	if len(password) < 20 {
		t.Fatalf("expected a generated password, got output:\n%s", out.String())
	}
}

func TestCreateAccountValidation(t *testing.T) {
	service := accounts.NewService(memory.NewAccountRepository(), nil, zerolog.Nop())

	err := createAccount(context.Background(), new(bytes.Buffer), service, accountFlags{
		email:    "convenor@college.edu",
		name:     "Priya",
		role:     "convenor",
		password: "correct-horse",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid account") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
