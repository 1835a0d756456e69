package cmd

import (
	"strings"
	"testing"
)

func TestServeCommandHelp(t *testing.T) {
	output, err := execute(t, "serve", "--help")
	if err != nil {
		t.Fatalf("serve --help failed: %v", err)
	}
	for _, want := range []string{"Start the events HTTP server", "--host", "--port", "server host address"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected help text to contain %q, got:\n%s", want, output)
		}
	}
}

func TestServeCommandFlags(t *testing.T) {
	for _, flag := range []string{"host", "port"} {
		if f := serveCmd.Flags().Lookup(flag); f == nil {
			t.Errorf("expected flag %q to be defined on serve command", flag)
		}
	}
}

func TestServeFailsFastOnInvalidConfig(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "secret")

	_, err := execute(t, "serve")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_DRIVER") {
		t.Fatalf("expected config error naming DATABASE_DRIVER, got %v", err)
	}
}
