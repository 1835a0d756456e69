package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"static path", "/api/v1/events/published", "/api/v1/events/published"},
		{"route placeholder", "/api/v1/events/{id}", "/api/v1/events/{param}"},
		{"ulid", "/api/v1/events/01HYX3KQW7ERTV9XNBM2P8QJZF/photos", "/api/v1/events/{param}/photos"},
		{"nested ids", "/api/v1/events/01HYX3KQW7ERTV9XNBM2P8QJZF/submissions/01HYX3KQW7ERTV9XNBM2P8QJZG/evaluate", "/api/v1/events/{param}/submissions/{param}/evaluate"},
		{"long word kept", "/api/v1/problem-statements", "/api/v1/problem-statements"},
		{"empty path", "", ""},
		{"non-path input", "api/v1/events/{id}", "api/v1/events/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.input); got != tt.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
