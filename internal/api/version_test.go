package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
)

func TestVersionHandler(t *testing.T) {
	tests := []struct {
		name                string
		version, commit, at string
		want                BuildInfo
	}{
		{
			name:    "with all values",
			version: "0.1.0", commit: "abc123", at: "2026-01-28T12:00:00Z",
			want: BuildInfo{Version: "0.1.0", GitCommit: "abc123", BuildDate: "2026-01-28T12:00:00Z"},
		},
		{
			name: "defaults",
			want: BuildInfo{Version: "dev", GitCommit: "unknown", BuildDate: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			VersionHandler(tt.version, tt.commit, tt.at).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var got BuildInfo
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			tt.want.GoVersion = runtime.Version()
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
