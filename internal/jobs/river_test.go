package jobs

import (
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/hackbox-events/server/internal/config"
)

func TestNewRetryPolicyUsesConfiguredAttempts(t *testing.T) {
	policy := NewRetryPolicy(config.JobsConfig{EmailMaxAttempts: 7, PhotoMaxAttempts: 2})

	if got := policy.ByKind[JobKindSendEmail].MaxAttempts; got != 7 {
		t.Errorf("send_email MaxAttempts = %d, want 7", got)
	}
	if got := policy.ByKind[JobKindCompressPhoto].MaxAttempts; got != 2 {
		t.Errorf("compress_photo MaxAttempts = %d, want 2", got)
	}
}

func TestNewRetryPolicyDefaults(t *testing.T) {
	policy := NewRetryPolicy(config.JobsConfig{})

	if got := policy.ByKind[JobKindSendEmail].MaxAttempts; got != DefaultEmailMaxAttempts {
		t.Errorf("send_email MaxAttempts = %d, want %d", got, DefaultEmailMaxAttempts)
	}
	if got := policy.ByKind[JobKindCompressPhoto].MaxAttempts; got != DefaultPhotoMaxAttempts {
		t.Errorf("compress_photo MaxAttempts = %d, want %d", got, DefaultPhotoMaxAttempts)
	}
}

func TestRetryPolicy_NextRetry(t *testing.T) {
	policy := NewRetryPolicy(config.JobsConfig{})
	now := time.Now()

	tests := []struct {
		name    string
		kind    string
		attempt int
		want    time.Duration
	}{
		{"email first attempt", JobKindSendEmail, 1, 30 * time.Second},
		{"email third attempt", JobKindSendEmail, 3, 2 * time.Minute},
		{"email capped", JobKindSendEmail, 10, 15 * time.Minute},
		{"photo second attempt", JobKindCompressPhoto, 2, 20 * time.Second},
		{"zero attempt treated as first", JobKindCompressPhoto, 0, 10 * time.Second},
		{"unknown kind uses default", "other", 1, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &rivertype.JobRow{Kind: tt.kind, Attempt: tt.attempt, AttemptedAt: &now}
			if got := policy.NextRetry(job).Sub(now); got != tt.want {
				t.Errorf("NextRetry() delay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_InsertOpts(t *testing.T) {
	policy := NewRetryPolicy(config.JobsConfig{EmailMaxAttempts: 4})

	opts := policy.InsertOpts(JobKindSendEmail, QueueEmail)
	if opts.MaxAttempts != 4 || opts.Queue != QueueEmail {
		t.Errorf("InsertOpts() = %+v, want 4 attempts on %q", opts, QueueEmail)
	}

	var nilPolicy *RetryPolicy
	if got := nilPolicy.InsertOpts("x", "").MaxAttempts; got != DefaultEmailMaxAttempts {
		t.Errorf("nil policy MaxAttempts = %d, want %d", got, DefaultEmailMaxAttempts)
	}
}

func TestNewClientConfigQueues(t *testing.T) {
	cfg := NewClientConfig(config.JobsConfig{MaxWorkers: 8}, river.NewWorkers(), nil, nil, nil)

	if got := cfg.Queues[QueueEmail].MaxWorkers; got != 8 {
		t.Errorf("email queue workers = %d, want 8", got)
	}
	if got := cfg.Queues[QueuePhotos].MaxWorkers; got != 2 {
		t.Errorf("photo queue workers = %d, want 2", got)
	}
	if _, ok := cfg.Queues[river.QueueDefault]; !ok {
		t.Error("default queue missing")
	}
	if cfg.ErrorHandler != nil {
		t.Error("ErrorHandler set without a logger")
	}
}
