package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/riverqueue/river/rivertype"
)

func TestAlertingErrorHandlerMarksFinalAttempt(t *testing.T) {
	var got []Failure
	handler := NewAlertingErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), func(_ context.Context, f Failure) {
		got = append(got, f)
	})

	boom := errors.New("boom")
	handler.HandleError(context.Background(), &rivertype.JobRow{ID: 1, Kind: JobKindSendEmail, Queue: QueueEmail, Attempt: 1, MaxAttempts: 3}, boom)
	handler.HandleError(context.Background(), &rivertype.JobRow{ID: 1, Kind: JobKindSendEmail, Queue: QueueEmail, Attempt: 3, MaxAttempts: 3}, boom)

	if len(got) != 2 {
		t.Fatalf("alerts = %d, want 2", len(got))
	}
	if got[0].Final {
		t.Error("first attempt reported as final")
	}
	if !got[1].Final || !errors.Is(got[1].Err, boom) || got[1].Queue != QueueEmail {
		t.Errorf("final failure = %+v", got[1])
	}
}

func TestAlertingErrorHandlerPanics(t *testing.T) {
	var got Failure
	handler := NewAlertingErrorHandler(nil, func(_ context.Context, f Failure) { got = f })

	handler.HandlePanic(context.Background(), &rivertype.JobRow{ID: 9, Kind: JobKindCompressPhoto, Attempt: 1, MaxAttempts: 3}, "nil map", "trace")

	if got.JobID != 9 || got.Err == nil || got.Err.Error() != "panic: nil map" {
		t.Errorf("failure = %+v", got)
	}
}
