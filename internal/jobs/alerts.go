package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// Failure describes one failed job attempt.
type Failure struct {
	JobID   int64
	Kind    string
	Queue   string
	Attempt int
	// Final is set when no attempts remain and the job will be discarded.
	Final bool
	Err   error
}

// AlertFunc is invoked when a job fails or panics.
type AlertFunc func(ctx context.Context, failure Failure)

// AlertingErrorHandler logs job failures and forwards them for alerting.
type AlertingErrorHandler struct {
	Logger *slog.Logger
	Notify AlertFunc
}

func NewAlertingErrorHandler(logger *slog.Logger, notify AlertFunc) *AlertingErrorHandler {
	return &AlertingErrorHandler{Logger: logger, Notify: notify}
}

func (h *AlertingErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	h.report(ctx, job, err, "job failed")
	return nil
}

func (h *AlertingErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	if h.Logger != nil {
		h.Logger.Debug("job panic trace", "job_id", job.ID, "trace", trace)
	}
	h.report(ctx, job, fmt.Errorf("panic: %v", panicVal), "job panicked")
	return nil
}

func (h *AlertingErrorHandler) report(ctx context.Context, job *rivertype.JobRow, err error, msg string) {
	failure := Failure{
		JobID:   job.ID,
		Kind:    job.Kind,
		Queue:   job.Queue,
		Attempt: job.Attempt,
		Final:   job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts,
		Err:     err,
	}
	if h.Logger != nil {
		h.Logger.Error(msg, "job_id", failure.JobID, "kind", failure.Kind, "queue", failure.Queue,
			"attempt", failure.Attempt, "final", failure.Final, "error", err)
	}
	if h.Notify != nil {
		h.Notify(ctx, failure)
	}
}
