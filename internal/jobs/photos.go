package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/filestore"
	"github.com/hackbox-events/server/internal/metrics"
	"github.com/hackbox-events/server/internal/photos"
)

type CompressPhotoArgs struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (CompressPhotoArgs) Kind() string { return JobKindCompressPhoto }

type CompressPhotoWorker struct {
	river.WorkerDefaults[CompressPhotoArgs]
	Store   photos.Store
	Options photos.Options
	Logger  zerolog.Logger
}

func (w CompressPhotoWorker) Work(ctx context.Context, job *river.Job[CompressPhotoArgs]) error {
	if job == nil {
		return fmt.Errorf("compress photo job missing")
	}
	if job.Args.Source == "" || job.Args.Target == "" {
		return river.JobCancel(fmt.Errorf("compress photo job needs source and target"))
	}

	err := photos.Compress(ctx, w.Store, job.Args.Source, job.Args.Target, w.Options)
	metrics.PhotosCompressed.WithLabelValues(metrics.Result(err)).Inc()
	if errors.Is(err, filestore.ErrNotFound) {
		// The event was deleted, or an earlier attempt already finished.
		return river.JobCancel(err)
	}
	if err != nil {
		return err
	}
	w.Logger.Debug().Str("target", job.Args.Target).Msg("photo compressed")
	return nil
}

// PhotoQueue is a PhotoCompressor that schedules compression as a job.
type PhotoQueue struct {
	client Inserter
	policy *RetryPolicy
}

func NewPhotoQueue(client Inserter, policy *RetryPolicy) *PhotoQueue {
	return &PhotoQueue{client: client, policy: policy}
}

func (q *PhotoQueue) CompressPhoto(ctx context.Context, source, target string) error {
	args := CompressPhotoArgs{Source: source, Target: target}
	if _, err := q.client.Insert(ctx, args, q.policy.InsertOpts(JobKindCompressPhoto, QueuePhotos)); err != nil {
		return fmt.Errorf("enqueue photo compression: %w", err)
	}
	return nil
}
