package jobs

import (
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/email"
	"github.com/hackbox-events/server/internal/photos"
)

// NewWorkers registers the email and photo workers.
func NewWorkers(sender email.Sender, store photos.Store, opts photos.Options, logger zerolog.Logger) *river.Workers {
	logger = logger.With().Str("component", "jobs").Logger()
	workers := river.NewWorkers()
	river.AddWorker[SendEmailArgs](workers, SendEmailWorker{Sender: sender, Logger: logger})
	river.AddWorker[CompressPhotoArgs](workers, CompressPhotoWorker{Store: store, Options: opts, Logger: logger})
	return workers
}
