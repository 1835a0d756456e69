package events

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hackbox-events/server/internal/filestore"
	"github.com/hackbox-events/server/internal/metrics"
	"github.com/hackbox-events/server/internal/validation"
)

const fileCleanupConcurrency = 4

// MaxPhotosPerUpload caps the photos accepted in one UploadPhotos call.
const MaxPhotosPerUpload = 20

// UploadReport attaches the post-event report and marks the report as
// submitted.
func (s *Service) UploadReport(ctx context.Context, id string, upload *filestore.Upload) (*Event, error) {
	if upload == nil || upload.Content == nil {
		return nil, validation.Required("report")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	file, err := s.deps.Files.Save(ctx, filestore.KindReport, *upload)
	if err != nil {
		return nil, err
	}
	event, err := s.repo.SetReport(ctx, id, Attachment{Name: file.Name, Path: file.Path})
	if err != nil {
		s.discard(ctx, file.Path)
		return nil, err
	}

	metrics.EventTransitions.WithLabelValues("report").Inc()
	s.logger.Info().Str("event_id", id).Str("path", file.Path).Msg("event report uploaded")
	return event, nil
}

// UploadPhotos replaces the event's photo set. Each photo is recorded at its
// compressed path; the compressor, when configured, is asked to produce it.
func (s *Service) UploadPhotos(ctx context.Context, id string, uploads []filestore.Upload) (*Event, error) {
	if len(uploads) == 0 {
		return nil, validation.Required("photos")
	}
	if len(uploads) > MaxPhotosPerUpload {
		var errs validation.Errors
		errs.Add("photos", fmt.Sprintf("at most %d photos per upload", MaxPhotosPerUpload))
		return nil, errs.Err()
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	stored := make([]filestore.File, 0, len(uploads))
	for _, upload := range uploads {
		file, err := s.deps.Files.Save(ctx, filestore.KindPhoto, upload)
		if err != nil {
			s.discard(ctx, storedPaths(stored)...)
			return nil, err
		}
		stored = append(stored, file)
	}

	photos := make([]Attachment, 0, len(stored))
	for _, file := range stored {
		photos = append(photos, Attachment{Name: file.Name, Path: filestore.CompressedPhotoPath(file.Path)})
	}
	event, err := s.repo.SetPhotos(ctx, id, photos)
	if err != nil {
		s.discard(ctx, storedPaths(stored)...)
		return nil, err
	}

	metrics.EventTransitions.WithLabelValues("photos").Inc()
	s.logger.Info().Str("event_id", id).Int("photos", len(photos)).Msg("event photos uploaded")

	if s.deps.Photos != nil {
		for i, file := range stored {
			if err := s.deps.Photos.CompressPhoto(ctx, file.Path, photos[i].Path); err != nil {
				s.logger.Warn().Err(err).Str("event_id", id).Str("path", file.Path).Msg("photo compression not scheduled")
			}
		}
	}
	return event, nil
}

func storedPaths(files []filestore.File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// FileError is a stored file that could not be removed.
type FileError struct {
	Path string
	Err  error
}

// DeleteResult reports the cleanup that followed an event deletion.
type DeleteResult struct {
	EventID              string
	FilesAttempted       int
	FileErrors           []FileError
	RegistrationsDeleted int64
	RegistrationsErr     error
}

// Warnings describes every cleanup step that failed.
func (r DeleteResult) Warnings() []string {
	warnings := make([]string, 0, len(r.FileErrors)+1)
	for _, fe := range r.FileErrors {
		warnings = append(warnings, fmt.Sprintf("file %s was not deleted", fe.Path))
	}
	if r.RegistrationsErr != nil {
		warnings = append(warnings, "registrations for this event were not deleted")
	}
	return warnings
}

// Delete removes the event record, then every file it references and every
// registration for it. Cleanup failures are collected in the result; the
// event itself is gone once Delete returns without error.
func (s *Service) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	event, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.EventTransitions.WithLabelValues("delete").Inc()

	// Cleanup proceeds even if the client goes away.
	ctx = context.WithoutCancel(ctx)
	paths := event.Files()
	result := &DeleteResult{EventID: id, FilesAttempted: len(paths)}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(fileCleanupConcurrency)
	for _, p := range paths {
		g.Go(func() error {
			err := s.deps.Files.Delete(ctx, p)
			metrics.FileDeletions.WithLabelValues(metrics.Result(err)).Inc()
			if err != nil {
				mu.Lock()
				result.FileErrors = append(result.FileErrors, FileError{Path: p, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	// Originals are gone once compression succeeds; anything still there was
	// never compressed.
	for _, photo := range event.Photos {
		original := filestore.OriginalPhotoPath(photo.Path)
		if original == photo.Path {
			continue
		}
		g.Go(func() error {
			if err := s.deps.Files.Delete(ctx, original); err != nil {
				s.logger.Debug().Err(err).Str("event_id", id).Str("path", original).Msg("original photo not deleted")
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, fe := range result.FileErrors {
		s.logger.Warn().Err(fe.Err).Str("event_id", id).Str("path", fe.Path).Msg("event file not deleted")
	}

	if s.deps.Registrations != nil {
		n, err := s.deps.Registrations.DeleteByEvent(ctx, id)
		if err != nil {
			result.RegistrationsErr = err
			s.logger.Error().Err(err).Str("event_id", id).Msg("registrations not deleted")
		}
		result.RegistrationsDeleted = n
	}

	s.logger.Info().
		Str("event_id", id).
		Int("files", result.FilesAttempted).
		Int("file_errors", len(result.FileErrors)).
		Int64("registrations_deleted", result.RegistrationsDeleted).
		Msg("event deleted")
	return result, nil
}
