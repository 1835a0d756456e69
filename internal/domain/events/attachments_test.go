package events_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackbox-events/server/internal/domain/events"
	"github.com/hackbox-events/server/internal/filestore"
	"github.com/hackbox-events/server/internal/validation"
)

func TestUploadReportSetsStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.createEvent(t, "Hack Night")

	updated, err := f.svc.UploadReport(ctx, event.ID, upload("report.pdf"))
	require.NoError(t, err)
	require.True(t, updated.Status)
	require.NotNil(t, updated.Report)
	require.Equal(t, "reports/f03-report.pdf", updated.Report.Path)

	_, err = f.svc.UploadReport(ctx, "missing", upload("report.pdf"))
	require.ErrorIs(t, err, events.ErrNotFound)

	_, err = f.svc.UploadReport(ctx, event.ID, nil)
	_, ok := validation.AsErrors(err)
	require.True(t, ok)
}

func TestUploadPhotosRecordsCompressedPaths(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.createEvent(t, "Hack Night")

	updated, err := f.svc.UploadPhotos(ctx, event.ID, []filestore.Upload{*upload("a.jpg"), *upload("b.jpg")})
	require.NoError(t, err)
	require.True(t, updated.IsPhotoUploaded)
	require.Equal(t, []events.Attachment{
		{Name: "f03-a.jpg", Path: "compressedPhotos/f03-a.jpg"},
		{Name: "f04-b.jpg", Path: "compressedPhotos/f04-b.jpg"},
	}, updated.Photos)
	require.Equal(t, [][2]string{
		{"photos/f03-a.jpg", "compressedPhotos/f03-a.jpg"},
		{"photos/f04-b.jpg", "compressedPhotos/f04-b.jpg"},
	}, f.compressor.pairs)

	// a second batch replaces the first
	updated, err = f.svc.UploadPhotos(ctx, event.ID, []filestore.Upload{*upload("c.jpg")})
	require.NoError(t, err)
	require.Len(t, updated.Photos, 1)
	require.Equal(t, "compressedPhotos/f05-c.jpg", updated.Photos[0].Path)
}

func TestUploadPhotosValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.createEvent(t, "Hack Night")

	_, err := f.svc.UploadPhotos(ctx, event.ID, nil)
	_, ok := validation.AsErrors(err)
	require.True(t, ok)

	_, err = f.svc.UploadPhotos(ctx, "missing", []filestore.Upload{*upload("a.jpg")})
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestUploadPhotosRejectsTooMany(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.createEvent(t, "Hack Night")
	saved := len(f.files.saved)

	batch := make([]filestore.Upload, events.MaxPhotosPerUpload+1)
	for i := range batch {
		batch[i] = *upload(fmt.Sprintf("p%02d.jpg", i))
	}
	_, err := f.svc.UploadPhotos(ctx, event.ID, batch)
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	require.Contains(t, errs.Fields(), "photos")
	require.Len(t, f.files.saved, saved)
	require.Empty(t, f.compressor.pairs)

	_, err = f.svc.UploadPhotos(ctx, event.ID, batch[:events.MaxPhotosPerUpload])
	require.NoError(t, err)
}

func eventWithAllAttachments(t *testing.T, f *fixture) *events.Event {
	t.Helper()
	ctx := context.Background()
	event := f.createEvent(t, "Hack Night")
	_, err := f.svc.UploadReport(ctx, event.ID, upload("report.pdf"))
	require.NoError(t, err)
	event, err = f.svc.UploadPhotos(ctx, event.ID, []filestore.Upload{*upload("a.jpg"), *upload("b.jpg")})
	require.NoError(t, err)
	return event
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := eventWithAllAttachments(t, f)
	other := f.createEvent(t, "Other")

	f.register(t, event.ID, "Asha", "a@x.com", "R1")
	f.register(t, event.ID, "Ben", "b@x.com", "R2")
	f.register(t, other.ID, "Asha", "a@x.com", "R1")

	result, err := f.svc.Delete(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 5, result.FilesAttempted)
	require.Empty(t, result.FileErrors)
	require.Empty(t, result.Warnings())
	require.EqualValues(t, 2, result.RegistrationsDeleted)

	require.ElementsMatch(t, []string{
		event.Banner.Path,
		event.Order.Path,
		event.Report.Path,
		"compressedPhotos/f04-a.jpg",
		"compressedPhotos/f05-b.jpg",
		"photos/f04-a.jpg",
		"photos/f05-b.jpg",
	}, f.files.deletedPaths())

	_, err = f.svc.Get(ctx, event.ID)
	require.ErrorIs(t, err, events.ErrNotFound)

	left, err := f.regs.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Empty(t, left)
	kept, err := f.regs.ListByEvent(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, kept, 1)
}

func TestDeleteContinuesPastFileErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := eventWithAllAttachments(t, f)
	f.files.failDel[event.Banner.Path] = errors.New("permission denied")
	f.files.failDel[event.Photos[0].Path] = errors.New("permission denied")

	result, err := f.svc.Delete(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 5, result.FilesAttempted)
	require.Len(t, f.files.deletedPaths(), 7)
	require.Len(t, result.FileErrors, 2)
	require.Len(t, result.Warnings(), 2)

	_, err = f.svc.Get(ctx, event.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestDeleteRemovesUncompressedOriginals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(d *events.Deps) { d.Photos = nil })
	event := f.createEvent(t, "Hack Night")
	event, err := f.svc.UploadPhotos(ctx, event.ID, []filestore.Upload{*upload("a.jpg")})
	require.NoError(t, err)
	f.files.failDel["photos/f03-a.jpg"] = errors.New("permission denied")

	result, err := f.svc.Delete(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 3, result.FilesAttempted)
	require.Empty(t, result.Warnings())
	require.Contains(t, f.files.deletedPaths(), "photos/f03-a.jpg")
	require.Contains(t, f.files.deletedPaths(), "compressedPhotos/f03-a.jpg")
}

func TestDeleteMissingEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, events.ErrNotFound)
	require.Empty(t, f.files.deletedPaths())
}

type failingRegistrations struct {
	events.Registrations
}

func (failingRegistrations) DeleteByEvent(context.Context, string) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestDeleteReportsRegistrationCleanupFailure(t *testing.T) {
	f := newFixture(t, func(d *events.Deps) {
		d.Registrations = failingRegistrations{Registrations: d.Registrations}
	})
	event := f.createEvent(t, "Hack Night")

	result, err := f.svc.Delete(context.Background(), event.ID)
	require.NoError(t, err)
	require.Error(t, result.RegistrationsErr)
	require.Contains(t, result.Warnings(), "registrations for this event were not deleted")
}
