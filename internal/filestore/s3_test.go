package filestore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeS3 answers path-style object requests for a single bucket.
type fakeS3 struct {
	mu      sync.Mutex
	puts    map[string]string // key -> content type
	deletes []string
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/uploads/")
	switch r.Method {
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.puts[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		w.Header().Set("Content-Length", "")
		_, _ = w.Write(body)
	case http.MethodDelete:
		f.deletes = append(f.deletes, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Store(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{puts: map[string]string{}, objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "uploads",
		Region:    "auto",
		Endpoint:  server.URL,
		AccessKey: "test",
		SecretKey: "test",
	}, DefaultPolicies(1<<20, 1<<20))
	require.NoError(t, err)
	return store, fake
}

func TestS3StoreSaveAndDelete(t *testing.T) {
	store, fake := newFakeS3Store(t)
	ctx := context.Background()

	file, err := store.Save(ctx, KindReport, Upload{Filename: "report.pdf", Content: bytes.NewReader(pdfBytes)})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(file.Path, "reports/"))

	fake.mu.Lock()
	require.Equal(t, "application/pdf", fake.puts[file.Path])
	fake.mu.Unlock()

	require.NoError(t, store.Delete(ctx, file.Path))
	fake.mu.Lock()
	require.Equal(t, []string{file.Path}, fake.deletes)
	fake.mu.Unlock()
}

func TestS3StoreOpenMissingObject(t *testing.T) {
	store, _ := newFakeS3Store(t)
	_, err := store.Open(context.Background(), "photos/missing.jpg")
	require.ErrorIs(t, err, ErrNotFound)
}
