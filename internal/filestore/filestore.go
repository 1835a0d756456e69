// Package filestore keeps uploaded attachments (banners, orders, reports,
// photos, submissions) on local disk or in an S3-compatible bucket.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hackbox-events/server/internal/domain/ids"
	"github.com/hackbox-events/server/internal/validation"
)

// Kind is the category of an upload; it is also the first path segment of
// every stored file.
type Kind string

const (
	KindBanner          Kind = "banners"
	KindOrder           Kind = "orders"
	KindReport          Kind = "reports"
	KindPhoto           Kind = "photos"
	KindCompressedPhoto Kind = "compressedPhotos"
	KindSubmission      Kind = "submissions"
)

var ErrNotFound = errors.New("file not found")

// Upload is an incoming file as received from a client.
type Upload struct {
	Filename string
	Content  io.Reader
}

// File is a stored upload. Name is the generated file name and Path the
// store-relative location.
type File struct {
	Name        string
	Path        string
	Size        int64
	ContentType string
}

// Store is implemented by the local and S3 backends. Delete is idempotent:
// removing a missing path is not an error.
type Store interface {
	Save(ctx context.Context, kind Kind, upload Upload) (File, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Write(ctx context.Context, path string, content io.Reader) error
	Delete(ctx context.Context, path string) error
}

// backend is the raw object storage a policyStore writes through.
type backend interface {
	put(ctx context.Context, key string, content []byte, contentType string) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// Policy limits what may be stored under a kind.
type Policy struct {
	MaxBytes int64
	// Allowed lists accepted MIME types as detected from content.
	Allowed []string
}

func (p Policy) allows(mtype *mimetype.MIME) bool {
	for _, allowed := range p.Allowed {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

// DefaultPolicies accept PDFs for documents and common images for banners and
// photos.
func DefaultPolicies(maxDocumentBytes, maxImageBytes int64) map[Kind]Policy {
	pdf := []string{"application/pdf"}
	images := []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	return map[Kind]Policy{
		KindBanner:     {MaxBytes: maxImageBytes, Allowed: images},
		KindOrder:      {MaxBytes: maxDocumentBytes, Allowed: pdf},
		KindReport:     {MaxBytes: maxDocumentBytes, Allowed: pdf},
		KindPhoto:      {MaxBytes: maxImageBytes, Allowed: images},
		KindSubmission: {MaxBytes: maxDocumentBytes, Allowed: pdf},
	}
}

// policyStore applies upload policies and naming on top of a backend.
type policyStore struct {
	backend
	policies map[Kind]Policy
}

func (s *policyStore) Save(ctx context.Context, kind Kind, upload Upload) (File, error) {
	field := string(kind)
	if upload.Content == nil {
		return File{}, validation.Required(field)
	}
	policy, ok := s.policies[kind]
	if !ok {
		return File{}, fmt.Errorf("no upload policy for %q", kind)
	}

	content, err := io.ReadAll(io.LimitReader(upload.Content, policy.MaxBytes+1))
	if err != nil {
		return File{}, fmt.Errorf("read upload: %w", err)
	}
	if len(content) == 0 {
		return File{}, validation.Errors{{Field: field, Message: "file is empty"}}
	}
	if int64(len(content)) > policy.MaxBytes {
		return File{}, validation.Errors{{Field: field, Message: fmt.Sprintf("file exceeds %d bytes", policy.MaxBytes)}}
	}
	mtype := mimetype.Detect(content)
	if !policy.allows(mtype) {
		return File{}, validation.Errors{{Field: field, Message: fmt.Sprintf("file type %s is not allowed", mtype.String())}}
	}

	name, err := storedName(upload.Filename, mtype)
	if err != nil {
		return File{}, err
	}
	key := path.Join(string(kind), name)
	if err := s.put(ctx, key, content, mtype.String()); err != nil {
		return File{}, fmt.Errorf("store %s: %w", key, err)
	}
	return File{Name: name, Path: key, Size: int64(len(content)), ContentType: mtype.String()}, nil
}

func (s *policyStore) Write(ctx context.Context, p string, content io.Reader) error {
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	return s.put(ctx, key, data, mimetype.Detect(data).String())
}

// storedName is a random hex name with the extension of the detected type,
// falling back to the client's lower-cased extension.
func storedName(original string, mtype *mimetype.MIME) (string, error) {
	random, err := ids.RandomHex(16)
	if err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}
	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(original, "\\", "/"))))
	}
	return random + ext, nil
}

// cleanKey rejects absolute and escaping paths.
func cleanKey(p string) (string, error) {
	key := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if key == "." || strings.HasPrefix(key, "/") || key == ".." || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("invalid file path %q", p)
	}
	return key, nil
}

// CompressedPhotoPath maps a stored photo path to where its compressed copy
// lives: the first "photos" segment becomes "compressedPhotos".
func CompressedPhotoPath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if seg == string(KindPhoto) {
			segments[i] = string(KindCompressedPhoto)
			return strings.Join(segments, "/")
		}
	}
	return p
}

// OriginalPhotoPath is the inverse of CompressedPhotoPath.
func OriginalPhotoPath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if seg == string(KindCompressedPhoto) {
			segments[i] = string(KindPhoto)
			return strings.Join(segments, "/")
		}
	}
	return p
}

// ReadAll opens p and returns its full content.
func ReadAll(ctx context.Context, s Store, p string) ([]byte, error) {
	rc, err := s.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return buf.Bytes(), nil
}
