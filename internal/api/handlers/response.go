package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/hackbox-events/server/internal/api/problem"
	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/events"
	"github.com/hackbox-events/server/internal/domain/registrations"
	"github.com/hackbox-events/server/internal/filestore"
	"github.com/hackbox-events/server/internal/validation"
)

const (
	alreadyRegisteredMsg = "You Have Already Registered for this event!"

	// multipartMemory is held in memory per form; larger parts spill to disk.
	multipartMemory = 8 << 20
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, env string, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Payload too large",
			fmt.Errorf("request body exceeds %d bytes", maxErr.Limit), env)
		return
	}
	if errs, ok := validation.AsErrors(err); ok {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithErrors(errs.Fields()))
		return
	}

	switch {
	case errors.Is(err, registrations.ErrAlreadyRegistered):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeConflict, "Already registered", err, env,
			problem.WithDetail(alreadyRegisteredMsg), problem.WithMsg(alreadyRegisteredMsg))
	case errors.Is(err, events.ErrNotFound),
		errors.Is(err, events.ErrProblemStatementNotFound),
		errors.Is(err, events.ErrSubmissionNotFound),
		errors.Is(err, registrations.ErrEventNotFound),
		errors.Is(err, accounts.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env)
	case errors.Is(err, accounts.ErrInvalidCredentials):
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
	case errors.Is(err, accounts.ErrEmailTaken):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Conflict", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

// decodeJSON reads a single JSON object. An empty body decodes to the zero
// value so that validation reports the missing fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return validation.Errors{{Field: "body", Message: "invalid JSON: " + err.Error()}}
	}
	return nil
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.PathValue(key))
}

// multipartForm parses the request as multipart/form-data and keeps the
// opened parts so they can be closed once the handler is done.
type multipartForm struct {
	r     *http.Request
	files []multipart.File
}

func parseMultipart(r *http.Request) (*multipartForm, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, validation.Errors{{Field: "body", Message: "expected multipart/form-data"}}
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, validation.Errors{{Field: "body", Message: "malformed multipart form"}}
	}
	return &multipartForm{r: r}, nil
}

func (f *multipartForm) value(key string) string {
	return strings.TrimSpace(f.r.FormValue(key))
}

// upload returns the first file under field, or nil when none was sent.
func (f *multipartForm) upload(field string) (*filestore.Upload, error) {
	uploads, err := f.uploads(field)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func (f *multipartForm) uploads(field string) ([]filestore.Upload, error) {
	if f.r.MultipartForm == nil {
		return nil, nil
	}
	headers := f.r.MultipartForm.File[field]
	out := make([]filestore.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s upload: %w", field, err)
		}
		f.files = append(f.files, file)
		out = append(out, filestore.Upload{Filename: header.Filename, Content: file})
	}
	return out, nil
}

func (f *multipartForm) Close() {
	for _, file := range f.files {
		_ = file.Close()
	}
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}
