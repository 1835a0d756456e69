package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodySize bounds JSON request bodies.
	DefaultMaxBodySize int64 = 1 << 20

	multipartOverhead int64 = 64 << 10
)

// RequestSize wraps the body in http.MaxBytesReader. Handlers see a
// *http.MaxBytesError once the limit is crossed and answer 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UploadRequestSize sizes the limit for a multipart form carrying up to files
// parts of at most perFile bytes each.
func UploadRequestSize(perFile int64, files int) func(http.Handler) http.Handler {
	if files < 1 {
		files = 1
	}
	return RequestSize(perFile*int64(files) + multipartOverhead)
}
