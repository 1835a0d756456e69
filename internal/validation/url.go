package validation

import (
	"net/url"
	"strings"
)

// ValidateBaseURL checks that urlString is an absolute http(s) URL without
// path, query or fragment. Empty strings are accepted.
func ValidateBaseURL(urlString, fieldName string) error {
	if urlString == "" {
		return nil
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return FieldError{Field: fieldName, Message: "invalid URL format"}
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return FieldError{Field: fieldName, Message: "URL scheme must be http or https"}
	}
	if parsedURL.Host == "" {
		return FieldError{Field: fieldName, Message: "URL must include a host"}
	}
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return FieldError{Field: fieldName, Message: "base URL must not contain a path"}
	}
	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return FieldError{Field: fieldName, Message: "base URL must not contain query parameters or a fragment"}
	}
	return nil
}
