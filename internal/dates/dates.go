// Package dates reads the free-text dates organizers type into event forms.
package dates

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

var parserConfig = &dateparser.Configuration{
	Languages: []string{"en"},
	DateOrder: dateparser.DMY,
}

// Parse reads values such as "2025-03-12", "12/03/2025", "March 12, 2025" or
// "12th Mar 2025". Ambiguous numeric dates are read day first.
func Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	parsed, err := dateparser.Parse(parserConfig, value)
	if err != nil || parsed.Time.IsZero() {
		return time.Time{}, false
	}
	return parsed.Time, true
}

// Format renders value as "2 January 2006" when it parses and returns the
// trimmed input otherwise.
func Format(value string) string {
	if t, ok := Parse(value); ok {
		return t.Format("2 January 2006")
	}
	return strings.TrimSpace(value)
}
