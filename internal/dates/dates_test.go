package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	got, ok := Parse("2025-03-12")
	require.True(t, ok)
	require.Equal(t, time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), got)

	got, ok = Parse("March 12, 2025")
	require.True(t, ok)
	require.Equal(t, 2025, got.Year())
	require.Equal(t, time.March, got.Month())
	require.Equal(t, 12, got.Day())

	_, ok = Parse("   ")
	require.False(t, ok)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "12 March 2025", Format("2025-03-12"))
	require.Equal(t, "", Format(""))
}
