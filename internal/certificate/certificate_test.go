package certificate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateProducesPDF(t *testing.T) {
	gen := NewGenerator("")
	require.Equal(t, "Team Hackbox", gen.Issuer)

	pdf, err := gen.Generate("Asha Rao", "Hackbox 2025", "2025-03-12")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	require.Greater(t, len(pdf), 500)
}

func TestGenerateHandlesAccentedNames(t *testing.T) {
	pdf, err := NewGenerator("Tech Committee").Generate("José Müller", "Café Hack", "")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestGenerateRequiresRecipient(t *testing.T) {
	_, err := NewGenerator("x").Generate("   ", "Hackbox", "2025-03-12")
	require.ErrorIs(t, err, ErrMissingRecipient)
}
