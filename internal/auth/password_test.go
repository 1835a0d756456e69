package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hash)

	require.NoError(t, CheckPassword(hash, "correct horse"))
	require.ErrorIs(t, CheckPassword(hash, "battery staple"), ErrPasswordMismatch)
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, pw, generatedPasswordLength)
		for _, r := range pw {
			require.Contains(t, passwordAlphabet, string(r))
		}
		seen[pw] = true
	}
	require.Len(t, seen, 20)
}

func TestRolesNormalizeAndParse(t *testing.T) {
	require.Equal(t, RoleAdmin, NormalizeRole(" Admin "))
	require.Equal(t, RoleMember, NormalizeRole("superuser"))

	_, ok := ParseRole("superuser")
	require.False(t, ok)
	role, ok := ParseRole("CONVENOR")
	require.True(t, ok)
	require.Equal(t, RoleConvenor, role)
}
