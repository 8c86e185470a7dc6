package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifiesOriginal(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("pw123")
	require.NoError(t, err)
	require.NotEmpty(t, h)
	require.NotEqual(t, "pw123", h)

	require.True(t, CheckPassword(h, "pw123"))
}

func TestCheckPassword_RejectsWrongPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("pw123")
	require.NoError(t, err)

	require.False(t, CheckPassword(h, "pw124"))
	require.False(t, CheckPassword(h, ""))
}

func TestHashPassword_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("pw123")
	require.NoError(t, err)
	h2, err := HashPassword("pw123")
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
	require.True(t, CheckPassword(h1, "pw123"))
	require.True(t, CheckPassword(h2, "pw123"))
}
