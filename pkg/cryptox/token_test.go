package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{TokenSize128, TokenSize256, TokenSize512, 24} {
		token, err := GenerateToken(size)
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, size)

		again, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEqual(t, token, again)
	}
}

func TestGenerateTokenInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := GenerateToken(size)
		require.Error(t, err)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp := FingerprintToken("refresh-token-value")
	require.Len(t, fp, 43) // base64url of 32 bytes, no padding

	require.Equal(t, fp, FingerprintToken("refresh-token-value"))
	require.NotEqual(t, fp, FingerprintToken("refresh-token-other"))
}
