package encryption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/calsync/internal/domain"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewCipher(t *testing.T) {
	t.Run("accepts 64 hex chars", func(t *testing.T) {
		c, err := NewCipher(testKey)
		require.NoError(t, err)
		assert.True(t, c.IsConfigured())
	})

	t.Run("empty key disables cipher", func(t *testing.T) {
		c, err := NewCipher("")
		require.NoError(t, err)
		assert.False(t, c.IsConfigured())

		_, err = c.Encrypt("token")
		assert.ErrorIs(t, err, domain.ErrEncryptionNotConfigured)
	})

	t.Run("rejects non-hex", func(t *testing.T) {
		_, err := NewCipher(strings.Repeat("z", 64))
		assert.Error(t, err)
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := NewCipher("0011")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "256 bits")
	})
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("ya29.access-token")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "ya29")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", plain)
}

func TestCipher_FreshNoncePerValue(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCipher_EmptyValue(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Nil(t, sealed)

	plain, err := c.Decrypt(nil)
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestCipher_DecryptFailures(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		sealed, err := c.Encrypt("secret")
		require.NoError(t, err)

		other, err := NewCipher(strings.Repeat("ab", 32))
		require.NoError(t, err)

		_, err = other.Decrypt(sealed)
		assert.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := c.Decrypt([]byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrCiphertextTooShort)
	})

	t.Run("tampered", func(t *testing.T) {
		sealed, err := c.Encrypt("secret")
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff

		_, err = c.Decrypt(sealed)
		assert.Error(t, err)
	})
}
