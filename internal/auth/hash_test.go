package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "secret123")

	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "secret124"))
	assert.False(t, CheckPassword(hash, ""))
}

func TestCheckPasswordRejectsGarbageHash(t *testing.T) {
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "secret123"))
}

func TestDigestSecret(t *testing.T) {
	d1 := DigestSecret("123456")
	d2 := DigestSecret("123456")
	d3 := DigestSecret("123457")

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	// hex-encoded SHA-256
	assert.Len(t, d1, 64)
	assert.Equal(t, strings.ToLower(d1), d1)
	assert.NotEqual(t, "123456", d1)
}
