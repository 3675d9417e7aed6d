package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_Roundtrip(t *testing.T) {
	creds, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.Len(t, creds.Salt, saltLen)
	assert.Len(t, creds.Digest, pbkdf2KeyLen)

	assert.True(t, verifyPassword("s3cret", creds))
	assert.False(t, verifyPassword("s3cret ", creds))
	assert.False(t, verifyPassword("", creds))
}

func TestHashPassword_SaltIsUnique(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.Digest, second.Digest)
}
