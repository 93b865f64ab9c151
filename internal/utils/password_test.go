package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Low cost keeps the test fast; production cost comes from config.
const testCost = 4

func TestHashPasswordSaltsEachDigest(t *testing.T) {
	h1, err := HashPassword("hunter2", testCost)
	require.NoError(t, err)
	h2, err := HashPassword("hunter2", testCost)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "same secret must never produce the same digest twice")
	assert.True(t, VerifyPassword(h1, "hunter2"))
	assert.True(t, VerifyPassword(h2, "hunter2"))
}

func TestVerifyPasswordRejectsWrongSecret(t *testing.T) {
	h, err := HashPassword("correct horse", testCost)
	require.NoError(t, err)

	assert.False(t, VerifyPassword(h, "battery staple"))
	assert.False(t, VerifyPassword(h, ""))
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	for _, digest := range []string{"", "not-a-bcrypt-hash", "$2a$garbage"} {
		assert.False(t, VerifyPassword(digest, "anything"), "digest=%q", digest)
	}
}
