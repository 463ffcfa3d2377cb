package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h := NewPasswordHasher()

	encoded, err := h.Hash("hunter2")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))
	assert.True(t, h.Verify(encoded, "hunter2"))
	assert.False(t, h.Verify(encoded, "wrong-password"))
}

func TestHashIsSalted(t *testing.T) {
	h := NewPasswordHasher()

	first, err := h.Hash("hunter2")
	require.NoError(t, err)
	second, err := h.Hash("hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "same password must hash differently")
}

func TestVerifyRejectsMalformed(t *testing.T) {
	h := NewPasswordHasher()

	assert.False(t, h.Verify("", "hunter2"))
	assert.False(t, h.Verify("not-a-hash", "hunter2"))
	assert.False(t, h.Verify("$argon2id$v=19$garbage", "hunter2"))
}

func TestIsHash(t *testing.T) {
	h := NewPasswordHasher()

	encoded, err := h.Hash("hunter2")
	require.NoError(t, err)

	assert.True(t, h.IsHash(encoded))
	assert.False(t, h.IsHash("hunter2"))
	assert.False(t, h.IsHash(""))
}
