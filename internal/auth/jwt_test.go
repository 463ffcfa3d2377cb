package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTCreateAndVerify(t *testing.T) {
	svc := NewJWTService(testKey)

	token, err := svc.CreateToken(42, "alice@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestJWTExpiredToken(t *testing.T) {
	svc := NewJWTService(testKey)

	token, err := svc.CreateToken(42, "alice@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService(testKey)
	other := NewJWTService([]byte("a-completely-different-secret-key"))

	token, err := svc.CreateToken(42, "alice@example.com", time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsMalformed(t *testing.T) {
	svc := NewJWTService(testKey)

	_, err := svc.VerifyToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
