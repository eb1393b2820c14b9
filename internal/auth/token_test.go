package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 15)

	raw, err := svc.Sign(42)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	id, ok := svc.Verify(raw)
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)
}

func TestTokenWrongSecret(t *testing.T) {
	raw, err := NewTokenService("secret-a", 15).Sign(7)
	require.NoError(t, err)

	_, ok := NewTokenService("secret-b", 15).Verify(raw)
	assert.False(t, ok)
}

func TestTokenTampered(t *testing.T) {
	svc := NewTokenService("test-secret", 15)
	raw, err := svc.Sign(7)
	require.NoError(t, err)

	// Flip the last character of the signature.
	last := raw[len(raw)-1]
	replacement := byte('A')
	if last == 'A' {
		replacement = 'B'
	}
	tampered := raw[:len(raw)-1] + string(replacement)

	_, ok := svc.Verify(tampered)
	assert.False(t, ok)
}

func TestTokenExpired(t *testing.T) {
	// Negative TTL produces a token that expired in the past.
	svc := NewTokenService("test-secret", -5)
	raw, err := svc.Sign(7)
	require.NoError(t, err)

	_, ok := svc.Verify(raw)
	assert.False(t, ok)
}

func TestTokenRejectsUnsignedAlgorithm(t *testing.T) {
	svc := NewTokenService("test-secret", 15)

	claims := jwt.MapClaims{
		"id":  float64(7),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, ok := svc.Verify(raw)
	assert.False(t, ok)
}

func TestTokenMissingIDClaim(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, ok := NewTokenService("test-secret", 15).Verify(raw)
	assert.False(t, ok)
}

func TestTokenGarbageInput(t *testing.T) {
	svc := NewTokenService("test-secret", 15)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, ok := svc.Verify(raw)
		assert.False(t, ok, "input %q should not verify", raw)
	}
}
