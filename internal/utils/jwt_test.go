package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken_ClaimsRoundTrip(t *testing.T) {
	const secret = "test-secret"
	at, err := NewAccessToken(secret, "guest@example.com", "Ada Lovelace", RoleGuest, 30)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), at.Exp, 5*time.Second)

	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "guest@example.com", claims["sub"])
	assert.Equal(t, "Ada Lovelace", claims["name"])
	assert.Equal(t, RoleGuest, claims["role"])
}

func TestNewAccessToken_RejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken("right", "guest@example.com", "Guest", RoleAdmin, 30)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	})
	assert.Error(t, err)
}

func TestCredentialHashing(t *testing.T) {
	hash, err := HashCredential("BlueFalcon42", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "BlueFalcon42", hash)

	assert.True(t, VerifyCredential(hash, "BlueFalcon42"))
	assert.False(t, VerifyCredential(hash, "bluefalcon42"))
	assert.False(t, VerifyCredential(hash, ""))
}
