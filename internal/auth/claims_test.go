package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectAccessToken(t *testing.T) {
	exp := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		Issuer:    "linkstash",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any-key"))
	require.NoError(t, err)

	claims, err := InspectAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "linkstash", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, exp.Equal(*claims.ExpiresAt))
}

func TestInspectAccessToken_NoExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u-2"}).
		SignedString([]byte("k"))
	require.NoError(t, err)

	claims, err := InspectAccessToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestInspectAccessToken_Opaque(t *testing.T) {
	_, err := InspectAccessToken("opaque-token")
	assert.Error(t, err)
}
