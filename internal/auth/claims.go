package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the informational subset of a JWT access token.
type AccessTokenClaims struct {
	Subject   string
	Issuer    string
	ExpiresAt *time.Time
}

// InspectAccessToken decodes the claims of a JWT access token WITHOUT
// verifying its signature. The result is for display only and must never be
// used for an authorization decision; the backend remains the sole judge of
// token validity.
func InspectAccessToken(token string) (AccessTokenClaims, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return AccessTokenClaims{}, fmt.Errorf("access token is not a readable JWT: %w", err)
	}

	out := AccessTokenClaims{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		out.ExpiresAt = &exp
	}
	return out, nil
}
