package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reads the exp claim without verifying the signature.
// Opaque (non-JWT) tokens and tokens without exp never expire here;
// the API remains the authority.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
