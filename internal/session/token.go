package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether a stored bearer token has already expired,
// using an unverified parse of its exp claim. The backend owns signature
// validation; this only avoids a doomed round trip on restore. Tokens that
// cannot be parsed or carry no exp claim are left for the backend to judge.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
