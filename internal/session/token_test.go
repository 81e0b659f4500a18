package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return s
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	t.Run("Expired", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"sub": "uid", "exp": now.Add(-time.Hour).Unix()})
		if !TokenExpired(tok, now) {
			t.Error("Expected token with past exp to report expired")
		}
	})

	t.Run("Valid", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"sub": "uid", "exp": now.Add(time.Hour).Unix()})
		if TokenExpired(tok, now) {
			t.Error("Expected token with future exp to report not expired")
		}
	})

	t.Run("NoExpClaim", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"sub": "uid"})
		if TokenExpired(tok, now) {
			t.Error("Expected token without exp to be left for the backend")
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if TokenExpired("not-a-jwt", now) {
			t.Error("Expected unparseable token to be left for the backend")
		}
	})
}
