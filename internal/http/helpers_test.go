package http

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"account-auth/internal/auth"
)

func jwtWithPastExpiry(userID string) (string, error) {
	past := time.Now().Add(-2 * time.Hour)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		UserID: userID,
	}).SignedString([]byte("test-secret"))
}
