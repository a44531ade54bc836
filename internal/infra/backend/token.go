package backend

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// userClaimKeys are the claims the backend has used for the user ID, in preference order.
var userClaimKeys = []string{"userId", "id", "_id", "sub"}

// UserIDFromToken reads the user ID from a bearer JWT without verifying its
// signature. The backend verifies tokens; this only labels attempts.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	for _, key := range userClaimKeys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", errors.New("token has no user claim")
}
