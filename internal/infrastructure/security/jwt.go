// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateCreatorToken creates a JWT for an authenticated creator or admin.
func GenerateCreatorToken(creatorID, role, tenantID, jwtSecret string) (string, error) {
	claims := jwt.MapClaims{
		"creatorId": creatorID,
		"role":      role,
		"tenantId":  tenantID,
		"type":      "creator_auth",
		"iat":       time.Now().UTC().Unix(),
		"exp":       time.Now().UTC().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// GetCreatorFromClaims extracts the creator identity from JWT claims.
// Returns empty strings when the token is not a creator auth token.
func GetCreatorFromClaims(claims jwt.MapClaims) (creatorID, role string) {
	if tokenType, ok := claims["type"].(string); !ok || tokenType != "creator_auth" {
		return "", ""
	}
	creatorID, _ = claims["creatorId"].(string)
	role, _ = claims["role"].(string)
	return creatorID, role
}
