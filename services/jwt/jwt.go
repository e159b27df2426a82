package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const (
	AccessTokenValidity  = time.Hour * 24
	RefreshTokenValidity = time.Hour * 24 * 7
)

// GenerateTokenPair returns a signed access and refresh token for the user.
func GenerateTokenPair(email string, secret string, userID uuid.UUID) (string, string, error) {
	accessToken, err := GenerateToken(email, secret, userID, AccessTokenValidity)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := GenerateToken(email, secret, userID, RefreshTokenValidity)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// GenerateToken signs a token carrying the user's id and email.
func GenerateToken(email string, secret string, userID uuid.UUID, validity time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	claims := jwt.MapClaims{
		"id":    userID.String(),
		"email": email,
		"exp":   time.Now().Add(validity).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims parses and verifies the token and returns its claims.
func ValidateAndGetClaims(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
