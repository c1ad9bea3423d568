package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	SessionID uuid.UUID
	Phone     string
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Phone     string `json:"phone"`
}

func GenerateToken(sessionID uuid.UUID, phone string, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   phone,
		},
		SessionID: sessionID.String(),
		Phone:     phone,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ValidateToken: invalid token claims")
	}

	sessionID, err := uuid.Parse(tc.SessionID)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid sid in token: %w", err)
	}

	claims := &Claims{SessionID: sessionID, Phone: tc.Phone}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}
	return claims, nil
}
