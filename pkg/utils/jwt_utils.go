package utils

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTokenTTL = 24 * time.Hour
	tokenIssuer           = "recanto-verde-backend"
)

var (
	jwtMu        sync.RWMutex
	jwtSecretKey = []byte("change-me-recanto-verde-jwt-secret")
	jwtTTL       = DefaultAccessTokenTTL
)

// ErrEmptyJWTSecret is returned by ConfigureJWT for an empty secret.
var ErrEmptyJWTSecret = errors.New("jwt secret must not be empty")

// Claims defines the JWT claims structure
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"` // User role for authorization
	jwt.RegisteredClaims
}

// ConfigureJWT sets the signing secret and token lifetime. Call once at boot.
func ConfigureJWT(secret string, ttl time.Duration) error {
	if secret == "" {
		return ErrEmptyJWTSecret
	}
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecretKey = []byte(secret)
	if ttl > 0 {
		jwtTTL = ttl
	}
	return nil
}

// GenerateAccessToken creates a new JWT access token for a given user ID, email, and role.
func GenerateAccessToken(userID int64, email string, role string) (string, time.Time, error) {
	jwtMu.RLock()
	secret, ttl := jwtSecretKey, jwtTTL
	jwtMu.RUnlock()

	now := time.Now()
	expirationTime := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the claims if the token is valid, otherwise an error.
func ValidateToken(tokenString string) (*Claims, error) {
	jwtMu.RLock()
	secret := jwtSecretKey
	jwtMu.RUnlock()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
