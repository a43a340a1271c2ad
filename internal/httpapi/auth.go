package httpapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Auth validates candidate bearer tokens. The platform's auth service issues
// them; this engine only needs the candidate id from the subject claim.
type Auth struct {
	secret []byte
}

// NewAuth creates a validator over a shared HMAC secret.
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// CandidateID parses and validates the token, returning the candidate id.
func (a *Auth) CandidateID(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// Sign issues a candidate token. Used by tests and the local dev loop; in
// production the auth service signs with the same secret.
func (a *Auth) Sign(candidateID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   candidateID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
