package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs HS256 session tokens for login responses.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates an issuer. An empty secret gets a random per-run
// one, which is fine for a stub: tokens only need to look real to the
// client.
func NewTokenIssuer(secret string) *TokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		buf := make([]byte, 32)
		rand.Read(buf)
		key = []byte(hex.EncodeToString(buf))
	}
	return &TokenIssuer{secret: key}
}

// Issue signs a token for the given email, valid for 24 hours.
func (t *TokenIssuer) Issue(email string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss": "advisor-stub",
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the subject email.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	return sub, nil
}
