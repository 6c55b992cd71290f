package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuerName is the iss claim stamped on every session token.
const TokenIssuerName = "pulse-assistant"

// TokenIssuer mints and validates HS256 session tokens.
// The signing key is derived from a passphrase with SHA-256, so any
// secret string works and stays consistent across restarts as long as
// the configured secret does.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

// NewTokenIssuer creates a token issuer from a shared secret and a session TTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	// Hash the secret to get a consistent 32-byte key
	key := sha256.Sum256([]byte(secret))
	return &TokenIssuer{key: key[:], ttl: ttl}
}

// Issue signs a new session token for the given assistant session.
// The token expires after the issuer's TTL.
func (i *TokenIssuer) Issue(sessionID uuid.UUID, model string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		SessionID: sessionID.String(),
		Model:     model,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate verifies a session token's signature and expiry and returns its claims.
func (i *TokenIssuer) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Session tokens are always HMAC-signed; reject anything else
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	if claims.SessionID == "" {
		return nil, errors.New("token carries no session ID")
	}

	return claims, nil
}
