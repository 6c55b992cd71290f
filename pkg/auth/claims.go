// Package auth provides session authentication for pulse-assistant.
// Sessions are minted locally when a client logs in with an OpenAI API key:
// the server issues a signed HS256 token that names the assistant session,
// while the key itself never leaves the server-side session registry.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing session claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw session token string.
	TokenKey contextKey = "token"
	// ClientIPKey is the context key for storing the originating client address.
	ClientIPKey contextKey = "client_ip"
)

// SessionClaims represents the claims carried by a session token.
// It embeds RegisteredClaims for standard fields (sub, iss, exp, etc.)
// and adds the assistant session identity.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`           // Assistant session UUID
	Model     string `json:"mdl,omitempty"` // Model the session was opened with
}

// GetClaims retrieves session claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*SessionClaims)
	return claims, ok
}

// GetToken retrieves the raw session token string from the request context.
// Returns empty string and false if token is not present.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}
