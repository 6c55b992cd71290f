// Context helpers for extracting session information injected by the
// auth middleware. These simplify access for services that only need
// the session identity or the originating client address.
package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GetSessionIDFromContext extracts the assistant session ID from claims in the context.
// Returns uuid.Nil if not authenticated or the claims are missing.
// Use this when you can handle uuid.Nil gracefully.
func GetSessionIDFromContext(ctx context.Context) uuid.UUID {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil
	}

	return sessionID
}

// RequireSessionIDFromContext extracts the session ID from context and returns
// an error if not found. Use this when the session is required for the operation.
func RequireSessionIDFromContext(ctx context.Context) (uuid.UUID, error) {
	sessionID := GetSessionIDFromContext(ctx)
	if sessionID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("session ID not found in context")
	}
	return sessionID, nil
}

// WithClientIP returns a context carrying the originating client address.
// The middleware sets this from the HTTP request so downstream audit
// logging can attribute events without threading the address through
// every call signature.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPKey, ip)
}

// GetClientIPFromContext extracts the client address from the context.
// Returns empty string if not present.
func GetClientIPFromContext(ctx context.Context) string {
	ip, ok := ctx.Value(ClientIPKey).(string)
	if !ok {
		return ""
	}
	return ip
}
