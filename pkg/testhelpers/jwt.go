package testhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pulse-labs/pulse-assistant/pkg/auth"
)

// TestSessionSecret is the shared signing secret used across handler and
// middleware tests. It matches what the test config wires into the server.
const TestSessionSecret = "test-session-secret"

// IssueSessionToken mints a signed session token for the given session,
// signed with TestSessionSecret. Tests that exercise authenticated routes
// pass the result in the Authorization header.
func IssueSessionToken(t *testing.T, sessionID uuid.UUID, model string) string {
	t.Helper()

	issuer := auth.NewTokenIssuer(TestSessionSecret, time.Hour)
	token, err := issuer.Issue(sessionID, model)
	if err != nil {
		t.Fatalf("failed to issue test session token: %v", err)
	}
	return token
}

// BearerSessionToken returns the token with the "Bearer " prefix for use
// directly as an Authorization header value.
func BearerSessionToken(t *testing.T, sessionID uuid.UUID, model string) string {
	t.Helper()
	return "Bearer " + IssueSessionToken(t, sessionID, model)
}
