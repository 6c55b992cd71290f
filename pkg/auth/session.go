package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

// Store is the cookie session store for browser clients.
// It carries the signed session token between requests so the chat UI
// does not have to manage Authorization headers.
var Store *sessions.CookieStore

// SessionName is the name of the browser session cookie.
const SessionName = "pulse-session"

// SessionKeyToken is the session value key holding the signed session token.
const SessionKeyToken = "token"

// InitSessionStore initializes the cookie-based session store for
// browser clients.
//
// The secret parameter is used to sign session cookies. It can be any
// passphrase - it will be SHA-256 hashed to derive a 32-byte key.
// The secret must be consistent across server restarts and multiple
// servers in a load-balanced deployment.
//
// maxAgeSeconds bounds how long the browser keeps the cookie; the
// session token inside carries its own expiry as well.
//
// Security settings:
// - HttpOnly: true (inaccessible to JavaScript)
// - Secure: from cookie settings (HTTPS only outside localhost)
// - SameSite: Strict (prevents CSRF)
func InitSessionStore(secret string, maxAgeSeconds int, settings CookieSettings) {
	// Hash the secret to get a consistent 32-byte key
	key := sha256.Sum256([]byte(secret))

	Store = sessions.NewCookieStore(key[:])
	Store.Options = &sessions.Options{
		Path:     "/",
		Domain:   settings.Domain,
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// GetSession retrieves the browser session from the request.
// Creates a new session if one doesn't exist.
func GetSession(r *http.Request) (*sessions.Session, error) {
	return Store.Get(r, SessionName)
}

// SaveSession saves the session to the response.
func SaveSession(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	return session.Save(r, w)
}

// TokenFromSession extracts the signed session token from the browser
// cookie session. Returns false if the store is uninitialized, the
// cookie is absent or tampered with, or no token was saved.
func TokenFromSession(r *http.Request) (string, bool) {
	if Store == nil {
		return "", false
	}

	session, err := Store.Get(r, SessionName)
	if err != nil {
		return "", false
	}

	token, ok := session.Values[SessionKeyToken].(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// ClearSessionValues removes the token from the session.
// Called on logout.
func ClearSessionValues(session *sessions.Session) {
	delete(session.Values, SessionKeyToken)
}
