package auth

import (
	"net/url"
	"strings"
)

// CookieSettings contains cookie security settings derived from base URL.
type CookieSettings struct {
	// Secure indicates whether the cookie should only be sent over HTTPS.
	Secure bool
	// Domain is the cookie domain scope (e.g., ".pulselabs.ai" for cross-subdomain sharing).
	Domain string
}

// DeriveCookieSettings automatically determines cookie security settings from base URL.
// This supports the hosting scenarios we deploy to:
//   - Local development (http://localhost:8080) → Secure: false, Domain: ""
//   - Hosted dashboard (https://assistant.pulselabs.ai) → Secure: true, Domain: ".pulselabs.ai"
//   - Customer internal network (https://assistant.internal) → Secure: true, Domain: ".internal"
func DeriveCookieSettings(baseURL string) CookieSettings {
	parsedURL, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		// Safe defaults for invalid URLs
		return CookieSettings{Secure: true, Domain: ""}
	}

	secure := parsedURL.Scheme != "http"
	hostname := parsedURL.Hostname()

	var domain string
	switch {
	case hostname == "localhost" || hostname == "127.0.0.1":
		// Localhost: no domain restriction, allow HTTP
		domain = ""
	case strings.HasSuffix(hostname, ".pulselabs.ai"):
		// Hosted dashboard: share across pulselabs subdomains
		domain = ".pulselabs.ai"
	case strings.HasSuffix(hostname, ".internal"):
		// Customer internal network: share across internal subdomains
		domain = ".internal"
	default:
		// Unknown domain (custom hosting, etc): isolate to specific hostname
		domain = ""
	}

	return CookieSettings{
		Secure: secure,
		Domain: domain,
	}
}
