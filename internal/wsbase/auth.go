package wsbase

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// IsAuthorizedRequest checks the request against the configured token. An
// empty configured token disables auth entirely. Tokens may arrive as a
// Bearer header or a ?token= query parameter (browsers cannot set headers on
// WebSocket dials).
func IsAuthorizedRequest(token string, r *http.Request) bool {
	expected := strings.TrimSpace(token)
	if expected == "" {
		return true
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		if bearer, ok := strings.CutPrefix(auth, "Bearer "); ok {
			if TokensEqual(expected, strings.TrimSpace(bearer)) {
				return true
			}
		}
	}

	if q := r.URL.Query().Get("token"); q != "" {
		if TokensEqual(expected, strings.TrimSpace(q)) {
			return true
		}
	}

	return false
}

// TokensEqual compares two tokens in constant time. Empty tokens never match.
func TokensEqual(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
