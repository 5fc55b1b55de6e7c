package security

import (
	"net/http"
	"net/url"
)

// IsSameOrigin reports whether a request's Origin header matches its Host.
//
// Requests without an Origin header are allowed: server-to-server clients
// (CLI, cron, webhooks) never send one, and rejecting them would break every
// non-browser integration. This is a deliberate trade-off, not an oversight;
// browsers always attach Origin to cross-site state-changing requests, which
// is the attack this guard exists for.
//
// When Origin is present, anything that prevents a positive match fails the
// check: missing Host, an unparsable Origin, or a host mismatch.
func IsSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	host := r.Host
	if host == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	return u.Host == host
}

// IsStateChanging reports whether the method requires the same-origin check.
// GET/HEAD/OPTIONS are exempt per the CSRF usage contract.
func IsStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
