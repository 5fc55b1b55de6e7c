// Package security holds the pure request-security primitives: the fixed
// response header set, the same-origin guard, and the storage key validator.
// Everything here is a pure function of its inputs; enforcement middleware
// that writes responses lives in the api package.
package security

import "net/http"

// ResponseHeaders is the fixed set of headers applied to every API response.
// API responses carry per-user data, so caching anywhere between the server
// and the browser is forbidden, and responses must never be interpreted as
// anything but their declared content type.
//
// Vary: Cookie keeps any intermediary that does cache from serving one
// user's response to another.
var ResponseHeaders = map[string]string{
	"Cache-Control":          "no-store, no-cache, must-revalidate, proxy-revalidate",
	"Pragma":                 "no-cache",
	"Expires":                "0",
	"X-Content-Type-Options": "nosniff",
	"Referrer-Policy":        "no-referrer",
	"Vary":                   "Cookie",
}

// ApplyHeaders sets the fixed security header set on h.
func ApplyHeaders(h http.Header) {
	for k, v := range ResponseHeaders {
		h.Set(k, v)
	}
}

// Headers is middleware that applies the fixed security header set to every
// response before the handler runs.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ApplyHeaders(w.Header())
		next.ServeHTTP(w, r)
	})
}
