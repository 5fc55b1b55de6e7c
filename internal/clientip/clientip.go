// Package clientip extracts the real client IP behind the edge/proxy layers
// this service is deployed under (CDN in front, reverse proxy at the origin).
package clientip

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

type contextKey struct{}

var clientIPKey = contextKey{}

// trustedHeaders, highest priority first. Only headers an edge layer is
// responsible for setting; anything the client can set directly is excluded
// from Primary but still folded into the composite key.
var trustedHeaders = []string{
	"CF-Connecting-IP", // Cloudflare edge
	"True-Client-IP",   // Akamai / Cloudflare Enterprise
	"X-Real-IP",        // nginx reverse proxy
}

// Info contains extracted client IP information.
type Info struct {
	// Primary is the most trusted single IP, for logging and audit lines.
	Primary string

	// RateLimitKey is a composite of every IP seen on the request. A spoofed
	// header changes the key but RemoteAddr always anchors it, so an attacker
	// cannot escape their own bucket by rotating forged headers alone.
	RateLimitKey string
}

// Middleware extracts client IPs, rewrites r.RemoteAddr to the primary IP,
// and stores Info in context for the rate limiter and audit logging.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := extract(r)
		r.RemoteAddr = info.Primary
		ctx := context.WithValue(r.Context(), clientIPKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext retrieves Info from context. Returns zero Info if the
// middleware did not run.
func FromContext(ctx context.Context) Info {
	if info, ok := ctx.Value(clientIPKey).(Info); ok {
		return info
	}
	return Info{}
}

// FromRequest is a convenience wrapper around FromContext.
func FromRequest(r *http.Request) Info {
	return FromContext(r.Context())
}

func extract(r *http.Request) Info {
	all := make(map[string]bool)

	remoteIP := stripPort(r.RemoteAddr)
	if remoteIP != "" {
		all[remoteIP] = true
	}

	var primary string
	for _, h := range trustedHeaders {
		if ip := strings.TrimSpace(r.Header.Get(h)); ip != "" {
			all[ip] = true
			if primary == "" {
				primary = ip
			}
		}
	}

	// X-Forwarded-For: first hop only, and only as a fallback. Intermediate
	// proxies append to it, clients can seed it.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0]); ip != "" {
			all[ip] = true
			if primary == "" {
				primary = ip
			}
		}
	}

	if primary == "" {
		primary = remoteIP
	}

	ips := make([]string, 0, len(all))
	for ip := range all {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	return Info{
		Primary:      primary,
		RateLimitKey: strings.Join(ips, "|"),
	}
}

// stripPort removes the port from "IP:port" / "[IPv6]:port" forms and
// returns bare addresses unchanged.
func stripPort(addr string) string {
	if addr == "" {
		return ""
	}

	if strings.HasPrefix(addr, "[") {
		if idx := strings.LastIndex(addr, "]:"); idx != -1 {
			return strings.Trim(addr[:idx+1], "[]")
		}
		return strings.Trim(addr, "[]")
	}

	if strings.Count(addr, ":") == 1 {
		return addr[:strings.LastIndex(addr, ":")]
	}

	return addr
}
