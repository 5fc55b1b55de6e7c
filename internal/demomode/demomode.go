// Package demomode decides, for every inbound request, whether it belongs to
// the isolated demo surface or the production surface, and enforces that
// demo-classified requests never reach production-only operations.
//
// Classification fails closed: absent or malformed signals resolve to the
// production classification, which is the conservative choice because demo
// classification is what grants relaxed behavior. The flip side is accepted
// residual risk: a demo client whose edge proxy failed to tag it will be
// classified as production and reach production logic. The upstream proxy
// contract (strip/overwrite cookie, authorization, and the demo-mode header
// on demo-routed requests; force the header false elsewhere) is the
// mitigation, not code in this package.
package demomode

import (
	"net/url"
	"strings"
)

const (
	// RoutePrefix is the sole URL-space signal of demo intent: any path
	// beginning with it belongs to the demo surface.
	RoutePrefix = "/demo"

	// ModeHeader is the edge-sanitized demo marker header. It is trustworthy
	// only because the upstream proxy strips or overwrites it for untrusted
	// clients; this package does not re-validate that contract.
	ModeHeader = "x-vulniq-demo-mode"
)

// HeaderSource is the narrow view of a request the classifier needs: header
// lookup by name, case-insensitive. http.Header satisfies it directly, and
// any other framework's request type fits behind a one-line adapter.
type HeaderSource interface {
	Get(name string) string
}

// IsDemoRequest classifies a request from server-trusted header signals.
// Checks run in order, first match wins:
//
//  1. Referer parses as an absolute URL and its path starts with /demo → demo.
//  2. Referer present but unparsable → production, immediately. A malformed
//     referer is a broken or adversarial client; it does not fall through to
//     the header check.
//  3. ModeHeader exactly "true" → demo.
//  4. Otherwise → production.
//
// Pure function of the header values; no logging, no side effects.
func IsDemoRequest(h HeaderSource) bool {
	if referer := h.Get("Referer"); referer != "" {
		u, err := url.Parse(referer)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return false
		}
		if strings.HasPrefix(u.Path, RoutePrefix) {
			return true
		}
	}

	return h.Get(ModeHeader) == "true"
}
