package demomode

import (
	"net/http"

	"github.com/vulniq/vulniq-api/internal/clientip"
	"github.com/vulniq/vulniq-api/internal/logger"
)

// AccessInfo summarizes one request for demo-surface audit logging.
type AccessInfo struct {
	IsDemoMode bool
	ClientIP   string
	UserAgent  string
	Referer    string
}

// AuditAPIAccess extracts audit fields from the request and, when the
// request is demo-classified, emits an audit log line for the route.
// Best-effort by contract: it never fails, and absent values default to
// "unknown" (client identity) or "none" (referer).
func AuditAPIAccess(r *http.Request, routeName string) AccessInfo {
	info := AccessInfo{
		ClientIP:  "unknown",
		UserAgent: "unknown",
		Referer:   "none",
	}
	if r == nil {
		return info
	}

	info.IsDemoMode = IsDemoRequest(r.Header)

	if ip := clientip.FromRequest(r).Primary; ip != "" {
		info.ClientIP = ip
	} else if r.RemoteAddr != "" {
		info.ClientIP = r.RemoteAddr
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		info.UserAgent = ua
	}
	if ref := r.Header.Get("Referer"); ref != "" {
		info.Referer = ref
	}

	if info.IsDemoMode {
		logger.Ctx(r.Context()).Info("DEMO_AUDIT",
			"audit", true,
			"route", routeName,
			"client_ip", info.ClientIP,
			"user_agent", info.UserAgent,
			"referer", info.Referer,
		)
	}

	return info
}
