package api

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/vulniq/vulniq-api/internal/auth"
	"github.com/vulniq/vulniq-api/internal/logger"
	"github.com/vulniq/vulniq-api/internal/storage"
)

// handleAdminPage renders the minimal operations page: sandbox purge form.
func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	csrfToken := csrf.Token(r)

	message := r.URL.Query().Get("message")
	var flashHTML string
	if message != "" {
		flashHTML = fmt.Sprintf(`<div class="flash">%s</div>`, html.EscapeString(message))
	}

	htmlPage := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<title>VulnIQ Operations</title>
	<style>
		body { font-family: sans-serif; margin: 2rem; }
		.flash { padding: 0.5rem 1rem; background: #e6ffe6; border: 1px solid #9c9; margin-bottom: 1rem; }
		.btn-danger { background: #c33; color: white; border: none; padding: 0.5rem 1rem; cursor: pointer; }
	</style>
</head>
<body>
	<h1>Operations</h1>
	%s
	<h2>Demo sandbox</h2>
	<p>Deletes every object under the demo sandbox scope. Demo users lose their uploads; production data is untouchable from here.</p>
	<form method="POST" action="/admin/demo/purge" onsubmit="return confirm('Purge all demo sandbox objects?');">
		<input type="hidden" name="gorilla.csrf.Token" value="%s">
		<button type="submit" class="btn-danger">Purge demo sandbox</button>
	</form>
</body>
</html>`, flashHTML, csrfToken)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(htmlPage))
}

// handleDemoPurge wipes the demo sandbox scope. The purge prefix is built
// server-side from the sandbox identity; nothing client-supplied reaches
// the storage layer.
func (s *Server) handleDemoPurge(w http.ResponseWriter, r *http.Request) error {
	adminID, _ := auth.UserID(r.Context())

	deleted, err := s.storage.DeletePrefix(r.Context(), storage.Demo,
		storage.UserScope(storage.Demo, sandboxUserID))
	if err != nil {
		return err
	}

	logger.Ctx(r.Context()).Info("ADMIN_AUDIT",
		"audit", true,
		"action", "demo.purge",
		"admin_user_id", adminID,
		"objects_deleted", deleted,
	)

	http.Redirect(w, r, fmt.Sprintf("/admin/?message=Purged+%d+objects", deleted), http.StatusSeeOther)
	return nil
}
