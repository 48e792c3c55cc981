// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the activity page under the path where this router is
// mounted ("/admin/activity" from bootstrap). Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleAdmin))

		pr.Get("/", h.ServeList)
	})

	return r
}
