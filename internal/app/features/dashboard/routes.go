// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the admin home under whatever mount point the top-level
// router chooses (e.g., "/admin"). The per-kind tabs are mounted beside it
// by catalogadmin.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleAdmin))
		// Final path will be /admin when mounted at "/admin".
		pr.Get("/", h.ServeDashboard)
	})

	return r
}
