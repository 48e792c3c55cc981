// internal/app/features/catalogadmin/routes.go
package catalogadmin

import (
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin pages of kind k. From bootstrap:
//
//	r.Mount("/admin/"+k.Slug, catalogadmin.Routes(adminHandler, k, sessionMgr))
func Routes(h *Handler, k models.Kind, sm *auth.SessionManager) chi.Router {
	kh := &kindHandler{Handler: h, kind: k}
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleAdmin))

		// LIST (tabs, search, load more; HTMX swaps the results)
		pr.Get("/", kh.ServeList)

		// ROW ACTIONS (HTMX fragments, redirect for plain posts)
		pr.Post("/{id}/featured", kh.HandleToggleFeatured)
		pr.Post("/{id}/status", kh.HandleStatus)

		// DELETE
		pr.Get("/{id}/delete", kh.ServeDeleteConfirm)
		pr.Post("/{id}/delete", kh.HandleDelete)

		// WIZARD
		pr.Get("/new", kh.StartNew)
		pr.Get("/{id}/edit", kh.StartEdit)
		pr.Get("/drafts/{draftID}/step/{step}", kh.ServeStep)
		pr.Post("/drafts/{draftID}/step/{step}", kh.HandleStep)
		pr.Get("/drafts/{draftID}/files/{fileID}", kh.ServeStagedFile)
		pr.Post("/drafts/{draftID}/cancel", kh.HandleCancel)
	})

	return r
}
