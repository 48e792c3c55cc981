// internal/app/features/catalog/routes.go
package catalog

import (
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the public pages of kind k. From bootstrap:
//
//	for _, k := range models.Kinds() {
//		r.Mount("/"+k.Slug, catalog.Routes(catalogHandler, k))
//	}
func Routes(h *Handler, k models.Kind) chi.Router {
	kh := &kindHandler{Handler: h, kind: k}
	r := chi.NewRouter()
	r.Get("/", kh.ServeList)
	r.Get("/{id}", kh.ServeDetail)
	r.Post("/{id}/download", kh.HandleDownload)
	return r
}
