// internal/app/features/errors/errors.go
package errors

import "net/http"

// Handler is the errors feature handler.
// No dependencies; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders the "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "You don't have permission to view this page.", "/")
}

// Unauthorized renders the "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "/")
}

// NotFound is the router-wide 404 handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	HTMXNotFound(w, r, "The page you asked for does not exist.", "/")
}

