// internal/app/features/errors/htmx.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
)

// IsHTMX reports whether r was sent by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// HTMXError answers an htmx request with an inline alert and status. Other
// requests get fallback, usually a full error page.
func HTMXError(w http.ResponseWriter, r *http.Request, status int, msg string, fallback func()) {
	if !IsHTMX(r) {
		fallback()
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("HX-Retarget", "#htmx-alert")
	w.Header().Set("HX-Reswap", "innerHTML")
	w.WriteHeader(status)
	templates.RenderSnippet(w, "error_alert", alertData{Message: msg})
}

// HTMXBadRequest is HTMXError with a 400 and a bad-request page fallback.
func HTMXBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	HTMXError(w, r, http.StatusBadRequest, msg, func() {
		RenderBadRequest(w, r, msg, backURL)
	})
}

// HTMXForbidden is HTMXError with a 403 and a forbidden page fallback.
func HTMXForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	HTMXError(w, r, http.StatusForbidden, msg, func() {
		RenderForbidden(w, r, msg, backURL)
	})
}

// HTMXNotFound is HTMXError with a 404 and a not-found page fallback.
func HTMXNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	HTMXError(w, r, http.StatusNotFound, msg, func() {
		RenderNotFound(w, r, msg, backURL)
	})
}
