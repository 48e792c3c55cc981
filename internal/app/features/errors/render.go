// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Heading  string
	Message  string
	LoginURL string
}

// alertData is the inline message swapped into #htmx-alert.
type alertData struct {
	Message string
}

func render(w http.ResponseWriter, r *http.Request, status int, heading, msg, backURL string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, heading, "/"),
		Heading: heading,
		Message: msg,
	}
	if backURL != "" {
		data.BackURL = backURL
	}
	if status == http.StatusUnauthorized {
		data.LoginURL = auth.LoginURL(r)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// RenderUnauthorized shows a "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	render(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL)
}

// RenderForbidden shows an access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	if msg == "" {
		msg = "You don't have permission to view this page."
	}
	render(w, r, http.StatusForbidden, "Access denied", msg, backURL)
}

// RenderNotFound shows a 404 page.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "The page you asked for does not exist."
	}
	render(w, r, http.StatusNotFound, "Not found", msg, backURL)
}

// RenderBadRequest shows a 400 page.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusBadRequest, "Something is wrong with that request", msg, backURL)
}

// RenderServerError shows a 500 page. msg must be safe to show users.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusInternalServerError, "Something went wrong", msg, backURL)
}

// RenderBadGateway shows a 502 page for a backend that failed to answer.
func RenderBadGateway(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusBadGateway, "The catalog is unavailable", msg, backURL)
}
