// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails, the form is re-rendered with the user's
// previously entered values echoed back and an error message explaining
// what went wrong. Base embeds the shared page fields so form view models
// only declare their own inputs.
//
// Example usage:
//
//	type loginData struct {
//		formutil.Base
//		Username string
//	}
//
//	data := loginData{Username: user}
//	formutil.SetBase(&data.Base, r, "Sign in", "/")
//	data.SetError("Invalid username or password.")
//	templates.Render(w, r, "login", data)
package formutil

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
)

// Base contains common fields for form pages that can be embedded in form data structs.
type Base struct {
	viewdata.BaseVM
	Error template.HTML
}

// SetBase populates the shared page fields from the request.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(r, title, backDefault)
}

// SetError sets the error message. msg is escaped.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}
