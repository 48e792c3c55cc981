package testutil

import (
	"bytes"
	"html/template"
	"io/fs"
	"testing"

	"github.com/PuerkitoBio/goquery"
	shared "github.com/dalemusser/neurohub/internal/app/features/shared/views"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// UseTemplates boots the engine over every template set registered by the
// packages linked into the test binary and installs it for Render. The
// engine is removed when the test ends.
func UseTemplates(t *testing.T) {
	t.Helper()
	eng := templates.New(false)
	if err := eng.Boot(zap.NewNop()); err != nil {
		t.Fatalf("boot templates: %v", err)
	}
	templates.UseEngine(eng, zap.NewNop())
	t.Cleanup(func() { templates.UseEngine(nil, nil) })
}

// RenderPage executes the named template against data. The shared layout
// set is always loaded; sets are the feature template FSes the page needs.
func RenderPage(t *testing.T, name string, data any, sets ...fs.FS) *goquery.Document {
	t.Helper()
	tmpl := template.New("")
	for _, set := range append([]fs.FS{shared.FS}, sets...) {
		var err error
		tmpl, err = tmpl.ParseFS(set, "templates/*.gohtml")
		if err != nil {
			t.Fatalf("parse templates: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		t.Fatalf("execute %q: %v", name, err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}
