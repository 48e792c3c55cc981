package errors

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/testutil"
)

func TestErrorPage_Template(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/news", nil)
	data := pageData{
		BaseVM:   viewdata.NewBaseVM(req, "Sign in required", "/"),
		Heading:  "Sign in required",
		Message:  "Please sign in to continue.",
		LoginURL: "/login?return=%2Fadmin%2Fnews",
	}

	doc := testutil.RenderPage(t, "error_page", data, FS)

	if got := strings.TrimSpace(doc.Find("h1").Text()); got != "Sign in required" {
		t.Errorf("heading: got %q", got)
	}
	if got := strings.TrimSpace(doc.Find(".message").Text()); got != "Please sign in to continue." {
		t.Errorf("message: got %q", got)
	}
	href, _ := doc.Find(".actions a.button").Attr("href")
	if href != "/login?return=%2Fadmin%2Fnews" {
		t.Errorf("login link: got %q", href)
	}
}

func TestHTMXError_FallbackForPlainRequests(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin/news/1/delete", nil)
	rec := httptest.NewRecorder()

	called := false
	HTMXError(rec, req, http.StatusNotFound, "Not found.", func() { called = true })

	if !called {
		t.Error("fallback should run for non-htmx requests")
	}
	if rec.Header().Get("HX-Retarget") != "" {
		t.Error("plain requests must not get htmx headers")
	}
}

func TestIsHTMX(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if IsHTMX(req) {
		t.Error("plain request reported as htmx")
	}
	req.Header.Set("HX-Request", "true")
	if !IsHTMX(req) {
		t.Error("htmx request not detected")
	}
}
