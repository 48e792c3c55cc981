package navigation_test

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/system/navigation"
)

func TestSafeBackURL_AdminList(t *testing.T) {
	opts := navigation.AdminListBackURL("news")

	tests := []struct {
		name string
		ret  string
		want string
	}{
		{"list with state", "/admin/news?tab=draft&more=1", "/admin/news?tab=draft&more=1"},
		{"plain list", "/admin/news", "/admin/news"},
		{"other kind", "/admin/events", "/admin/news"},
		{"prefix collision", "/admin/newsletter", "/admin/news"},
		{"wizard page", "/admin/news/drafts/abc/step/2", "/admin/news"},
		{"edit page", "/admin/news/5/edit", "/admin/news"},
		{"absolute url", "https://evil.example/admin/news", "/admin/news"},
		{"protocol relative", "//evil.example/admin/news", "/admin/news"},
		{"missing", "", "/admin/news"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/admin/news/5/delete"
			if tt.ret != "" {
				target += "?return=" + url.QueryEscape(tt.ret)
			}
			r := httptest.NewRequest("GET", target, nil)
			if got := navigation.SafeBackURL(r, opts); got != tt.want {
				t.Errorf("SafeBackURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSafeBackURL_FormValue(t *testing.T) {
	form := url.Values{"return": {"/ebooklets?q=seizure"}}
	r := httptest.NewRequest("POST", "/ebooklets/3/download", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if got := navigation.SafeBackURL(r, navigation.PublicListBackURL("ebooklets")); got != "/ebooklets?q=seizure" {
		t.Errorf("SafeBackURL() = %q", got)
	}
}
