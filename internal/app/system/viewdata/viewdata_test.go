package viewdata_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
)

func TestNewBaseVM_Anonymous(t *testing.T) {
	t.Cleanup(func() { viewdata.Init("") })
	viewdata.Init("Test Association")

	r := httptest.NewRequest("GET", "/ebooklets", nil)
	vm := viewdata.NewBaseVM(r, "E-Booklets", "/")

	if vm.SiteName != "Test Association" {
		t.Errorf("SiteName: got %q", vm.SiteName)
	}
	if vm.IsLoggedIn || vm.IsAdmin {
		t.Error("anonymous request should not be signed in")
	}
	if vm.InAdmin {
		t.Error("public path should not be InAdmin")
	}
	if len(vm.Nav) != len(models.Kinds()) {
		t.Fatalf("Nav: got %d items, want %d", len(vm.Nav), len(models.Kinds()))
	}
	for _, item := range vm.Nav {
		if item.Active != (item.Slug == "ebooklets") {
			t.Errorf("Nav %q active=%v", item.Slug, item.Active)
		}
	}
}

func TestNewBaseVM_Admin(t *testing.T) {
	r := httptest.NewRequest("GET", "/admin/news/123/edit", nil)
	r = auth.WithTestUser(r, &auth.SessionUser{ID: "1", Name: "Editor", Role: auth.RoleAdmin})

	vm := viewdata.NewBaseVM(r, "Edit", "/admin/news")

	if !vm.IsLoggedIn || !vm.IsAdmin || vm.UserName != "Editor" {
		t.Errorf("unexpected user fields: %+v", vm)
	}
	if !vm.InAdmin {
		t.Error("admin path should set InAdmin")
	}
	for _, item := range vm.Nav {
		if item.Slug == "news" {
			if !item.Active || item.Href != "/admin/news" {
				t.Errorf("news nav: %+v", item)
			}
		} else if item.Active {
			t.Errorf("%q should not be active", item.Slug)
		}
	}
}

func TestNav_PrefixIsNotActive(t *testing.T) {
	for _, item := range viewdata.Nav("/newsletter", false) {
		if item.Active {
			t.Errorf("%q should not match /newsletter", item.Slug)
		}
	}
}
