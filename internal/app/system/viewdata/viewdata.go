// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"
	"strings"
	"sync"

	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/authz"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is shown when bootstrap has not configured one.
const DefaultSiteName = "Epilepsy Association"

// NavItem is one entry of the kind navigation shared by the public site and
// the admin console.
type NavItem struct {
	Slug   string
	Label  string
	Href   string
	Active bool
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	IsAdmin    bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// Kind navigation: public links, or admin links when InAdmin is set.
	Nav     []NavItem
	InAdmin bool

	// One-shot messages; handlers fill this from SessionManager.PopFlashes.
	Flashes []auth.Flash
}

var (
	mu       sync.RWMutex
	siteName = DefaultSiteName
)

// Init sets the site name rendered in the header and page titles.
// Call this once at startup from bootstrap.
func Init(name string) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		name = DefaultSiteName
	}
	siteName = name
}

// SiteName returns the configured site name.
func SiteName() string {
	mu.RLock()
	defer mu.RUnlock()
	return siteName
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	role, name, _, signedIn := authz.UserCtx(r)
	path := r.URL.Path
	inAdmin := path == "/admin" || strings.HasPrefix(path, "/admin/")

	return BaseVM{
		SiteName:    SiteName(),
		IsLoggedIn:  signedIn,
		IsAdmin:     authz.IsAdmin(r),
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		Nav:         Nav(path, inAdmin),
		InAdmin:     inAdmin,
	}
}

// Nav builds the kind navigation. The entry whose section contains path is
// marked active.
func Nav(path string, admin bool) []NavItem {
	prefix := "/"
	if admin {
		prefix = "/admin/"
	}
	kinds := models.Kinds()
	items := make([]NavItem, 0, len(kinds))
	for _, k := range kinds {
		href := prefix + k.Slug
		items = append(items, NavItem{
			Slug:   k.Slug,
			Label:  k.Label,
			Href:   href,
			Active: path == href || strings.HasPrefix(path, href+"/"),
		})
	}
	return items
}

// LoadError is the "could not load" card with a retry link.
type LoadError struct {
	Message  string
	RetryURL string
}

// NewLoadError builds the retry card for r, retrying the same URL.
func NewLoadError(r *http.Request, msg string) *LoadError {
	return &LoadError{Message: msg, RetryURL: r.URL.RequestURI()}
}
