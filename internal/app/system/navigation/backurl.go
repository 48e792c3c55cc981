// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/admin/news").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g., "/edit", "/drafts/").
	// These prevent redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value for "return", validates
// the URL is safe (not an open redirect), optionally validates the prefix,
// and excludes specified subpaths to prevent redirect loops.
//
// Example usage:
//
//	url := navigation.SafeBackURL(r, navigation.AdminListBackURL("news"))
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	// Try query parameter first, then form value
	ret := safeLocal(query.Get(r, "return"))
	if ret == "" {
		ret = safeLocal(r.FormValue("return"))
	}

	if ret != "" && allowed(ret, opts) {
		return ret
	}
	return opts.Fallback
}

// safeLocal returns raw when it is a same-site path, or "".
func safeLocal(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || urlutil.SafeReturn(raw, "", "") == "" {
		return ""
	}
	return raw
}

func allowed(ret string, opts BackURLOptions) bool {
	if opts.AllowedPrefix != "" {
		rest, ok := strings.CutPrefix(ret, opts.AllowedPrefix)
		// "/admin/news" must not admit "/admin/newsletter".
		if !ok || (rest != "" && rest[0] != '/' && rest[0] != '?') {
			return false
		}
	}
	for _, excluded := range opts.ExcludedSubpaths {
		if strings.Contains(ret, excluded) {
			return false
		}
	}
	return true
}

// AdminListBackURL returns options for pages reached from a kind's admin
// list. Wizard, delete and edit pages are never valid return targets.
func AdminListBackURL(slug string) BackURLOptions {
	prefix := "/admin/" + slug
	return BackURLOptions{
		AllowedPrefix:    prefix,
		ExcludedSubpaths: []string{"/edit", "/delete", "/new", "/drafts/"},
		Fallback:         prefix,
	}
}

// PublicListBackURL returns options for public detail pages.
func PublicListBackURL(slug string) BackURLOptions {
	prefix := "/" + slug
	return BackURLOptions{
		AllowedPrefix:    prefix,
		ExcludedSubpaths: []string{"/download"},
		Fallback:         prefix,
	}
}
