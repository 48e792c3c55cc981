// Package catalogview derives what a catalog list shows from the records a
// handler fetched and the UI state carried in the query string.
//
// Everything here is pure: inputs are never mutated and output order always
// follows input order.
package catalogview

import (
	"strings"

	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Tab is one entry of an admin list's tab bar.
type Tab struct {
	Key      string
	Label    string
	Status   string // "" matches any status
	Featured bool   // only featured records
}

// Match reports whether rec belongs on the tab.
func (t Tab) Match(rec models.Record) bool {
	if t.Featured && !rec.IsFeatured {
		return false
	}
	if t.Status != "" && !strings.EqualFold(rec.Status, t.Status) {
		return false
	}
	return true
}

// TabAll is the unfiltered tab.
var TabAll = Tab{Key: "all", Label: "All"}

// TabPublished is the fixed predicate of public pages. It has no key so it
// never appears in URLs.
var TabPublished = Tab{Label: models.StatusPublished, Status: models.StatusPublished}

// TabsFor returns the admin tab bar for k: All, one tab per status, Featured.
func TabsFor(k models.Kind) []Tab {
	tabs := []Tab{TabAll}
	for _, st := range k.Statuses {
		tabs = append(tabs, Tab{Key: tabKey(st), Label: st, Status: st})
	}
	return append(tabs, Tab{Key: "featured", Label: "Featured", Featured: true})
}

func tabKey(status string) string {
	return strings.ReplaceAll(strings.ToLower(status), " ", "-")
}

// TabByKey finds key in tabs, falling back to the first tab.
func TabByKey(tabs []Tab, key string) Tab {
	for _, t := range tabs {
		if t.Key == key {
			return t
		}
	}
	if len(tabs) == 0 {
		return TabAll
	}
	return tabs[0]
}

// Filter is the conjunction of every active list predicate. Empty string
// fields are inactive.
type Filter struct {
	Tab        Tab
	Search     string
	SearchTags bool // also match the search text against tags
	Category   string
	Language   string
	Audience   string
}

// Active reports whether anything beyond the tab narrows the list.
func (f Filter) Active() bool {
	return f.Search != "" || f.Category != "" || f.Language != "" || f.Audience != ""
}

// Match reports whether rec satisfies every active predicate.
func (f Filter) Match(rec models.Record) bool {
	if !f.Tab.Match(rec) {
		return false
	}
	if q := text.Fold(strings.TrimSpace(f.Search)); q != "" && !matchesSearch(rec, q, f.SearchTags) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(rec.Category, f.Category) {
		return false
	}
	if f.Language != "" && !strings.EqualFold(rec.Language, f.Language) {
		return false
	}
	if f.Audience != "" && !containsFold(rec.TargetAudience, f.Audience) {
		return false
	}
	return true
}

// matchesSearch expects q already folded.
func matchesSearch(rec models.Record, q string, tags bool) bool {
	if strings.Contains(text.Fold(rec.Title), q) || strings.Contains(text.Fold(rec.Description), q) {
		return true
	}
	if tags {
		for _, tag := range rec.Tags {
			if strings.Contains(text.Fold(tag), q) {
				return true
			}
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// Apply returns the records matching f, in input order.
func Apply(records []models.Record, f Filter) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// TabCount pairs a tab with its badge number.
type TabCount struct {
	Tab
	Count  int
	Active bool
}

// TabCounts counts records per tab. Badges reflect the whole loaded set,
// independent of search and dropdown filters.
func TabCounts(records []models.Record, tabs []Tab, active Tab) []TabCount {
	out := make([]TabCount, len(tabs))
	for i, t := range tabs {
		out[i] = TabCount{Tab: t, Active: t.Key == active.Key}
		for _, rec := range records {
			if t.Match(rec) {
				out[i].Count++
			}
		}
	}
	return out
}
