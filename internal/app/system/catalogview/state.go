package catalogview

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
)

// Query parameter names carrying list UI state.
const (
	ParamTab      = "tab"
	ParamSearch   = "q"
	ParamCategory = "category"
	ParamLanguage = "language"
	ParamAudience = "audience"
	ParamMore     = "more"
	ParamExpand   = "expand"
	ParamFeatured = "featured"
)

// ExpandSet holds the ids of records shown in full. It is independent of
// filtering and pagination.
type ExpandSet map[string]struct{}

// ParseExpandSet reads a comma-separated id list.
func ParseExpandSet(raw string) ExpandSet {
	s := ExpandSet{}
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether id is expanded.
func (s ExpandSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Toggle returns a copy with id added or removed.
func (s ExpandSet) Toggle(id string) ExpandSet {
	out := make(ExpandSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

// String is the sorted, comma-separated form used in URLs.
func (s ExpandSet) String() string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// State is everything a list view keeps between requests.
type State struct {
	Filter          Filter
	More            int // "load more" presses
	Expanded        ExpandSet
	ShowAllFeatured bool
}

// StateFromRequest reads list state from the query string. Unknown tab
// keys fall back to the first tab; a negative or garbled "more" is 0.
func StateFromRequest(r *http.Request, tabs []Tab) State {
	more, err := strconv.Atoi(query.Get(r, ParamMore))
	if err != nil || more < 0 {
		more = 0
	}
	return State{
		Filter: Filter{
			Tab:      TabByKey(tabs, query.Get(r, ParamTab)),
			Search:   query.Search(r, ParamSearch),
			Category: query.Get(r, ParamCategory),
			Language: query.Get(r, ParamLanguage),
			Audience: query.Get(r, ParamAudience),
		},
		More:            more,
		Expanded:        ParseExpandSet(query.Get(r, ParamExpand)),
		ShowAllFeatured: query.Get(r, ParamFeatured) == "all",
	}
}

// Values encodes s back to query parameters, omitting defaults.
func (s State) Values() url.Values {
	v := url.Values{}
	if s.Filter.Tab.Key != "" && s.Filter.Tab.Key != TabAll.Key {
		v.Set(ParamTab, s.Filter.Tab.Key)
	}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set(ParamSearch, s.Filter.Search)
	set(ParamCategory, s.Filter.Category)
	set(ParamLanguage, s.Filter.Language)
	set(ParamAudience, s.Filter.Audience)
	if s.More > 0 {
		v.Set(ParamMore, strconv.Itoa(s.More))
	}
	set(ParamExpand, s.Expanded.String())
	if s.ShowAllFeatured {
		v.Set(ParamFeatured, "all")
	}
	return v
}

// URL renders s as path?query.
func (s State) URL(path string) string {
	if q := s.Values().Encode(); q != "" {
		return path + "?" + q
	}
	return path
}

// LoadMoreURL is the link behind the "Load more" button.
func (s State) LoadMoreURL(path string) string {
	s.More++
	return s.URL(path)
}

// ExpandURL toggles id's expanded state.
func (s State) ExpandURL(path, id string) string {
	s.Expanded = s.Expanded.Toggle(id)
	return s.URL(path)
}

// FeaturedToggleURL flips the featured strip between its cap and all.
func (s State) FeaturedToggleURL(path string) string {
	s.ShowAllFeatured = !s.ShowAllFeatured
	return s.URL(path)
}

// TabURL switches tabs, resetting pagination but keeping the other filters.
func (s State) TabURL(path string, t Tab) string {
	s.Filter.Tab = t
	s.More = 0
	return s.URL(path)
}

// ClearURL drops search and dropdown filters, keeping the tab.
func (s State) ClearURL(path string) string {
	return State{Filter: Filter{Tab: s.Filter.Tab}}.URL(path)
}
