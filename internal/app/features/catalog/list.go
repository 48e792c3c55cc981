// internal/app/features/catalog/list.go
package catalog

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/system/catalogview"
	"github.com/dalemusser/neurohub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Public pages have a single fixed tab.
var publicTabs = []catalogview.Tab{catalogview.TabPublished}

const excerptLen = 180

type option struct {
	Value    string
	Selected bool
}

type card struct {
	ID          string
	Title       string
	Category    string
	Date        string
	Excerpt     string
	ImageURL    string
	Href        string
	Expanded    bool
	Description template.HTML
	ExpandURL   string
}

type filterOptions struct {
	Categories catalogview.Options
	Languages  catalogview.Options
	Audiences  catalogview.Options
}

type listData struct {
	viewdata.BaseVM

	Kind     string
	Singular string
	Path     string

	Search         string
	Category       string
	Language       string
	Audience       string
	Categories     []option
	Languages      []option
	Audiences      []option
	HasAudiences   bool
	OptionsDerived bool
	FiltersActive  bool
	ClearURL       string

	Featured          []card
	FeaturedTotal     int
	CanToggleFeatured bool
	ShowAllFeatured   bool
	FeaturedToggleURL string

	Cards       []card
	Visible     int
	Total       int
	HasMore     bool
	LoadMoreURL string
	NoData      bool
	NoMatch     bool

	LoadError *viewdata.LoadError
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /{kind} – published list                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *kindHandler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	st := catalogview.StateFromRequest(r, publicTabs)
	st.Filter.SearchTags = true

	var loadErr *viewdata.LoadError
	records, err := h.resource().List(ctx, apiclient.ListParams{Status: models.StatusPublished})
	if err != nil {
		h.Log.Warn("public list fetch failed", zap.String("kind", h.kind.Slug), zap.Error(err))
		loadErr = viewdata.NewLoadError(r, "We couldn't load "+strings.ToLower(h.kind.Label)+" right now.")
		records = nil
	}

	var opts filterOptions
	if loadErr == nil {
		opts = h.fetchOptions(ctx, records)
	}

	data := buildListData(h.kind, records, st, h.Window, h.FeaturedLimit, opts)
	data.BaseVM = viewdata.NewBaseVM(r, h.kind.Label, "/")
	data.LoadError = loadErr

	if uierrors.IsHTMX(r) && r.Header.Get("HX-Target") == resultsTarget {
		templates.RenderSnippet(w, "catalog_results", data)
		return
	}
	templates.Render(w, r, "catalog_list", data)
}

// fetchOptions loads the dropdown values. A failed metadata endpoint falls
// back to values derived from the loaded records.
func (h *kindHandler) fetchOptions(ctx context.Context, records []models.Record) filterOptions {
	res := h.resource()
	var (
		cats, auds     []string
		catErr, audErr error
		g              errgroup.Group
	)
	g.Go(func() error {
		cats, catErr = res.Categories(ctx)
		return nil
	})
	if h.kind.HasAudiences {
		g.Go(func() error {
			auds, audErr = res.TargetAudiences(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if catErr != nil {
		h.Log.Debug("category endpoint failed; deriving", zap.String("kind", h.kind.Slug), zap.Error(catErr))
	}
	opts := filterOptions{
		Categories: catalogview.ResolveOptions(cats, catErr, records, catalogview.OptionCategory),
		Languages:  catalogview.Options{Values: catalogview.Distinct(records, catalogview.OptionLanguage)},
	}
	if h.kind.HasAudiences {
		opts.Audiences = catalogview.ResolveOptions(auds, audErr, records, catalogview.OptionAudience)
	}
	return opts
}

func buildListData(k models.Kind, records []models.Record, st catalogview.State, win catalogview.Window, featuredLimit int, opts filterOptions) listData {
	path := "/" + k.Slug
	published := catalogview.Apply(records, catalogview.Filter{Tab: catalogview.TabPublished})
	filtered := catalogview.Apply(published, st.Filter)
	page := win.Slice(filtered, st.More)
	feat := catalogview.Featured(published, featuredLimit, st.ShowAllFeatured)
	returnTo := st.URL(path)

	data := listData{
		Kind:     k.Label,
		Singular: k.Singular,
		Path:     path,

		Search:         st.Filter.Search,
		Category:       st.Filter.Category,
		Language:       st.Filter.Language,
		Audience:       st.Filter.Audience,
		Categories:     options(opts.Categories.Values, st.Filter.Category),
		Languages:      options(opts.Languages.Values, st.Filter.Language),
		Audiences:      options(opts.Audiences.Values, st.Filter.Audience),
		HasAudiences:   k.HasAudiences,
		OptionsDerived: opts.Categories.Derived || opts.Audiences.Derived,
		FiltersActive:  st.Filter.Active(),
		ClearURL:       st.ClearURL(path),

		FeaturedTotal:     feat.Total,
		CanToggleFeatured: feat.CanToggle,
		ShowAllFeatured:   feat.ShowAll,
		FeaturedToggleURL: st.FeaturedToggleURL(path),

		Visible:     page.Visible,
		Total:       page.Total,
		HasMore:     page.HasMore,
		LoadMoreURL: st.LoadMoreURL(path),
	}

	switch catalogview.Empty(len(published), len(filtered)) {
	case catalogview.NoData:
		data.NoData = true
	case catalogview.NoMatch:
		data.NoMatch = true
	}

	for _, rec := range feat.Items {
		data.Featured = append(data.Featured, newCard(path, rec, st, returnTo))
	}
	for _, rec := range page.Items {
		data.Cards = append(data.Cards, newCard(path, rec, st, returnTo))
	}
	return data
}

func newCard(path string, rec models.Record, st catalogview.State, returnTo string) card {
	c := card{
		ID:        rec.ID,
		Title:     rec.Title,
		Category:  rec.Category,
		Excerpt:   htmlsanitize.Excerpt(rec.Description, excerptLen),
		ImageURL:  rec.ImageURL,
		Href:      path + "/" + url.PathEscape(rec.ID),
		Expanded:  st.Expanded.Has(rec.ID),
		ExpandURL: st.ExpandURL(path, rec.ID),
	}
	if returnTo != path {
		c.Href += "?return=" + url.QueryEscape(returnTo)
	}
	if t := rec.UpdatedTime(); !t.IsZero() {
		c.Date = t.Format("Jan 2, 2006")
	}
	if c.Expanded {
		c.Description = htmlsanitize.PrepareForDisplay(rec.Description)
	}
	return c
}

func options(values []string, selected string) []option {
	out := make([]option, 0, len(values))
	for _, v := range values {
		out = append(out, option{Value: v, Selected: strings.EqualFold(v, selected)})
	}
	return out
}
