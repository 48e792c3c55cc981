// internal/app/features/catalogadmin/list.go
package catalogadmin

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/system/catalogview"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// Query parameters set by the redirects that follow a mutation.
const (
	paramSaved   = "saved"
	paramDeleted = "deleted"
)

type option struct {
	Value    string
	Selected bool
}

type tabLink struct {
	Label  string
	Count  int
	Active bool
	URL    string
}

type featuredToggle struct {
	ID         string
	IsFeatured bool
	Action     string
	Target     string
	CSRFToken  string
}

type statusCell struct {
	ID        string
	Status    string
	Action    string
	Target    string
	Statuses  []option
	CSRFToken string
}

type adminRow struct {
	ID        string
	Title     string
	Category  string
	Updated   string
	Downloads int
	Views     int
	Featured  featuredToggle
	Status    statusCell
	EditURL   string
	DeleteURL string
	PublicURL string
	Saved     bool
}

type adminListData struct {
	viewdata.BaseVM

	Kind     string
	Singular string
	Path     string
	NewURL   string

	Tabs           []tabLink
	Search         string
	Category       string
	Categories     []option
	OptionsDerived bool
	FiltersActive  bool
	ClearURL       string
	ActiveTab      string

	Rows        []adminRow
	Visible     int
	Total       int
	HasMore     bool
	LoadMoreURL string
	NoData      bool
	NoMatch     bool
	ShowCounts  bool

	LoadError *viewdata.LoadError
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/{kind} – list with tabs                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *kindHandler) ServeList(w http.ResponseWriter, r *http.Request) {
	tabs := catalogview.TabsFor(h.kind)
	st := catalogview.StateFromRequest(r, tabs)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	res := h.resource(r)
	var loadErr *viewdata.LoadError
	records, err := res.List(ctx, apiclient.ListParams{})
	if err != nil {
		if h.Gate.Rejected(w, r, err) {
			return
		}
		h.Log.Warn("admin list fetch failed", zap.String("kind", h.kind.Slug), zap.Error(err))
		loadErr = viewdata.NewLoadError(r, apiclient.Message(err))
		records = nil
	} else {
		records = h.mergeMutation(ctx, r, res, records)
	}

	var cats catalogview.Options
	if loadErr == nil {
		apiCats, catErr := res.Categories(ctx)
		cats = catalogview.ResolveOptions(apiCats, catErr, records, catalogview.OptionCategory)
	}

	data := buildAdminListData(h.kind, records, tabs, st, h.Window, cats, query.Get(r, paramSaved))
	data.LoadError = loadErr
	token := csrf.Token(r)
	for i := range data.Rows {
		data.Rows[i].Featured.CSRFToken = token
		data.Rows[i].Status.CSRFToken = token
	}

	if uierrors.IsHTMX(r) && r.Header.Get("HX-Target") == resultsTarget {
		templates.RenderSnippet(w, "admin_results", data)
		return
	}
	flashes := h.popFlashes(w, r)
	data.BaseVM = viewdata.NewBaseVM(r, h.kind.Label, "/admin")
	data.Flashes = flashes
	templates.Render(w, r, "admin_list", data)
}

// mergeMutation folds the outcome of the redirect's mutation into the
// freshly loaded list: ?saved= upserts the authoritative record and
// ?deleted= drops the removed one.
func (h *kindHandler) mergeMutation(ctx context.Context, r *http.Request, res *apiclient.Resource, records []models.Record) []models.Record {
	if id := query.Get(r, paramDeleted); id != "" {
		records, _ = catalogview.Remove(records, id)
	}
	if id := query.Get(r, paramSaved); id != "" {
		rec, err := res.Get(ctx, id)
		switch {
		case err == nil:
			records = catalogview.Upsert(records, rec)
		case errors.Is(err, apiclient.ErrNotFound):
			records, _ = catalogview.Remove(records, id)
		default:
			h.Log.Debug("saved record refetch failed", zap.String("id", id), zap.Error(err))
		}
	}
	return records
}

func buildAdminListData(k models.Kind, records []models.Record, tabs []catalogview.Tab, st catalogview.State, win catalogview.Window, cats catalogview.Options, savedID string) adminListData {
	path := "/admin/" + k.Slug
	filtered := catalogview.Apply(records, st.Filter)
	page := win.Slice(filtered, st.More)
	returnTo := st.URL(path)

	data := adminListData{
		Kind:     k.Label,
		Singular: k.Singular,
		Path:     path,
		NewURL:   path + "/new",

		Search:         st.Filter.Search,
		Category:       st.Filter.Category,
		Categories:     options(cats.Values, st.Filter.Category),
		OptionsDerived: cats.Derived,
		FiltersActive:  st.Filter.Active(),
		ClearURL:       st.ClearURL(path),
		ActiveTab:      st.Filter.Tab.Key,

		Visible:     page.Visible,
		Total:       page.Total,
		HasMore:     page.HasMore,
		LoadMoreURL: st.LoadMoreURL(path),
		ShowCounts:  k.HasAnalytics,
	}

	for _, tc := range catalogview.TabCounts(records, tabs, st.Filter.Tab) {
		data.Tabs = append(data.Tabs, tabLink{
			Label:  tc.Label,
			Count:  tc.Count,
			Active: tc.Active,
			URL:    st.TabURL(path, tc.Tab),
		})
	}

	switch catalogview.Empty(len(records), len(filtered)) {
	case catalogview.NoData:
		data.NoData = true
	case catalogview.NoMatch:
		data.NoMatch = true
	}

	for _, rec := range page.Items {
		row := newRow(k, rec, returnTo)
		row.Saved = savedID != "" && rec.ID == savedID
		data.Rows = append(data.Rows, row)
	}
	return data
}

func newRow(k models.Kind, rec models.Record, returnTo string) adminRow {
	base := "/admin/" + k.Slug + "/" + url.PathEscape(rec.ID)
	ret := "?return=" + url.QueryEscape(returnTo)
	row := adminRow{
		ID:        rec.ID,
		Title:     rec.Title,
		Category:  rec.Category,
		Downloads: rec.DownloadCount,
		Views:     rec.ViewCount,
		Featured:  newFeaturedToggle(k, rec.ID, rec.IsFeatured),
		Status:    newStatusCell(k, rec.ID, rec.Status),
		EditURL:   base + "/edit",
		DeleteURL: base + "/delete" + ret,
	}
	if t := rec.UpdatedTime(); !t.IsZero() {
		row.Updated = t.Format("Jan 2, 2006")
	}
	if rec.IsPublished() {
		row.PublicURL = "/" + k.Slug + "/" + url.PathEscape(rec.ID)
	}
	return row
}

func newFeaturedToggle(k models.Kind, id string, featured bool) featuredToggle {
	return featuredToggle{
		ID:         id,
		IsFeatured: featured,
		Action:     "/admin/" + k.Slug + "/" + url.PathEscape(id) + "/featured",
		Target:     "featured-" + id,
	}
}

func newStatusCell(k models.Kind, id, status string) statusCell {
	if canon, ok := k.CanonicalStatus(status); ok {
		status = canon
	}
	return statusCell{
		ID:       id,
		Status:   status,
		Action:   "/admin/" + k.Slug + "/" + url.PathEscape(id) + "/status",
		Target:   "status-" + id,
		Statuses: options(k.Statuses, status),
	}
}

func options(values []string, selected string) []option {
	out := make([]option, 0, len(values))
	for _, v := range values {
		out = append(out, option{Value: v, Selected: strings.EqualFold(v, selected)})
	}
	return out
}
