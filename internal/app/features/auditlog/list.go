// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/store/audit"
	"github.com/dalemusser/neurohub/internal/app/system/paging"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const basePath = "/admin/activity"

// filters are the validated query parameters of the activity page.
// Unknown values are dropped rather than matching nothing.
type filters struct {
	Category string
	Kind     string
	Start    int
}

func parseFilters(r *http.Request) filters {
	f := filters{Start: paging.ParseStart(r)}
	switch c := strings.TrimSpace(query.Get(r, "category")); c {
	case audit.CategoryAuth, audit.CategoryAdmin:
		f.Category = c
	}
	if k, ok := models.KindBySlug(strings.TrimSpace(query.Get(r, "kind"))); ok {
		f.Kind = k.Slug
	}
	return f
}

func (f filters) query() audit.QueryFilter {
	return audit.QueryFilter{
		Category: f.Category,
		Kind:     f.Kind,
		Limit:    paging.LimitPlusOne(),
		Offset:   paging.Offset(f.Start),
	}
}

// url returns the activity page for f starting at start.
func (f filters) url(start int) string {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Kind != "" {
		v.Set("kind", f.Kind)
	}
	if start > 1 {
		v.Set("start", strconv.Itoa(start))
	}
	if len(v) == 0 {
		return basePath
	}
	return basePath + "?" + v.Encode()
}

// ServeList handles GET /admin/activity: the audit trail, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "activity list")
	defer cancel()

	f := parseFilters(r)
	qf := f.query()

	var (
		events []audit.Event
		total  int64
		err    error
	)
	events, err = h.Store.Query(ctx, qf)
	if err == nil {
		total, err = h.Store.CountByFilter(ctx, qf)
	}

	var data listData
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		data = listData{
			Categories: categoryOptions(f.Category),
			Kinds:      kindOptions(f.Kind),
			Category:   f.Category,
			Kind:       f.Kind,
			LoadError:  viewdata.NewLoadError(r, "Activity could not be loaded."),
		}
	} else {
		data = buildListData(events, total, f)
	}
	data.BaseVM = viewdata.NewBaseVM(r, "Activity", "/admin")

	templates.Render(w, r, "activity_list", data)
}

// buildListData turns a page fetched with paging.LimitPlusOne into the view
// model.
func buildListData(events []audit.Event, total int64, f filters) listData {
	pg := paging.TrimPage(&events, f.Start)

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}
	rng := paging.ComputeRange(f.Start, len(items))

	data := listData{
		Items:      items,
		Category:   f.Category,
		Kind:       f.Kind,
		Categories: categoryOptions(f.Category),
		Kinds:      kindOptions(f.Kind),
		Total:      total,
		Shown:      len(items),
		RangeStart: rng.Start,
		RangeEnd:   rng.End,
		HasPrev:    pg.HasPrev,
		HasNext:    pg.HasNext,
	}
	if pg.HasPrev {
		data.PrevURL = f.url(rng.PrevStart)
	}
	if pg.HasNext {
		data.NextURL = f.url(rng.NextStart)
	}
	return data
}

func toItem(e audit.Event) listItem {
	item := listItem{
		ID:       e.ID.Hex(),
		When:     e.Timestamp.UTC().Format(timestampLayout),
		Category: e.Category,
		Event:    eventLabel(e.EventType),
		Actor:    e.Actor,
		RecordID: e.RecordID,
		Subject:  e.Details["title"],
		IP:       e.IP,
		Success:  e.Success,
		Reason:   e.FailureReason,
	}
	if item.Actor == "" {
		item.Actor = e.UserID
	}

	switch e.EventType {
	case audit.EventRecordStatusChanged:
		if s := e.Details["status"]; s != "" {
			item.Event += " to " + s
		}
	case audit.EventRecordFeatured:
		if e.Details["featured"] == "true" {
			item.Event = "Featured"
		} else if e.Details["featured"] == "false" {
			item.Event = "Unfeatured"
		}
	}

	if k, ok := models.KindBySlug(e.Kind); ok {
		item.Kind = k.Singular
		if e.RecordID != "" && e.EventType != audit.EventRecordDeleted {
			item.SubjectURL = "/admin/" + k.Slug + "/" + url.PathEscape(e.RecordID) + "/edit"
		}
	}
	if item.Subject == "" && e.RecordID != "" {
		item.Subject = "#" + e.RecordID
	}
	return item
}
