// internal/app/features/dashboard/admin.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// snapshot is everything the home tab fetched, indexed like kinds.
type snapshot struct {
	kinds     []models.Kind
	records   [][]models.Record
	analytics []*models.Analytics
}

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Dashboard())
	defer cancel()

	var data dashboardData
	snap, err := h.collect(ctx, h.Gate.Client(r), models.Kinds())
	if err != nil {
		if h.Gate.Rejected(w, r, err) {
			return
		}
		h.Log.Warn("dashboard aggregation failed", zap.Error(err))
		data.LoadError = viewdata.NewLoadError(r, "The dashboard could not be loaded. "+apiclient.Message(err))
	} else {
		data = buildDashboardData(snap, h.RecentLimit)
	}
	data.BaseVM = viewdata.NewBaseVM(r, "Dashboard", "/admin")

	templates.Render(w, r, "admin_dashboard", data)
}

// collect fetches every kind's records and, where published, its analytics.
// The first failure cancels the remaining fetches and nothing partial is
// returned.
func (h *Handler) collect(ctx context.Context, client *apiclient.Client, kinds []models.Kind) (snapshot, error) {
	snap := snapshot{
		kinds:     kinds,
		records:   make([][]models.Record, len(kinds)),
		analytics: make([]*models.Analytics, len(kinds)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		res := client.Resource(k)
		g.Go(func() error {
			recs, err := res.List(gctx, apiclient.ListParams{})
			if err != nil {
				return err
			}
			snap.records[i] = recs
			return nil
		})
		if !k.HasAnalytics {
			continue
		}
		g.Go(func() error {
			a, err := res.Analytics(gctx)
			if errors.Is(err, apiclient.ErrUnsupported) {
				return nil
			}
			if err != nil {
				return err
			}
			snap.analytics[i] = &a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func buildDashboardData(snap snapshot, recentLimit int) dashboardData {
	var data dashboardData
	var merged []models.Record
	labels := make(map[string]string, len(snap.kinds))

	for i, k := range snap.kinds {
		labels[k.Slug] = k.Singular
		row := kindSummary{
			Label:        k.Label,
			Href:         "/admin/" + k.Slug,
			HasAnalytics: snap.analytics[i] != nil,
		}
		for _, rec := range snap.records[i] {
			row.Records++
			switch {
			case strings.EqualFold(rec.Status, models.StatusPublished):
				row.Published++
			case strings.EqualFold(rec.Status, models.StatusDraft):
				row.Drafts++
			}
			if rec.IsFeatured {
				row.Featured++
			}
			rec.Type = k.Slug
			merged = append(merged, rec)
		}
		if a := snap.analytics[i]; a != nil {
			row.Downloads = a.TotalDownloads
			row.Views = a.TotalViews
		}

		data.Totals.Records += row.Records
		data.Totals.Published += row.Published
		data.Totals.Drafts += row.Drafts
		data.Totals.Featured += row.Featured
		data.Totals.Downloads += row.Downloads
		data.Totals.Views += row.Views
		data.Kinds = append(data.Kinds, row)
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].UpdatedTime().After(merged[b].UpdatedTime())
	})
	if len(merged) > recentLimit {
		merged = merged[:recentLimit]
	}
	for _, rec := range merged {
		row := recentRow{
			Type:    labels[rec.Type],
			Title:   rec.Title,
			Status:  rec.Status,
			EditURL: "/admin/" + rec.Type + "/" + url.PathEscape(rec.ID) + "/edit",
		}
		if t := rec.UpdatedTime(); !t.IsZero() {
			row.Updated = t.Format("Jan 2, 2006")
		}
		data.Recent = append(data.Recent, row)
	}
	return data
}
