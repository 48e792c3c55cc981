package home

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	"github.com/dalemusser/neurohub/internal/app/system/catalogview"
	"github.com/dalemusser/neurohub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	API           *apiclient.Client
	Log           *zap.Logger
	FeaturedLimit int
}

func NewHandler(api *apiclient.Client, featuredLimit int, logger *zap.Logger) *Handler {
	if featuredLimit <= 0 {
		featuredLimit = catalogview.DefaultFeaturedLimit
	}
	return &Handler{
		API:           api,
		Log:           logger,
		FeaturedLimit: featuredLimit,
	}
}

type kindTile struct {
	Label     string
	Singular  string
	Href      string
	Published int
}

type featuredCard struct {
	Type     string
	Title    string
	Excerpt  string
	ImageURL string
	Href     string
}

type homeData struct {
	viewdata.BaseVM
	Tiles         []kindTile
	Featured      []featuredCard
	FeaturedTotal int
	CanToggle     bool
	ShowAll       bool
	ToggleURL     string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	kinds := models.Kinds()
	published := h.fetchPublished(ctx, kinds)
	showAll := query.Get(r, "featured") == "all"

	data := buildHomeData(kinds, published, h.FeaturedLimit, showAll)
	data.BaseVM = viewdata.NewBaseVM(r, "Welcome", "/")

	templates.Render(w, r, "home", data)
}

// fetchPublished loads every kind's published records in parallel. The
// landing page degrades per kind: a failed kind simply has no records.
func (h *Handler) fetchPublished(ctx context.Context, kinds []models.Kind) [][]models.Record {
	out := make([][]models.Record, len(kinds))
	var g errgroup.Group
	for i, k := range kinds {
		g.Go(func() error {
			out[i] = h.API.Resource(k).ListOrEmpty(ctx, apiclient.ListParams{Status: models.StatusPublished})
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func buildHomeData(kinds []models.Kind, published [][]models.Record, limit int, showAll bool) homeData {
	var data homeData
	var merged []models.Record
	for i, k := range kinds {
		data.Tiles = append(data.Tiles, kindTile{
			Label:     k.Label,
			Singular:  k.Singular,
			Href:      "/" + k.Slug,
			Published: len(published[i]),
		})
		for _, rec := range published[i] {
			if !rec.IsPublished() {
				continue
			}
			rec.Type = k.Slug
			merged = append(merged, rec)
		}
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].UpdatedTime().After(merged[b].UpdatedTime())
	})

	set := catalogview.Featured(merged, limit, showAll)
	labels := map[string]string{}
	for _, k := range kinds {
		labels[k.Slug] = k.Singular
	}
	for _, rec := range set.Items {
		data.Featured = append(data.Featured, featuredCard{
			Type:     labels[rec.Type],
			Title:    rec.Title,
			Excerpt:  htmlsanitize.Excerpt(rec.Description, 160),
			ImageURL: rec.ImageURL,
			Href:     "/" + rec.Type + "/" + url.PathEscape(rec.ID),
		})
	}
	data.FeaturedTotal = set.Total
	data.CanToggle = set.CanToggle
	data.ShowAll = set.ShowAll
	data.ToggleURL = "/?featured=all"
	if showAll {
		data.ToggleURL = "/"
	}
	return data
}
