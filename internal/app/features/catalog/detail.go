// internal/app/features/catalog/detail.go
package catalog

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/neurohub/internal/app/system/navigation"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type fact struct {
	Label  string
	Value  string
	IsLink bool
}

type detailData struct {
	viewdata.BaseVM

	Kind        string
	Singular    string
	ID          string
	RecordTitle string
	Category    string
	Date        string
	ImageURL    string
	Description template.HTML
	Facts       []fact
	Tags        []string

	HasFile        bool
	DownloadAction string
	ReturnURL      string
	Downloads      int
	Views          int
}

// fetchPublished loads id and hides anything that is not published.
func (h *kindHandler) fetchPublished(ctx context.Context, id string) (models.Record, error) {
	rec, err := h.resource().Get(ctx, id)
	if err != nil {
		return models.Record{}, err
	}
	if !rec.IsPublished() {
		return models.Record{}, apiclient.ErrNotFound
	}
	return rec, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /{kind}/{id} – detail                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *kindHandler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := navigation.SafeBackURL(r, navigation.PublicListBackURL(h.kind.Slug))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	rec, err := h.fetchPublished(ctx, id)
	if errors.Is(err, apiclient.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That "+strings.ToLower(h.kind.Singular)+" could not be found.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogBadGateway(w, r, "public detail fetch failed", err,
			"We couldn't load this page right now. Please try again.", back)
		return
	}

	if err := h.resource().IncrementView(ctx, rec.ID); err != nil {
		h.Log.Warn("increment view failed", zap.String("kind", h.kind.Slug), zap.String("id", rec.ID), zap.Error(err))
	} else {
		rec.ViewCount++
	}

	data := buildDetailData(h.kind, rec)
	data.BaseVM = viewdata.NewBaseVM(r, rec.Title, back)
	data.BackURL = back
	data.ReturnURL = back
	templates.Render(w, r, "catalog_detail", data)
}

func buildDetailData(k models.Kind, rec models.Record) detailData {
	d := detailData{
		Kind:           k.Label,
		Singular:       k.Singular,
		ID:             rec.ID,
		RecordTitle:    rec.Title,
		Category:       rec.Category,
		ImageURL:       rec.ImageURL,
		Description:    htmlsanitize.PrepareForDisplay(rec.Description),
		Tags:           rec.Tags,
		HasFile:        rec.HasFile(),
		DownloadAction: "/" + k.Slug + "/" + url.PathEscape(rec.ID) + "/download",
		Downloads:      rec.DownloadCount,
		Views:          rec.ViewCount,
	}
	if t, ok := models.ParseTimestamp(rec.PublicationDate); ok {
		d.Date = t.Format("January 2, 2006")
	} else if t := rec.UpdatedTime(); !t.IsZero() {
		d.Date = t.Format("January 2, 2006")
	}

	add := func(label, value string, link bool) {
		if value = strings.TrimSpace(value); value != "" {
			d.Facts = append(d.Facts, fact{Label: label, Value: value, IsLink: link})
		}
	}
	add("Language", rec.Language, false)
	if k.HasAuthors {
		add("Authors", strings.Join(rec.Authors, ", "), false)
	}
	if k.HasAudiences {
		add("For", strings.Join(rec.TargetAudience, ", "), false)
	}
	for _, ex := range k.Extras {
		v := rec.ExtraValue(ex.Key)
		add(ex.Label, v, ex.Input == "url" && isWebURL(v))
	}
	return d
}

func isWebURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /{kind}/{id}/download – count then redirect to the file               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *kindHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := navigation.SafeBackURL(r, navigation.PublicListBackURL(h.kind.Slug))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	rec, err := h.fetchPublished(ctx, id)
	if errors.Is(err, apiclient.ErrNotFound) || (err == nil && !rec.HasFile()) {
		uierrors.RenderNotFound(w, r, "There is no file to download.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogBadGateway(w, r, "download lookup failed", err,
			"We couldn't start the download. Please try again.", back)
		return
	}

	// A failed counter never blocks the download.
	if err := h.resource().IncrementDownload(ctx, rec.ID); err != nil {
		h.Log.Warn("increment download failed",
			zap.String("kind", h.kind.Slug),
			zap.String("id", rec.ID),
			zap.Error(err))
	} else {
		h.Log.Debug("download counted",
			zap.String("kind", h.kind.Slug),
			zap.String("id", rec.ID),
			zap.Int("downloads", rec.DownloadCount+1))
	}
	http.Redirect(w, r, rec.FileURL, http.StatusSeeOther)
}
