package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/neurohub/internal/domain/models"
	"go.uber.org/zap"
)

// ListParams are the server-side filters of GET /api/<resource>/.
// Zero values are not sent.
type ListParams struct {
	Status   string
	Category string
	Search   string
	Featured *bool
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Featured != nil {
		q.Set("featured", strconv.FormatBool(*p.Featured))
	}
	return q
}

// Resource is the set of operations for one catalog kind.
type Resource struct {
	c    *Client
	kind models.Kind
}

// Kind returns the kind this Resource serves.
func (r *Resource) Kind() models.Kind { return r.kind }

func (r *Resource) url(parts ...string) string {
	return r.c.endpoint(append([]string{r.kind.APIPath}, parts...)...)
}

func (r *Resource) normalize(raw map[string]any) models.Record {
	rec := NormalizeRecord(r.kind, raw)
	rec.ImageURL = r.c.absolute(rec.ImageURL)
	rec.FileURL = r.c.absolute(rec.FileURL)
	return rec
}

// List fetches every record matching p. A bare JSON array and a paginated
// {"results": [...]} body are both accepted.
func (r *Resource) List(ctx context.Context, p ListParams) ([]models.Record, error) {
	var body any
	if err := r.c.do(ctx, http.MethodGet, r.url(), p.values(), nil, "", &body); err != nil {
		return nil, err
	}

	var items []any
	switch t := body.(type) {
	case []any:
		items = t
	case map[string]any:
		res, ok := t["results"].([]any)
		if !ok {
			return nil, &Error{Kind: KindDecode, Op: "GET " + r.url(), Message: "list body is not an array"}
		}
		items = res
	case nil:
		items = nil
	default:
		return nil, &Error{Kind: KindDecode, Op: "GET " + r.url(), Message: "list body is not an array"}
	}

	out := make([]models.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, r.normalize(m))
		}
	}
	return out, nil
}

// ListOrEmpty is List for views that already render an empty state: a
// failure is logged and an empty slice returned.
func (r *Resource) ListOrEmpty(ctx context.Context, p ListParams) []models.Record {
	recs, err := r.List(ctx, p)
	if err != nil {
		r.c.log.Warn("list failed; rendering empty",
			zap.String("kind", r.kind.Slug), zap.Error(err))
		return []models.Record{}
	}
	return recs
}

// Get fetches one record.
func (r *Resource) Get(ctx context.Context, id string) (models.Record, error) {
	var body map[string]any
	if err := r.c.do(ctx, http.MethodGet, r.url(id), nil, nil, "", &body); err != nil {
		return models.Record{}, err
	}
	return r.normalize(body), nil
}

// Create posts a new record as multipart/form-data.
func (r *Resource) Create(ctx context.Context, in RecordInput) (models.Record, error) {
	return r.send(ctx, http.MethodPost, r.url(), in)
}

// Update patches an existing record as multipart/form-data.
func (r *Resource) Update(ctx context.Context, id string, in RecordInput) (models.Record, error) {
	return r.send(ctx, http.MethodPatch, r.url(id), in)
}

func (r *Resource) send(ctx context.Context, method, endpoint string, in RecordInput) (models.Record, error) {
	buf, ct, err := encodeRecordInput(r.kind, in)
	if err != nil {
		return models.Record{}, fmt.Errorf("encode %s payload: %w", r.kind.Slug, err)
	}
	var body map[string]any
	if err := r.c.do(ctx, method, endpoint, nil, buf, ct, &body); err != nil {
		return models.Record{}, err
	}
	return r.normalize(body), nil
}

// Delete removes a record. A record that is already gone counts as deleted.
func (r *Resource) Delete(ctx context.Context, id string) error {
	err := r.c.do(ctx, http.MethodDelete, r.url(id), nil, nil, "", nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// ToggleFeatured flips is_featured and returns the new value. When the
// response does not carry the flag, the single record is re-read.
func (r *Resource) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	var body map[string]any
	if err := r.c.do(ctx, http.MethodPost, r.url(id, "toggle_featured"), nil, nil, "", &body); err != nil {
		return false, err
	}
	if v := lookup(body, "is_featured", "featured"); v != nil {
		return boolean(body, "is_featured", "featured"), nil
	}
	rec, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return rec.IsFeatured, nil
}

// UpdateStatus sets the record's status and returns the status the backend
// reports (or the requested one when the response omits it).
func (r *Resource) UpdateStatus(ctx context.Context, id, status string) (string, error) {
	payload, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return "", fmt.Errorf("encode status: %w", err)
	}
	var body map[string]any
	if err := r.c.do(ctx, http.MethodPatch, r.url(id, "update_status"), nil,
		bytes.NewReader(payload), "application/json", &body); err != nil {
		return "", err
	}
	if s := str(body, "status"); s != "" {
		return normalizeStatus(s), nil
	}
	return status, nil
}

// IncrementDownload bumps download_count.
func (r *Resource) IncrementDownload(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodPost, r.url(id, "increment_download"), nil, nil, "", nil)
}

// IncrementView bumps view_count.
func (r *Resource) IncrementView(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodPost, r.url(id, "increment_view"), nil, nil, "", nil)
}

// Analytics fetches the aggregate counters for the kind.
func (r *Resource) Analytics(ctx context.Context) (models.Analytics, error) {
	if !r.kind.HasAnalytics {
		return models.Analytics{}, ErrUnsupported
	}
	var body map[string]any
	if err := r.c.do(ctx, http.MethodGet, r.url("analytics"), nil, nil, "", &body); err != nil {
		return models.Analytics{}, err
	}
	return normalizeAnalytics(r.kind, body), nil
}

// Categories lists the distinct categories known to the backend.
func (r *Resource) Categories(ctx context.Context) ([]string, error) {
	return r.metadata(ctx, "categories")
}

// TargetAudiences lists the distinct target audiences.
func (r *Resource) TargetAudiences(ctx context.Context) ([]string, error) {
	if !r.kind.HasAudiences {
		return nil, ErrUnsupported
	}
	return r.metadata(ctx, "target_audiences")
}

// Authors lists the distinct authors.
func (r *Resource) Authors(ctx context.Context) ([]string, error) {
	if !r.kind.HasAuthors {
		return nil, ErrUnsupported
	}
	return r.metadata(ctx, "authors")
}

func (r *Resource) metadata(ctx context.Context, name string) ([]string, error) {
	var body any
	if err := r.c.do(ctx, http.MethodGet, r.url(name), nil, nil, "", &body); err != nil {
		return nil, err
	}
	return stringsFrom(body, name), nil
}
