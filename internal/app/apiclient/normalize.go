package apiclient

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dalemusser/neurohub/internal/domain/models"
)

// NormalizeRecord converts one backend object into a models.Record.
//
// Every field has a fallback, so partially populated or legacy objects never
// leave empty holes: strings fall back to "", slices to an empty non-nil
// slice, counters to 0 and a missing status to models.DefaultStatus.
// snake_case keys are preferred; their camelCase spelling is accepted too.
func NormalizeRecord(k models.Kind, raw map[string]any) models.Record {
	rec := models.Record{
		ID:              str(raw, "id", "pk", "uuid"),
		Title:           str(raw, "title", "name"),
		Description:     str(raw, "description", "summary", "content"),
		Category:        str(raw, "category", "category_name"),
		Status:          normalizeStatus(str(raw, "status")),
		Language:        str(raw, "language"),
		IsFeatured:      boolean(raw, "is_featured", "featured"),
		Tags:            strList(raw, models.FieldTags),
		Keywords:        strList(raw, models.FieldKeywords),
		TargetAudience:  strList(raw, models.FieldTargetAudience, "audience"),
		Authors:         strList(raw, models.FieldAuthors, "author"),
		DownloadCount:   counter(raw, "download_count", "downloads"),
		ViewCount:       counter(raw, "view_count", "views"),
		CreatedAt:       str(raw, "created_at"),
		UpdatedAt:       str(raw, "updated_at", "modified_at"),
		PublicationDate: str(raw, "publication_date", "published_at", "date"),
		Extra:           map[string]string{},
	}

	imageKeys := []string{"image", "image_url", "cover_image", "thumbnail"}
	if k.ImageField != "" {
		imageKeys = append([]string{k.ImageField}, imageKeys...)
	}
	rec.ImageURL = str(raw, imageKeys...)

	fileKeys := []string{"file", "file_url", "document", "pdf_file"}
	if k.DocumentField != "" {
		fileKeys = append([]string{k.DocumentField}, fileKeys...)
	}
	rec.FileURL = str(raw, fileKeys...)

	for _, f := range k.Extras {
		if v := str(raw, f.Key); v != "" {
			rec.Extra[f.Key] = v
		}
	}
	return rec
}

func normalizeAnalytics(k models.Kind, raw map[string]any) models.Analytics {
	a := models.Analytics{
		Total:          counter(raw, "total", "total_count", "count"),
		Published:      counter(raw, "published", "published_count"),
		Drafts:         counter(raw, "drafts", "draft", "draft_count"),
		Archived:       counter(raw, "archived", "archived_count"),
		Featured:       counter(raw, "featured", "featured_count"),
		TotalDownloads: counter(raw, "total_downloads", "downloads"),
		TotalViews:     counter(raw, "total_views", "views"),
		ByCategory:     map[string]int{},
		TopDownloaded:  []models.Record{},
	}

	switch v := lookup(raw, "by_category", "category_breakdown", "categories"); cats := v.(type) {
	case map[string]any:
		for name, n := range cats {
			a.ByCategory[name] = toInt(n)
		}
	case []any:
		// [{"category": "Medication", "count": 3}, ...]
		for _, item := range cats {
			if m, ok := item.(map[string]any); ok {
				if name := str(m, "category", "name"); name != "" {
					a.ByCategory[name] = counter(m, "count", "total")
				}
			}
		}
	}

	if top, ok := lookup(raw, "top_downloaded", "top_downloads", "most_downloaded").([]any); ok {
		for _, item := range top {
			if m, ok := item.(map[string]any); ok {
				a.TopDownloaded = append(a.TopDownloaded, NormalizeRecord(k, m))
			}
		}
	}
	return a
}

var knownStatuses = []string{
	models.StatusDraft, models.StatusPublished, models.StatusArchived, models.StatusUnderReview,
}

func normalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.DefaultStatus
	}
	spaced := strings.ReplaceAll(s, "_", " ")
	for _, known := range knownStatuses {
		if strings.EqualFold(known, spaced) {
			return known
		}
	}
	return s
}

// lookup returns the first present value among keys, trying each key as
// given and then its camelCase spelling.
func lookup(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
		if c := camel(k); c != k {
			if v, ok := raw[c]; ok && v != nil {
				return v
			}
		}
	}
	return nil
}

func camel(snake string) string {
	if !strings.Contains(snake, "_") {
		return snake
	}
	parts := strings.Split(snake, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

func str(raw map[string]any, keys ...string) string {
	return toString(lookup(raw, keys...))
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		// nested relation, e.g. "category": {"id": 2, "name": "Medication"}
		return str(t, "name", "label", "title")
	default:
		return ""
	}
}

func boolean(raw map[string]any, keys ...string) bool {
	switch t := lookup(raw, keys...).(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case json.Number:
		n, err := t.Float64()
		return err == nil && n != 0
	case float64:
		return t != 0
	}
	return false
}

func counter(raw map[string]any, keys ...string) int {
	return toInt(lookup(raw, keys...))
}

func toInt(v any) int {
	var n int
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n = int(i)
		} else if f, err := t.Float64(); err == nil {
			n = int(f)
		}
	case float64:
		n = int(t)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			n = i
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// strList reads an array field. Non-string entries are dropped. Legacy
// records may carry the array JSON-encoded in a string, or as a
// comma-separated string; both are decoded.
func strList(raw map[string]any, keys ...string) []string {
	out := []string{}
	switch t := lookup(raw, keys...).(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			var items []any
			if json.Unmarshal([]byte(s), &items) == nil {
				return strList(map[string]any{"v": items}, "v")
			}
			return out
		}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// stringsFrom reads a metadata endpoint body: a bare array, or an object
// wrapping it under "results" or the endpoint's own name.
func stringsFrom(v any, wrapKeys ...string) []string {
	switch t := v.(type) {
	case []any:
		return strList(map[string]any{"v": t}, "v")
	case map[string]any:
		for _, k := range append([]string{"results"}, wrapKeys...) {
			if items, ok := t[k].([]any); ok {
				return strList(map[string]any{"v": items}, "v")
			}
		}
	}
	return []string{}
}
