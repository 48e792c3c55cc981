package apiclient

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dalemusser/neurohub/internal/domain/models"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return m
}

func ebooklets(t *testing.T) models.Kind {
	t.Helper()
	k, ok := models.KindBySlug("ebooklets")
	if !ok {
		t.Fatal("ebooklets kind missing")
	}
	return k
}

func TestNormalizeRecord_EmptyObjectHasFallbacks(t *testing.T) {
	rec := NormalizeRecord(ebooklets(t), map[string]any{})

	if rec.Status != models.StatusDraft {
		t.Errorf("Status: got %q, want %q", rec.Status, models.StatusDraft)
	}
	for name, list := range map[string][]string{
		"Tags": rec.Tags, "Keywords": rec.Keywords, "TargetAudience": rec.TargetAudience, "Authors": rec.Authors,
	} {
		if list == nil {
			t.Errorf("%s is nil, want empty slice", name)
		}
	}
	if rec.Extra == nil {
		t.Error("Extra is nil, want empty map")
	}
	if rec.DownloadCount != 0 || rec.ViewCount != 0 {
		t.Errorf("counters: got %d/%d, want 0/0", rec.DownloadCount, rec.ViewCount)
	}
}

func TestNormalizeRecord_SnakeCaseFields(t *testing.T) {
	raw := decode(t, `{
		"id": 42,
		"title": " Understanding Seizures ",
		"description": "A primer",
		"category": "Epilepsy Basics",
		"status": "published",
		"is_featured": true,
		"tags": ["seizures", 7, null, "first aid"],
		"target_audience": ["Parents"],
		"download_count": 12,
		"view_count": "30",
		"file": "https://cdn.example.org/a.pdf",
		"pages": 24,
		"updated_at": "2026-03-02T10:00:00Z"
	}`)

	rec := NormalizeRecord(ebooklets(t), raw)

	if rec.ID != "42" {
		t.Errorf("ID: got %q, want %q", rec.ID, "42")
	}
	if rec.Title != "Understanding Seizures" {
		t.Errorf("Title: got %q", rec.Title)
	}
	if rec.Status != models.StatusPublished {
		t.Errorf("Status: got %q, want %q", rec.Status, models.StatusPublished)
	}
	if !rec.IsFeatured {
		t.Error("IsFeatured: got false, want true")
	}
	if len(rec.Tags) != 2 || rec.Tags[0] != "seizures" || rec.Tags[1] != "first aid" {
		t.Errorf("Tags: got %v, want [seizures first aid]", rec.Tags)
	}
	if rec.DownloadCount != 12 || rec.ViewCount != 30 {
		t.Errorf("counters: got %d/%d, want 12/30", rec.DownloadCount, rec.ViewCount)
	}
	if rec.FileURL != "https://cdn.example.org/a.pdf" {
		t.Errorf("FileURL: got %q", rec.FileURL)
	}
	if rec.ExtraValue("pages") != "24" {
		t.Errorf("pages: got %q, want 24", rec.ExtraValue("pages"))
	}
}

func TestNormalizeRecord_CamelCaseAndLegacyArrays(t *testing.T) {
	raw := decode(t, `{
		"id": "abc",
		"name": "Legacy",
		"isFeatured": "true",
		"downloadCount": -3,
		"keywords": "[\"a\", \"b\"]",
		"authors": "Dr. Smith, Dr. Jones",
		"updatedAt": "2025-01-01"
	}`)

	rec := NormalizeRecord(ebooklets(t), raw)

	if rec.Title != "Legacy" {
		t.Errorf("Title: got %q, want Legacy", rec.Title)
	}
	if !rec.IsFeatured {
		t.Error("IsFeatured from camelCase string: got false")
	}
	if rec.DownloadCount != 0 {
		t.Errorf("negative counter: got %d, want 0", rec.DownloadCount)
	}
	if len(rec.Keywords) != 2 {
		t.Errorf("Keywords from JSON string: got %v", rec.Keywords)
	}
	if len(rec.Authors) != 2 || rec.Authors[1] != "Dr. Jones" {
		t.Errorf("Authors from comma list: got %v", rec.Authors)
	}
	if rec.UpdatedAt != "2025-01-01" {
		t.Errorf("UpdatedAt: got %q", rec.UpdatedAt)
	}
}

func TestNormalizeRecord_NestedCategory(t *testing.T) {
	raw := decode(t, `{"id": 1, "category": {"id": 3, "name": "Medication"}}`)
	rec := NormalizeRecord(ebooklets(t), raw)
	if rec.Category != "Medication" {
		t.Errorf("Category: got %q, want Medication", rec.Category)
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", models.StatusDraft},
		{"draft", models.StatusDraft},
		{"ARCHIVED", models.StatusArchived},
		{"under_review", models.StatusUnderReview},
		{"Under Review", models.StatusUnderReview},
		{"Scheduled", "Scheduled"},
	}
	for _, tc := range tests {
		if got := normalizeStatus(tc.in); got != tc.want {
			t.Errorf("normalizeStatus(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAnalytics(t *testing.T) {
	raw := decode(t, `{
		"total": 5, "published": 2, "drafts": 3, "total_downloads": 40,
		"by_category": [{"category": "Medication", "count": 2}, {"name": "Caregivers", "count": 3}],
		"top_downloaded": [{"id": 9, "title": "Top"}]
	}`)

	a := normalizeAnalytics(ebooklets(t), raw)

	if a.Total != 5 || a.Published != 2 || a.Drafts != 3 || a.TotalDownloads != 40 {
		t.Errorf("totals: got %+v", a)
	}
	if a.ByCategory["Medication"] != 2 || a.ByCategory["Caregivers"] != 3 {
		t.Errorf("ByCategory: got %v", a.ByCategory)
	}
	if len(a.TopDownloaded) != 1 || a.TopDownloaded[0].Title != "Top" {
		t.Errorf("TopDownloaded: got %v", a.TopDownloaded)
	}
}

func TestMessageFromBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error key", 400, `{"error": "Bad title"}`, "Bad title"},
		{"message key", 500, `{"message": "Boom"}`, "Boom"},
		{"detail key", 401, `{"detail": "Invalid token."}`, "Invalid token."},
		{"field errors", 400, `{"title": ["This field is required."], "file": ["No file."]}`,
			"file: No file.; title: This field is required."},
		{"empty", 502, ``, "HTTP error! status: 502"},
		{"not json", 500, `<html>oops</html>`, "HTTP error! status: 500"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := messageFromBody(tc.status, []byte(tc.body)); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
