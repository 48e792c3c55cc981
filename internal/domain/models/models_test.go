package models

import (
	"testing"
	"time"
)

func TestKindBySlug(t *testing.T) {
	k, ok := KindBySlug(" Ebooklets ")
	if !ok {
		t.Fatal("expected ebooklets to resolve")
	}
	if k.DocumentField != "file" || !k.DocumentRequired {
		t.Errorf("ebooklets document: got %q required=%v", k.DocumentField, k.DocumentRequired)
	}
	if _, ok := KindBySlug("podcasts"); ok {
		t.Error("unknown slug should not resolve")
	}
}

func TestKinds_ReturnsCopy(t *testing.T) {
	ks := Kinds()
	ks[0].Slug = "changed"
	if Kinds()[0].Slug == "changed" {
		t.Error("Kinds must not expose the package slice")
	}
}

func TestKinds_SlugsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		if seen[k.Slug] {
			t.Errorf("duplicate slug %q", k.Slug)
		}
		seen[k.Slug] = true
		if len(k.Statuses) == 0 {
			t.Errorf("%s has no statuses", k.Slug)
		}
	}
}

func TestCanonicalStatus(t *testing.T) {
	pub, _ := KindBySlug("publications")
	if got, ok := pub.CanonicalStatus("under review"); !ok || got != StatusUnderReview {
		t.Errorf("publications: got %q ok=%v", got, ok)
	}

	eb, _ := KindBySlug("ebooklets")
	if _, ok := eb.CanonicalStatus("Under Review"); ok {
		t.Error("ebooklets should not accept Under Review")
	}
}

func TestRecord_UpdatedTimeFallsBackToCreated(t *testing.T) {
	r := Record{CreatedAt: "2026-01-02T03:04:05Z"}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := r.UpdatedTime(); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	r.UpdatedAt = "2026-05-01"
	if got := r.UpdatedTime(); got.Month() != time.May {
		t.Errorf("got %v, want May", got)
	}

	if !(Record{}).UpdatedTime().IsZero() {
		t.Error("empty record should yield zero time")
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{
		"2026-03-01T10:00:00Z",
		"2026-03-01T10:00:00.123456+02:00",
		"2026-03-01T10:00:00.123456",
		"2026-03-01 10:00:00",
		"2026-03-01",
	} {
		if _, ok := ParseTimestamp(s); !ok {
			t.Errorf("ParseTimestamp(%q) failed", s)
		}
	}
	if _, ok := ParseTimestamp("yesterday"); ok {
		t.Error("expected failure for free text")
	}
}
