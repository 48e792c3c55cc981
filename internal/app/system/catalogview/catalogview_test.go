package catalogview

import (
	"fmt"
	"math"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/neurohub/internal/domain/models"
)

func rec(id, title, status string) models.Record {
	return models.Record{ID: id, Title: title, Status: status, Tags: []string{}, TargetAudience: []string{}}
}

func fiveEbooklets() []models.Record {
	return []models.Record{
		rec("1", "Understanding Epilepsy", models.StatusPublished),
		rec("2", "Seizure First Aid", models.StatusPublished),
		rec("3", "Medication Diary", models.StatusDraft),
		rec("4", "School Plans", models.StatusDraft),
		rec("5", "Sleep and Seizures", models.StatusDraft),
	}
}

func ebookletKind(t *testing.T) models.Kind {
	t.Helper()
	k, ok := models.KindBySlug("ebooklets")
	if !ok {
		t.Fatal("ebooklets kind missing")
	}
	return k
}

func TestPublishedTab_ShowsOnlyPublished(t *testing.T) {
	tabs := TabsFor(ebookletKind(t))
	published := TabByKey(tabs, "published")

	got := Apply(fiveEbooklets(), Filter{Tab: published})
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Title != "Understanding Epilepsy" || got[1].Title != "Seizure First Aid" {
		t.Errorf("unexpected titles: %q, %q", got[0].Title, got[1].Title)
	}

	for _, tc := range TabCounts(fiveEbooklets(), tabs, published) {
		switch tc.Key {
		case "all":
			if tc.Count != 5 {
				t.Errorf("all: got %d, want 5", tc.Count)
			}
		case "published":
			if tc.Count != 2 || !tc.Active {
				t.Errorf("published: got %d active=%v, want 2 active", tc.Count, tc.Active)
			}
		case "draft":
			if tc.Count != 3 {
				t.Errorf("draft: got %d, want 3", tc.Count)
			}
		}
	}
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	got := Apply(fiveEbooklets(), Filter{Tab: TabAll, Search: "EPILEPSY"})
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("got %v, want only record 1", got)
	}
}

func TestSearch_DescriptionAndTags(t *testing.T) {
	records := []models.Record{
		{ID: "a", Title: "One", Description: "covers epilepsy surgery"},
		{ID: "b", Title: "Two", Tags: []string{"Epilepsy"}},
	}
	if got := Apply(records, Filter{Search: "epilepsy"}); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("without tags: got %v", got)
	}
	if got := Apply(records, Filter{Search: "epilepsy", SearchTags: true}); len(got) != 2 {
		t.Errorf("with tags: got %d, want 2", len(got))
	}
}

func TestFilter_Conjunction(t *testing.T) {
	records := []models.Record{
		{ID: "1", Title: "Epilepsy Basics", Status: models.StatusPublished, Category: "Basics", Language: "en", TargetAudience: []string{"Parents"}},
		{ID: "2", Title: "Epilepsy Basics ES", Status: models.StatusPublished, Category: "Basics", Language: "es", TargetAudience: []string{"Parents"}},
		{ID: "3", Title: "Epilepsy at School", Status: models.StatusDraft, Category: "Basics", Language: "en", TargetAudience: []string{"Teachers"}},
		{ID: "4", Title: "Medication", Status: models.StatusPublished, Category: "Medication", Language: "en", TargetAudience: []string{"parents"}},
	}
	full := Filter{Tab: TabPublished, Search: "epilepsy", Category: "basics", Language: "EN", Audience: "Parents"}

	got := Apply(records, full)
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("full filter: got %v, want only 1", got)
	}

	// Relaxing any single predicate must never shrink the result.
	relaxed := []Filter{full, full, full, full, full}
	relaxed[0].Tab = TabAll
	relaxed[1].Search = ""
	relaxed[2].Category = ""
	relaxed[3].Language = ""
	relaxed[4].Audience = ""
	for i, f := range relaxed {
		if n := len(Apply(records, f)); n < len(got) {
			t.Errorf("relaxed[%d]: %d results, fewer than %d", i, n, len(got))
		}
	}

	// Every output record satisfies every predicate.
	for _, r := range Apply(records, Filter{Tab: TabAll, Audience: "parents"}) {
		if r.ID == "3" {
			t.Error("record 3 does not target parents")
		}
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := fiveEbooklets()
	before := fmt.Sprint(in)
	_ = Apply(in, Filter{Tab: TabPublished})
	if fmt.Sprint(in) != before {
		t.Error("Apply modified its input")
	}
}

func twenty() []models.Record {
	out := make([]models.Record, 20)
	for i := range out {
		out[i] = rec(fmt.Sprint(i+1), fmt.Sprintf("Booklet %02d", i+1), models.StatusPublished)
	}
	return out
}

func TestWindow_LoadMore(t *testing.T) {
	records := twenty()
	w := DefaultWindow

	p := w.Slice(records, 0)
	if p.Visible != 8 || len(p.Items) != 8 || !p.HasMore {
		t.Fatalf("initial: got visible=%d items=%d more=%v", p.Visible, len(p.Items), p.HasMore)
	}

	p = w.Slice(records, 1)
	if p.Visible != 16 || len(p.Items) != 16 {
		t.Errorf("after one click: got %d, want 16", p.Visible)
	}

	p = w.Slice(records, 2)
	if p.Visible != 20 || p.HasMore {
		t.Errorf("after two clicks: got %d more=%v, want 20 and no more", p.Visible, p.HasMore)
	}
}

func TestWindow_Monotonic(t *testing.T) {
	w := Window{Initial: 3, Step: 4}
	records := twenty()
	prev := 0
	for n := 0; n < 10; n++ {
		p := w.Slice(records, n)
		want := 3 + n*4
		if want > len(records) {
			want = len(records)
		}
		if p.Visible != want {
			t.Errorf("clicks=%d: got %d, want %d", n, p.Visible, want)
		}
		if p.Visible < prev {
			t.Errorf("clicks=%d: visible shrank from %d to %d", n, prev, p.Visible)
		}
		for i, item := range p.Items {
			if item.ID != records[i].ID {
				t.Fatalf("clicks=%d: item %d is not a prefix of the input", n, i)
			}
		}
		prev = p.Visible
	}
}

func TestWindow_HugeClickCountShowsEverything(t *testing.T) {
	records := twenty()
	r := httptest.NewRequest("GET", "/ebooklets?more=2305843009213693951", nil)
	s := StateFromRequest(r, TabsFor(ebookletKind(t)))

	p := DefaultWindow.Slice(records, s.More)
	if p.Visible != 20 || p.HasMore {
		t.Errorf("got visible=%d more=%v, want 20 and no more", p.Visible, p.HasMore)
	}
	if got := DefaultWindow.Visible(math.MaxInt, 5); got != 5 {
		t.Errorf("MaxInt clicks: got %d, want 5", got)
	}
	if got := (Window{Initial: 4}).Visible(3, 20); got != 4 {
		t.Errorf("zero step: got %d, want 4", got)
	}
}

func TestFeatured_Sizing(t *testing.T) {
	records := twenty()
	for i := 0; i < 5; i++ {
		records[i*2].IsFeatured = true
	}

	def := Featured(records, DefaultFeaturedLimit, false)
	if len(def.Items) != 3 || def.Total != 5 || !def.CanToggle {
		t.Errorf("default: items=%d total=%d toggle=%v", len(def.Items), def.Total, def.CanToggle)
	}

	all := Featured(records, DefaultFeaturedLimit, true)
	if len(all.Items) != 5 {
		t.Errorf("show all: got %d, want 5", len(all.Items))
	}

	back := Featured(records, DefaultFeaturedLimit, false)
	if len(back.Items) != len(def.Items) {
		t.Error("toggling back should restore the capped view")
	}

	few := Featured(records[:3], DefaultFeaturedLimit, false)
	if len(few.Items) != 2 || few.CanToggle {
		t.Errorf("two featured: items=%d toggle=%v", len(few.Items), few.CanToggle)
	}
}

func TestEmpty(t *testing.T) {
	if Empty(0, 0) != NoData {
		t.Error("no records should be NoData")
	}
	if Empty(4, 0) != NoMatch {
		t.Error("filtered to nothing should be NoMatch")
	}
	if Empty(4, 1) != NotEmpty {
		t.Error("results should be NotEmpty")
	}
}

func TestResolveOptions(t *testing.T) {
	records := []models.Record{
		{Category: "Medication"}, {Category: "basics"}, {Category: "Medication"}, {Category: ""},
	}

	opts := ResolveOptions([]string{"Medication", "Caregivers", "medication"}, nil, records, OptionCategory)
	if opts.Derived || len(opts.Values) != 2 || opts.Values[1] != "Caregivers" {
		t.Errorf("endpoint: got %+v", opts)
	}

	opts = ResolveOptions(nil, fmt.Errorf("down"), records, OptionCategory)
	if !opts.Derived || len(opts.Values) != 2 || opts.Values[0] != "basics" {
		t.Errorf("derived: got %+v", opts)
	}
}

func TestUpsertAndRemove(t *testing.T) {
	records := fiveEbooklets()

	updated := rec("3", "Medication Diary (2nd ed.)", models.StatusPublished)
	got := Upsert(records, updated)
	if len(got) != 5 || got[2].Title != updated.Title {
		t.Errorf("replace: got %v", got)
	}
	if records[2].Title == updated.Title {
		t.Error("Upsert modified its input")
	}

	got = Upsert(records, rec("9", "New", models.StatusDraft))
	if len(got) != 6 || got[0].ID != "9" {
		t.Errorf("insert: got %v", got)
	}

	out, removed := Remove(records, "2")
	if !removed || len(out) != 4 {
		t.Fatalf("remove: removed=%v len=%d", removed, len(out))
	}
	again, removed := Remove(out, "2")
	if removed || len(again) != 4 {
		t.Errorf("second remove should be a no-op: removed=%v len=%d", removed, len(again))
	}
}

func TestExpandSet_Toggle(t *testing.T) {
	s := ParseExpandSet("3, 1,,")
	if !s.Has("1") || !s.Has("3") || len(s) != 2 {
		t.Fatalf("parse: got %v", s)
	}
	t2 := s.Toggle("1")
	if t2.Has("1") || !s.Has("1") {
		t.Error("Toggle must return a copy without the id")
	}
	if got := t2.Toggle("7").String(); got != "3,7" {
		t.Errorf("String: got %q", got)
	}
}

func TestStateFromRequest_RoundTrip(t *testing.T) {
	tabs := TabsFor(ebookletKind(t))
	r := httptest.NewRequest("GET", "/admin/ebooklets?tab=draft&q=sleep&more=2&expand=5&category=Caregivers", nil)

	s := StateFromRequest(r, tabs)
	if s.Filter.Tab.Status != models.StatusDraft || s.Filter.Search != "sleep" || s.More != 2 || !s.Expanded.Has("5") {
		t.Fatalf("parsed: %+v", s)
	}

	if got := s.LoadMoreURL("/x"); got != "/x?category=Caregivers&expand=5&more=3&q=sleep&tab=draft" {
		t.Errorf("LoadMoreURL: got %q", got)
	}
	if got := s.TabURL("/x", TabAll); got != "/x?category=Caregivers&expand=5&q=sleep" {
		t.Errorf("TabURL: got %q", got)
	}
	if got := s.ClearURL("/x"); got != "/x?tab=draft" {
		t.Errorf("ClearURL: got %q", got)
	}

	bad := StateFromRequest(httptest.NewRequest("GET", "/?tab=nope&more=-4", nil), tabs)
	if bad.Filter.Tab.Key != "all" || bad.More != 0 {
		t.Errorf("fallbacks: got tab=%q more=%d", bad.Filter.Tab.Key, bad.More)
	}
}
