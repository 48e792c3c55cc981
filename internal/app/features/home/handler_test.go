package home

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	homeviews "github.com/dalemusser/neurohub/internal/app/features/home/views"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/neurohub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	client, err := apiclient.New(api.URL(), apiclient.Options{})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return NewHandler(client, 3, zap.NewNop()), api
}

func TestFetchPublished_OnlyPublishedPerKind(t *testing.T) {
	h, api := newTestHandler(t)
	api.Seed("ebooklets",
		testutil.Record("Seizure First Aid", "Published", true),
		testutil.Record("Unfinished", "Draft", true),
	)
	api.Seed("news", testutil.Record("Awareness Month", "Published", false))
	api.Fail("GET", "/api/events/", 500, `{"error":"down"}`)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	kinds := models.Kinds()
	got := h.fetchPublished(ctx, kinds)

	counts := map[string]int{}
	for i, k := range kinds {
		counts[k.Slug] = len(got[i])
	}
	if counts["ebooklets"] != 1 || counts["news"] != 1 || counts["events"] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestBuildHomeData_FeaturedCapped(t *testing.T) {
	kinds := []models.Kind{{Slug: "news", Label: "News", Singular: "News Article"}}
	var recs []models.Record
	for i, ts := range []string{"2026-01-01", "2026-03-01", "2026-02-01", "2026-04-01", "2026-05-01"} {
		recs = append(recs, models.Record{
			ID: string(rune('a' + i)), Title: "T" + ts, Status: models.StatusPublished,
			IsFeatured: i != 0, UpdatedAt: ts,
		})
	}

	data := buildHomeData(kinds, [][]models.Record{recs}, 3, false)

	if len(data.Featured) != 3 || data.FeaturedTotal != 4 || !data.CanToggle {
		t.Fatalf("featured: got %d of %d (toggle %v)", len(data.Featured), data.FeaturedTotal, data.CanToggle)
	}
	if data.Featured[0].Title != "T2026-05-01" {
		t.Errorf("newest featured first, got %q", data.Featured[0].Title)
	}
	if data.Featured[0].Href != "/news/e" || data.Featured[0].Type != "News Article" {
		t.Errorf("card: %+v", data.Featured[0])
	}
	if data.Tiles[0].Published != 5 {
		t.Errorf("tile count: got %d", data.Tiles[0].Published)
	}

	all := buildHomeData(kinds, [][]models.Record{recs}, 3, true)
	if len(all.Featured) != 4 || all.ToggleURL != "/" {
		t.Errorf("show all: got %d, toggle %q", len(all.Featured), all.ToggleURL)
	}
}

func TestHomeTemplate(t *testing.T) {
	kinds := models.Kinds()
	published := make([][]models.Record, len(kinds))
	published[0] = []models.Record{{ID: "9", Title: "Living Well", Status: models.StatusPublished, IsFeatured: true}}

	data := buildHomeData(kinds, published, 3, false)
	data.BaseVM = viewdata.NewBaseVM(httptest.NewRequest("GET", "/", nil), "Welcome", "/")

	doc := testutil.RenderPage(t, "home", data, homeviews.FS)

	if n := doc.Find(".kind-tiles .tile").Length(); n != len(kinds) {
		t.Errorf("tiles: got %d, want %d", n, len(kinds))
	}
	if got := strings.TrimSpace(doc.Find(".featured-card h3").Text()); got != "Living Well" {
		t.Errorf("featured title: got %q", got)
	}
	if doc.Find(".featured .toggle").Length() != 0 {
		t.Error("no toggle expected with a single featured record")
	}
}
