package dashboard

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	dashboardviews "github.com/dalemusser/neurohub/internal/app/features/dashboard/views"
	"github.com/dalemusser/neurohub/internal/app/system/apisession"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/neurohub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.FakeAPI, *auth.SessionManager) {
	t.Helper()
	logger := zap.NewNop()
	api := testutil.NewFakeAPI(t)
	client, err := apiclient.New(api.URL(), apiclient.Options{Logger: logger})
	if err != nil {
		t.Fatalf("apiclient.New failed: %v", err)
	}
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	gate := apisession.New(client, nil, sm, nil, logger)
	return NewHandler(gate, 0, logger), api, sm
}

func TestNewHandler_DefaultsRecentLimit(t *testing.T) {
	h, _, _ := newTestHandler(t)
	if h.RecentLimit != DefaultRecentLimit {
		t.Errorf("RecentLimit: got %d, want %d", h.RecentLimit, DefaultRecentLimit)
	}
}

func TestCollect_SumsEveryKind(t *testing.T) {
	h, api, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	booklet := testutil.Record("Seizure First Aid", "Published", true)
	booklet["download_count"] = 4
	booklet["view_count"] = 10
	api.Seed("ebooklets", booklet, testutil.Record("Medication Diary", "Draft", false))
	api.Seed("news", testutil.Record("Awareness Month", "Published", false))

	req := testutil.NewAuthenticatedRequest("GET", "/admin", testutil.AdminUser())
	snap, err := h.collect(ctx, h.Gate.Client(req), models.Kinds())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	data := buildDashboardData(snap, h.RecentLimit)

	want := totals{Records: 3, Published: 2, Drafts: 1, Featured: 1, Downloads: 4, Views: 10}
	if data.Totals != want {
		t.Errorf("totals: got %+v, want %+v", data.Totals, want)
	}
	if len(data.Kinds) != len(models.Kinds()) {
		t.Errorf("one summary row per kind: got %d", len(data.Kinds))
	}
	if api.Calls("GET", "/api/ebooklets/analytics/") != 1 {
		t.Error("ebooklets publish analytics")
	}
	if api.Calls("GET", "/api/news/analytics/") != 0 {
		t.Error("news has no analytics endpoint")
	}
}

func TestCollect_FailsClosed(t *testing.T) {
	h, api, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	api.Seed("news", testutil.Record("Awareness Month", "Published", false))
	api.Fail("GET", "/api/events/", 500, `{"error":"boom"}`)

	snap, err := h.collect(ctx, h.Gate.API, models.Kinds())
	if err == nil {
		t.Fatal("a failed kind must fail the whole dashboard")
	}
	if snap.records != nil || snap.analytics != nil {
		t.Error("no partial snapshot is returned")
	}
}

func TestServeDashboard_RejectedTokenSignsOut(t *testing.T) {
	h, api, sm := newTestHandler(t)
	api.RequireToken("another-token")

	req := testutil.NewAuthenticatedRequest("GET", "/", testutil.AdminUser())
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	Routes(h, sm).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?return=") {
		t.Errorf("Location: got %q", loc)
	}
}

func TestServeDashboard_MemberForbidden(t *testing.T) {
	h, api, sm := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/", testutil.MemberUser())
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	Routes(h, sm).ServeHTTP(rec, req)

	if rec.Header().Get("Location") != "/forbidden" {
		t.Errorf("Location: got %q", rec.Header().Get("Location"))
	}
	if api.Calls("GET", "/api/ebooklets/") != 0 {
		t.Error("nothing is fetched for a forbidden request")
	}
}

func TestBuildDashboardData_RecentNewestFirst(t *testing.T) {
	kinds := models.Kinds()[:2]
	var booklets, pubs []models.Record
	for i := 1; i <= 5; i++ {
		booklets = append(booklets, models.Record{ID: fmt.Sprint(i), Title: fmt.Sprintf("Booklet %d", i), Status: models.StatusDraft,
			UpdatedAt: fmt.Sprintf("2026-03-%02dT10:00:00Z", i)})
		pubs = append(pubs, models.Record{ID: fmt.Sprint(i), Title: fmt.Sprintf("Paper %d", i), Status: models.StatusPublished,
			UpdatedAt: fmt.Sprintf("2026-03-%02dT12:00:00Z", i)})
	}
	snap := snapshot{
		kinds:     kinds,
		records:   [][]models.Record{booklets, pubs},
		analytics: make([]*models.Analytics, 2),
	}

	data := buildDashboardData(snap, 7)
	if len(data.Recent) != 7 {
		t.Fatalf("recent: got %d, want 7", len(data.Recent))
	}
	first := data.Recent[0]
	if first.Title != "Paper 5" || first.Type != "Publication" || first.EditURL != "/admin/publications/5/edit" {
		t.Errorf("newest: %+v", first)
	}
	if data.Recent[1].Title != "Booklet 5" {
		t.Errorf("second: got %q", data.Recent[1].Title)
	}
	if first.Updated != "Mar 5, 2026" {
		t.Errorf("Updated: got %q", first.Updated)
	}
}

func TestDashboardTemplate(t *testing.T) {
	req := httptest.NewRequest("GET", "/admin", nil)

	data := dashboardData{
		Totals: totals{Records: 3, Published: 2},
		Kinds:  []kindSummary{{Label: "News", Href: "/admin/news", totals: totals{Records: 1}}},
		Recent: []recentRow{{Type: "News Article", Title: "Awareness Month", EditURL: "/admin/news/1/edit"}},
	}
	data.BaseVM = viewdata.NewBaseVM(req, "Dashboard", "/admin")
	doc := testutil.RenderPage(t, "admin_dashboard", data, dashboardviews.FS)
	if got := doc.Find(".stat-value").First().Text(); got != "3" {
		t.Errorf("records card: got %q", got)
	}
	if doc.Find(".recent-list a[href='/admin/news/1/edit']").Length() != 1 {
		t.Error("recent rows link to the editor")
	}
	if doc.Find(".kind-summary td.muted").Length() != 2 {
		t.Error("kinds without analytics show placeholders")
	}

	failed := dashboardData{LoadError: viewdata.NewLoadError(req, "The dashboard could not be loaded.")}
	failed.BaseVM = viewdata.NewBaseVM(req, "Dashboard", "/admin")
	doc = testutil.RenderPage(t, "admin_dashboard", failed, dashboardviews.FS)
	if doc.Find(".error-card a.button").Length() != 1 {
		t.Error("the error card offers a retry")
	}
	if doc.Find(".stat-cards").Length() != 0 {
		t.Error("nothing partial renders after a failure")
	}
}

func TestBuildDashboardData_EscapesEditURL(t *testing.T) {
	kinds := models.Kinds()[:1]
	snap := snapshot{
		kinds:     kinds,
		records:   [][]models.Record{{{ID: "a/b", Title: "Odd id", Status: models.StatusDraft}}},
		analytics: make([]*models.Analytics, 1),
	}
	data := buildDashboardData(snap, 7)
	want := "/admin/" + kinds[0].Slug + "/a%2Fb/edit"
	if len(data.Recent) != 1 || data.Recent[0].EditURL != want {
		t.Errorf("recent: got %+v, want EditURL %q", data.Recent, want)
	}
}
