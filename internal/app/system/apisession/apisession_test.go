package apisession_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	"github.com/dalemusser/neurohub/internal/app/store/audit"
	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/dalemusser/neurohub/internal/app/system/apisession"
	"github.com/dalemusser/neurohub/internal/app/system/auditlog"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/neurohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newGate(t *testing.T) (*apisession.Gate, *testutil.FakeAPI, *sessions.Store, *audit.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	api := testutil.NewFakeAPI(t)
	client, err := apiclient.New(api.URL(), apiclient.Options{})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	sessStore := sessions.New(db)
	auditStore := audit.New(db)
	gate := apisession.New(client, sessStore, sm, auditlog.New(auditStore, zap.NewNop(), auditlog.Config{Auth: "db"}), zap.NewNop())
	return gate, api, sessStore, auditStore, testutil.NewFixtures(t, db)
}

func TestGate_ClientCarriesToken(t *testing.T) {
	gate, api, _, _, _ := newGate(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	news, _ := models.KindBySlug("news")
	req := testutil.NewAuthenticatedRequest("GET", "/admin/news", testutil.AdminUser())
	if _, err := gate.Client(req).Resource(news).List(ctx, apiclient.ListParams{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := api.LastAuthorization(); got != "Bearer test-token" {
		t.Errorf("Authorization: got %q", got)
	}
}

func TestGate_RejectedClosesSession(t *testing.T) {
	gate, api, sessStore, auditStore, fx := newGate(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	api.RequireToken("a-different-token")
	user := fx.SignIn(ctx, testutil.AdminUser())
	news, _ := models.KindBySlug("news")

	req := testutil.NewAuthenticatedRequest("GET", "/admin/news?tab=draft", user)
	_, err := gate.Client(req).Resource(news).List(ctx, apiclient.ListParams{})
	if err == nil {
		t.Fatal("expected a 401 from the backend")
	}

	rec := httptest.NewRecorder()
	if !gate.Rejected(rec, req, err) {
		t.Fatal("Rejected should handle a 401")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?return=") {
		t.Errorf("Location: got %q", loc)
	}

	id, _ := primitive.ObjectIDFromHex(user.SessionID)
	sess, err := sessStore.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sess.Open() || sess.EndReason != sessions.EndRejected {
		t.Errorf("session should be closed as rejected: %+v", sess)
	}
	if n, _ := auditStore.CountByFilter(ctx, audit.QueryFilter{EventType: audit.EventSessionRejected}); n != 1 {
		t.Errorf("session_rejected events: got %d, want 1", n)
	}
}

func TestGate_RejectedHTMX(t *testing.T) {
	gate, _, _, _, _ := newGate(t)
	req := testutil.HTMX(testutil.NewAuthenticatedRequest("POST", "/admin/news/3/featured", testutil.AdminUser()), "")
	rec := httptest.NewRecorder()

	err := &apiclient.Error{Kind: apiclient.KindStatus, Status: http.StatusUnauthorized, Message: "expired"}
	if !gate.Rejected(rec, req, err) {
		t.Fatal("Rejected should handle a 401")
	}
	if !strings.HasPrefix(rec.Header().Get("HX-Redirect"), "/login?return=") {
		t.Errorf("HX-Redirect: got %q", rec.Header().Get("HX-Redirect"))
	}
}

func TestGate_OtherErrorsPassThrough(t *testing.T) {
	gate, _, _, _, _ := newGate(t)
	req := testutil.NewAuthenticatedRequest("GET", "/admin", testutil.AdminUser())
	rec := httptest.NewRecorder()

	for _, err := range []error{
		errors.New("boom"),
		&apiclient.Error{Kind: apiclient.KindStatus, Status: http.StatusForbidden},
		&apiclient.Error{Kind: apiclient.KindTransport, Err: errors.New("refused")},
	} {
		if gate.Rejected(rec, req, err) {
			t.Errorf("Rejected(%v) should not handle the error", err)
		}
	}
	if rec.Code != http.StatusOK || len(rec.Header()) != 0 {
		t.Error("nothing should be written for unhandled errors")
	}
}
