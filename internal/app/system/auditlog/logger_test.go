package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/store/audit"
	"github.com/dalemusser/neurohub/internal/app/system/auditlog"
	"github.com/dalemusser/neurohub/internal/testutil"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, "1", "editor")
	logger.Logout(ctx, req, "1", "editor")
	logger.RecordCreated(ctx, req, auditlog.Actor{UserID: "1"}, "news", "5", "Title")
}

func TestLogger_ModeDecidesStorage(t *testing.T) {
	tests := []struct {
		mode   string
		stored int64
	}{
		{auditlog.ModeAll, 1},
		{auditlog.ModeDB, 1},
		{auditlog.ModeLog, 0},
		{auditlog.ModeOff, 0},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: tt.mode, Admin: tt.mode})
			logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/login", nil), "7", "editor")

			n, err := store.CountByFilter(ctx, audit.QueryFilter{UserID: "7"})
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != tt.stored {
				t.Errorf("stored: got %d, want %d", n, tt.stored)
			}
		})
	}
}

func TestLogger_NilStore(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := auditlog.New(nil, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB})
	logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/login", nil), "7", "editor")
}

func TestLogger_LoginFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("POST", "/login", nil)
	logger.LoginFailed(ctx, req, "someone", "invalid credentials")

	events, err := store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != audit.EventLoginFailed {
		t.Errorf("EventType: got %q, want %q", event.EventType, audit.EventLoginFailed)
	}
	if event.Success {
		t.Error("expected Success to be false")
	}
	if event.Actor != "someone" || event.FailureReason != "invalid credentials" {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestLogger_LoginFailedRateLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
	logger.LoginFailedRateLimit(ctx, httptest.NewRequest("POST", "/login", nil), "someone", "ip")

	events, _ := store.Query(ctx, audit.QueryFilter{EventType: audit.EventLoginRateLimit})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Details["limit_type"] != "ip" {
		t.Errorf("Details: got %v", events[0].Details)
	}
}

func TestLogger_RecordEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Admin: "db"})
	req := httptest.NewRequest("POST", "/admin/ebooklets/12/featured", nil)
	actor := auditlog.Actor{UserID: "1", Name: "editor"}

	logger.RecordCreated(ctx, req, actor, "ebooklets", "12", "Seizure First Aid")
	logger.RecordFeaturedToggled(ctx, req, actor, "ebooklets", "12", true)
	logger.RecordStatusChanged(ctx, req, actor, "ebooklets", "12", "Published")

	history, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAdmin, Kind: "ebooklets", RecordID: "12"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 events, got %d", len(history))
	}

	byType := map[string]audit.Event{}
	for _, e := range history {
		byType[e.EventType] = e
	}
	if e := byType[audit.EventRecordCreated]; e.Details["title"] != "Seizure First Aid" || e.Actor != "editor" {
		t.Errorf("created event: %+v", e)
	}
	if e := byType[audit.EventRecordFeatured]; e.Details["featured"] != "true" {
		t.Errorf("featured event: %+v", e)
	}
	if e := byType[audit.EventRecordStatusChanged]; e.Details["status"] != "Published" {
		t.Errorf("status event: %+v", e)
	}
}

func TestLogger_AuthCategoryFilteredByConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:  "off",
		Admin: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)
	logger.LoginSuccess(ctx, req, "1", "editor")
	logger.RecordDeleted(ctx, req, auditlog.Actor{UserID: "1", Name: "editor"}, "news", "3", "Old news")

	authCount, _ := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if authCount != 0 {
		t.Error("expected no auth events when auth config is 'off'")
	}
	adminCount, _ := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAdmin})
	if adminCount != 1 {
		t.Errorf("expected 1 admin event, got %d", adminCount)
	}
}

func TestLogger_RecordsForwardedIP(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB})
	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.195, 10.0.0.1")
	req.Header.Set("User-Agent", "test-agent")
	logger.LoginSuccess(ctx, req, "9", "editor")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: "9"})
	if err != nil || len(events) != 1 {
		t.Fatalf("Query: %v, %d events", err, len(events))
	}
	if events[0].IP != "203.0.113.195" || events[0].UserAgent != "test-agent" {
		t.Errorf("request fields: IP %q, UA %q", events[0].IP, events[0].UserAgent)
	}
}

func TestValid(t *testing.T) {
	for _, v := range []string{"all", "db", "log", "off"} {
		if !auditlog.Valid(v) {
			t.Errorf("Valid(%q) = false", v)
		}
	}
	for _, v := range []string{"", "ALL", "mongo"} {
		if auditlog.Valid(v) {
			t.Errorf("Valid(%q) = true", v)
		}
	}
}
