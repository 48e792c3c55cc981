package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	"github.com/dalemusser/neurohub/internal/app/features/health"
	"github.com/dalemusser/neurohub/internal/testutil"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Backend  string `json:"backend"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	var body response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_AllUp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := testutil.NewFakeAPI(t)
	client, err := apiclient.New(api.URL(), apiclient.Options{})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	handler := health.NewHandler(db.Client(), client, zap.NewNop())

	rec, body := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	if body.Status != "ok" || body.Database != "connected" || body.Backend != "reachable" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestServe_BackendDown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := testutil.NewFakeAPI(t)
	api.Fail("GET", "/api/", http.StatusBadGateway, `{"error":"upstream"}`)
	client, err := apiclient.New(api.URL(), apiclient.Options{})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	handler := health.NewHandler(db.Client(), client, zap.NewNop())

	rec, body := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("backend outage should not fail the probe, got %d", rec.Code)
	}
	if body.Status != "degraded" || body.Backend != "unreachable" {
		t.Errorf("unexpected body: %+v", body)
	}
}
