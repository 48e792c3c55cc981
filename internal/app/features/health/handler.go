package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler reports whether MongoDB and the catalog backend are reachable.
type Handler struct {
	Client *mongo.Client
	API    *apiclient.Client
	Log    *zap.Logger
}

// NewHandler returns a Handler. api may be nil to skip the backend check.
func NewHandler(client *mongo.Client, api *apiclient.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		API:    api,
		Log:    logger,
	}
}

type report struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Backend  string `json:"backend,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve answers GET /health with a JSON report.
//
// MongoDB down: 503 with status "error". Every session and draft lives there.
// Catalog backend down: 200 with status "degraded" and backend "unreachable".
// Otherwise 200 {"status":"ok","database":"connected","backend":"reachable"}.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		writeReport(w, http.StatusServiceUnavailable, report{
			Status:   "error",
			Database: "disconnected",
			Message:  "Database unavailable",
			Error:    err.Error(),
		})
		return
	}

	rep := report{Status: "ok", Database: "connected", Backend: "reachable"}
	if h.API != nil {
		if err := h.API.Ping(ctx); err != nil {
			h.Log.Warn("health-check: catalog api ping failed", zap.Error(err))
			rep.Status = "degraded"
			rep.Backend = "unreachable"
			rep.Message = "Catalog backend unavailable"
			rep.Error = err.Error()
		}
	}
	writeReport(w, http.StatusOK, rep)
}

func writeReport(w http.ResponseWriter, status int, rep report) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rep)
}
