// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/dalemusser/neurohub/internal/app/system/auditlog"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Sessions   *sessions.Store
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, sessStore *sessions.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Sessions:   sessStore,
	}
}

// ServeLogout handles POST /logout. The server-side session is closed, which
// drops the stored backend token, and the cookie is expired.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(ctx, r, u.ID, u.LoginID)
	}
	if id, ok := h.SessionMgr.SessionID(r); ok && h.Sessions != nil {
		if err := h.Sessions.Close(ctx, id, sessions.EndLogout); err != nil {
			h.Log.Warn("logout: close session", zap.String("session_id", id.Hex()), zap.Error(err))
		}
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Non-HTMX: standard redirect home.
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
