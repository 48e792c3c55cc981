// Package apisession binds a signed-in admin to the catalog backend. It
// hands out bearer-token clients and, when the backend refuses a stored
// token, ends the session and sends the browser back to sign in.
package apisession

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/dalemusser/neurohub/internal/app/system/auditlog"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Gate is shared by every admin feature that talks to the backend.
type Gate struct {
	API      *apiclient.Client // anonymous base client
	Sessions *sessions.Store
	SM       *auth.SessionManager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// New builds a Gate.
func New(api *apiclient.Client, sessStore *sessions.Store, sm *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{API: api, Sessions: sessStore, SM: sm, Audit: audit, Log: logger}
}

// Client returns a client carrying the current admin's token, or the
// anonymous client when nobody is signed in.
func (g *Gate) Client(r *http.Request) *apiclient.Client {
	if u, ok := auth.CurrentUser(r); ok {
		return g.API.WithToken(u.Token)
	}
	return g.API
}

// TokenRejected reports whether err is the backend refusing the token.
func TokenRejected(err error) bool {
	var apiErr *apiclient.Error
	return errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindStatus && apiErr.Status == http.StatusUnauthorized
}

// Rejected handles a 401 from the backend: the session is closed as
// rejected, the cookie cleared and the browser sent to sign in again. It
// reports whether it wrote the response; other errors are left to the
// caller.
func (g *Gate) Rejected(w http.ResponseWriter, r *http.Request, err error) bool {
	if !TokenRejected(err) {
		return false
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Short())
	defer cancel()

	if u, ok := auth.CurrentUser(r); ok {
		g.Log.Info("backend rejected session token", zap.String("user_id", u.ID), zap.String("session_id", u.SessionID))
		g.Audit.SessionRejected(ctx, r, u.ID, u.LoginID)
		if id, err := primitive.ObjectIDFromHex(u.SessionID); err == nil && g.Sessions != nil {
			if err := g.Sessions.Close(ctx, id, sessions.EndRejected); err != nil {
				g.Log.Warn("close rejected session", zap.String("session_id", u.SessionID), zap.Error(err))
			}
		}
	}
	if g.SM != nil {
		if err := g.SM.SignOut(w, r); err != nil {
			g.Log.Warn("clear rejected session cookie", zap.Error(err))
		}
	}

	dest := auth.LoginURL(r)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
		return true
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
	return true
}
