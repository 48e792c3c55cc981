// internal/app/features/login/handler.go
package login

// Terminology:
//   - Username: what the editor types; the backend's login name
//   - UserID: the backend's id for that account, stored on the session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/dalemusser/neurohub/internal/app/system/auditlog"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/formutil"
	"github.com/dalemusser/neurohub/internal/app/system/limits"
	"github.com/dalemusser/neurohub/internal/app/system/normalize"
	"github.com/dalemusser/neurohub/internal/app/system/ratelimit"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// DefaultReturn is where a successful sign-in lands without ?return=.
const DefaultReturn = "/admin"

type Handler struct {
	API        *apiclient.Client // anonymous; only Login is called
	Sessions   *sessions.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	formutil.Base
	Username  string // what the user typed
	ReturnURL string
}

func NewHandler(
	api *apiclient.Client,
	sessStore *sessions.Store,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return &Handler{
		API:        api,
		Sessions:   sessStore,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	// Already signed in as an admin: go straight on.
	if u, ok := auth.CurrentUser(r); ok && u.IsAdmin() {
		http.Redirect(w, r, urlutil.SafeReturn(ret, "", DefaultReturn), http.StatusSeeOther)
		return
	}

	data := loginFormData{ReturnURL: ret}
	formutil.SetBase(&data.Base, r, "Sign in", "/")
	templates.Render(w, r, "login", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxLoginFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	username := normalize.Text(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.renderFormWithError(w, r, http.StatusUnprocessableEntity, "Please enter your username and password.", username)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.API())
	defer cancel()

	if ok, msg, limitType := h.Limiter.Check(r, username); !ok {
		h.AuditLog.LoginFailedRateLimit(ctx, r, username, limitType)
		h.renderFormWithError(w, r, http.StatusTooManyRequests, msg, username)
		return
	}

	id, err := h.API.Login(ctx, username, password)
	switch {
	case err == nil:
		// continue
	case errors.Is(err, apiclient.ErrUnauthorized) || isStatus(err, http.StatusBadRequest):
		h.AuditLog.LoginFailed(ctx, r, username, "invalid credentials")
		h.renderFormWithError(w, r, http.StatusUnauthorized, invalidCredentialsMessage(h.Limiter.AccountRemaining(username)), username)
		return
	default:
		h.Log.Warn("login: backend call failed", zap.String("username", username), zap.Error(err))
		h.AuditLog.LoginFailed(ctx, r, username, "backend unavailable")
		h.renderFormWithError(w, r, http.StatusBadGateway, "The sign-in service is unavailable. Please try again shortly.", username)
		return
	}

	if !strings.EqualFold(id.Role, auth.RoleAdmin) {
		h.AuditLog.LoginFailed(ctx, r, username, "not an administrator")
		h.renderFormWithError(w, r, http.StatusForbidden, "This account cannot use the admin console.", username)
		return
	}

	sess, err := h.Sessions.Create(ctx, sessions.NewSession{
		UserID:    id.UserID,
		Username:  username,
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role,
		Token:     id.Token,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create session failed", err, "A server error occurred.", "/login")
		return
	}
	if err := h.SessionMgr.SignIn(w, r, sess.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "save session cookie failed", err, "A server error occurred.", "/login")
		return
	}

	h.Limiter.ResetAccount(username)
	h.AuditLog.LoginSuccess(ctx, r, id.UserID, username)
	h.Log.Info("admin signed in", zap.String("user_id", id.UserID), zap.String("username", username))

	dest := urlutil.SafeReturn(r.FormValue("return"), "", DefaultReturn)
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// warnAttemptsLeft is the remaining-attempt count at which the form starts
// warning about the account limit.
const warnAttemptsLeft = 2

func invalidCredentialsMessage(left int) string {
	const msg = "Invalid username or password."
	switch {
	case left > warnAttemptsLeft:
		return msg
	case left == 0:
		return msg + " Further attempts for this account are blocked for a few minutes."
	case left == 1:
		return msg + " 1 attempt left before this account is locked for a few minutes."
	}
	return fmt.Sprintf("%s %d attempts left before this account is locked for a few minutes.", msg, left)
}

func isStatus(err error, status int) bool {
	var apiErr *apiclient.Error
	return errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindStatus && apiErr.Status == status
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, status int, msg, username string) {
	// From POST, "return" will be in the form; from GET, we might rely on the query.
	ret := strings.TrimSpace(r.FormValue("return"))
	if ret == "" {
		ret = query.Get(r, "return")
	}

	data := loginFormData{Username: username, ReturnURL: ret}
	formutil.SetBase(&data.Base, r, "Sign in", "/")
	data.SetError(msg)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "login", data)
}
