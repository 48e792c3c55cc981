package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// DefaultSessionName is used when no cookie name is configured.
	DefaultSessionName = "neurohub-session"

	sessionIDKey = "session_id"

	// touchEvery throttles last_active_at writes.
	touchEvery = time.Minute
)

// Role names. Only admins reach the console.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what LoadSessionUser injects into r.Context().
type SessionUser struct {
	ID        string // backend user id
	Name      string
	LoginID   string // username typed at login
	Email     string
	Role      string
	Token     string // backend bearer token
	SessionID string
}

// IsAdmin reports whether the user may use the admin console.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, RoleAdmin)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into r's context the way LoadSessionUser does.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionStore is the server-side session lookup LoadSessionUser needs.
// *sessions.Store satisfies it.
type SessionStore interface {
	GetActive(ctx context.Context, id primitive.ObjectID) (sessions.Session, error)
	Touch(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// SessionManager owns the signed session cookie. The cookie carries only the
// server-side session id; identity and the backend token are read from the
// session store on every request.
type SessionManager struct {
	store  *gsessions.CookieStore
	name   string
	lookup SessionStore
	log    *zap.Logger
}

// NewSessionManager configures the cookie store. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies are Secure + SameSite=Lax.
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := gsessions.NewCookieStore([]byte(sessionKey))
	store.Options = &gsessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetSessionStore wires the server-side session lookup. Until it is set,
// LoadSessionUser treats every request as anonymous.
func (sm *SessionManager) SetSessionStore(s SessionStore) {
	sm.lookup = s
}

// Store exposes the cookie store (for deletion-cookie options).
func (sm *SessionManager) Store() *gsessions.CookieStore { return sm.store }

// GetSession decodes the session cookie. On a decode failure a fresh session
// is still returned so callers can overwrite the bad cookie.
func (sm *SessionManager) GetSession(r *http.Request) (*gsessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SessionID returns the server-side session id carried by the cookie.
func (sm *SessionManager) SessionID(r *http.Request) (primitive.ObjectID, bool) {
	sess, err := sm.GetSession(r)
	if err != nil {
		return primitive.NilObjectID, false
	}
	raw, _ := sess.Values[sessionIDKey].(string)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// SignIn binds the response's cookie to a server-side session.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.cookieError(err, "sign-in")
	}
	sess.Values = map[interface{}]interface{}{sessionIDKey: id.Hex()}
	sess.Options = sm.cookieOptions()
	return sess.Save(r, w)
}

// SignOut expires the cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.cookieError(err, "sign-out")
	}
	opts := sm.cookieOptions()
	opts.MaxAge = -1 // delete immediately
	sess.Options = opts
	sess.Values = map[interface{}]interface{}{}
	return sess.Save(r, w)
}

// cookieError logs a failed cookie read. A cookie that fails to decode
// (tampered, expired or signed with an old key) is routine and is
// overwritten by the caller.
func (sm *SessionManager) cookieError(err error, during string) {
	var scErr securecookie.Error
	if errors.As(err, &scErr) && scErr.IsDecode() {
		sm.log.Debug("replacing undecodable session cookie", zap.String("during", during), zap.Error(err))
		return
	}
	sm.log.Warn("session cookie read failed", zap.String("during", during), zap.Error(err))
}

func (sm *SessionManager) cookieOptions() *gsessions.Options {
	cp := *sm.store.Options
	return &cp
}

// Flash kinds rendered by the layout.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    string
	Message string
}

// AddFlash queues a message for the next page render.
func (sm *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, kind, msg string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.cookieError(err, "flash")
	}
	sess.AddFlash(kind + "|" + msg)
	sess.Options = sm.cookieOptions()
	return sess.Save(r, w)
}

// PopFlashes returns and clears the queued messages. Call it before the
// response body is written.
func (sm *SessionManager) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess, err := sm.GetSession(r)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	sess.Options = sm.cookieOptions()
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("flash save failed", zap.Error(err))
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		kind, msg, found := strings.Cut(s, "|")
		if !found {
			kind, msg = FlashSuccess, s
		}
		out = append(out, Flash{Kind: kind, Message: msg})
	}
	return out
}

// LoadSessionUser injects the user into context if they are signed in.
// A cookie whose server-side session is closed or missing is treated as
// signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.lookup == nil {
			next.ServeHTTP(w, r)
			return
		}
		id, ok := sm.SessionID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		s, err := sm.lookup.GetActive(r.Context(), id)
		if err != nil {
			if !errors.Is(err, sessions.ErrNotActive) {
				sm.log.Warn("session lookup failed", zap.String("session_id", id.Hex()), zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		if time.Since(s.LastActiveAt) > touchEvery {
			if _, err := sm.lookup.Touch(r.Context(), id); err != nil {
				sm.log.Debug("session touch failed", zap.Error(err))
			}
		}

		r = withUser(r, &SessionUser{
			ID:        s.UserID,
			Name:      s.Name,
			LoginID:   s.Username,
			Email:     s.Email,
			Role:      s.Role,
			Token:     s.Token,
			SessionID: s.ID.Hex(),
		})
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

// RequireRole ensures there is a user with one of the allowed roles.
// If not authorized, it redirects HTML pages (or sets HX-Redirect) instead
// of writing a blank error.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				unauthorized(w, r)
				return
			}

			if _, has := set[strings.ToLower(u.Role)]; !has {
				if r.Header.Get("HX-Request") == "true" {
					w.Header().Set("HX-Redirect", "/forbidden")
					w.WriteHeader(http.StatusForbidden)
					return
				}
				if wantsHTML(r) {
					http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoginURL is the sign-in page that returns to the current request.
func LoginURL(r *http.Request) string {
	return "/login?return=" + url.QueryEscape(currentURI(r))
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	dest := LoginURL(r)

	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
