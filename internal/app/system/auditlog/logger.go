// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/neurohub/internal/app/store/audit"
	"github.com/dalemusser/neurohub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destination settings, per category.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config picks where each category of event goes.
type Config struct {
	Auth  string // sign-in, sign-out, rejected tokens
	Admin string // catalog mutations
}

// Valid reports whether v is an accepted setting.
func Valid(v string) bool {
	switch v {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Logger writes audit events to the audit store and the application log.
// A nil *Logger discards everything.
type Logger struct {
	store *audit.Store
	log   *zap.Logger
	cfg   Config
}

// New returns a Logger. store may be nil, in which case "db" events are dropped.
func New(store *audit.Store, log *zap.Logger, cfg Config) *Logger {
	return &Logger{store: store, log: log, cfg: cfg}
}

// Actor identifies who performed an admin action.
type Actor struct {
	UserID string
	Name   string
}

func (l *Logger) mode(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.cfg.Auth
	case audit.CategoryAdmin:
		return l.cfg.Admin
	}
	return ModeAll
}

// Log records e according to the setting for its category.
func (l *Logger) Log(ctx context.Context, e audit.Event) {
	if l == nil {
		return
	}
	mode := l.mode(e.Category)
	if mode == ModeAll || mode == ModeLog {
		l.emit(e)
	}
	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, e); err != nil {
			l.log.Error("audit event not stored",
				zap.String("event_type", e.EventType),
				zap.Error(err))
		}
	}
}

func (l *Logger) emit(e audit.Event) {
	fields := make([]zap.Field, 0, 8+len(e.Details))
	fields = append(fields,
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP))
	for _, f := range []struct{ key, val string }{
		{"user_id", e.UserID},
		{"actor", e.Actor},
		{"kind", e.Kind},
		{"record_id", e.RecordID},
		{"failure_reason", e.FailureReason},
	} {
		if f.val != "" {
			fields = append(fields, zap.String(f.key, f.val))
		}
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if e.Success {
		l.log.Info("audit event", fields...)
		return
	}
	l.log.Warn("audit event", fields...)
}

// fromRequest fills in the request-derived fields of e.
func fromRequest(r *http.Request, e audit.Event) audit.Event {
	e.IP = ratelimit.ClientIP(r)
	e.UserAgent = r.UserAgent()
	return e
}

/* ---------------------------- sign-in events ---------------------------- */

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, username string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    userID,
		Actor:     username,
		Success:   true,
	}))
}

// LoginFailed logs credentials the backend rejected, or a backend failure
// during login.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, username, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		Actor:         username,
		FailureReason: reason,
	}))
}

// LoginFailedRateLimit logs a login blocked by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, username, limitType string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimit,
		Actor:         username,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"limit_type": limitType},
	}))
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, username string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		Actor:     username,
		Success:   true,
	}))
}

// SessionRejected logs a session closed because the backend refused its
// stored token.
func (l *Logger) SessionRejected(ctx context.Context, r *http.Request, userID, username string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSessionRejected,
		UserID:        userID,
		Actor:         username,
		FailureReason: "token rejected by backend",
	}))
}

/* ---------------------------- catalog events ---------------------------- */

func (l *Logger) change(ctx context.Context, r *http.Request, eventType string, actor Actor, kind, recordID, key, val string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		UserID:    actor.UserID,
		Actor:     actor.Name,
		Kind:      kind,
		RecordID:  recordID,
		Success:   true,
		Details:   map[string]string{key: val},
	}))
}

// RecordCreated logs a record created through the wizard.
func (l *Logger) RecordCreated(ctx context.Context, r *http.Request, actor Actor, kind, recordID, title string) {
	l.change(ctx, r, audit.EventRecordCreated, actor, kind, recordID, "title", title)
}

// RecordUpdated logs an edit submitted through the wizard.
func (l *Logger) RecordUpdated(ctx context.Context, r *http.Request, actor Actor, kind, recordID, title string) {
	l.change(ctx, r, audit.EventRecordUpdated, actor, kind, recordID, "title", title)
}

// RecordDeleted logs a confirmed delete.
func (l *Logger) RecordDeleted(ctx context.Context, r *http.Request, actor Actor, kind, recordID, title string) {
	l.change(ctx, r, audit.EventRecordDeleted, actor, kind, recordID, "title", title)
}

// RecordFeaturedToggled logs a featured flag change.
func (l *Logger) RecordFeaturedToggled(ctx context.Context, r *http.Request, actor Actor, kind, recordID string, featured bool) {
	l.change(ctx, r, audit.EventRecordFeatured, actor, kind, recordID, "featured", strconv.FormatBool(featured))
}

// RecordStatusChanged logs a status change from the list row actions.
func (l *Logger) RecordStatusChanged(ctx context.Context, r *http.Request, actor Actor, kind, recordID, status string) {
	l.change(ctx, r, audit.EventRecordStatusChanged, actor, kind, recordID, "status", status)
}
