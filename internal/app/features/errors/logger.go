// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs a failure with request context and then renders the
// matching error page. userMsg is what the visitor sees; err never is.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger wraps logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger}
}

func (l *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
}

// LogServerError logs at error level and renders a 500 page.
func (l *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.log.Error(msg, l.fields(r, err)...)
	RenderServerError(w, r, userMsg, backURL)
}

// LogBadGateway logs a backend failure and renders a 502 page.
func (l *ErrorLogger) LogBadGateway(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.log.Warn(msg, l.fields(r, err)...)
	RenderBadGateway(w, r, userMsg, backURL)
}

// LogBadRequest logs at warn level and renders a 400 page.
func (l *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.log.Warn(msg, l.fields(r, err)...)
	RenderBadRequest(w, r, userMsg, backURL)
}

// LogForbidden logs at warn level and renders a 403 page.
func (l *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.log.Warn(msg, l.fields(r, err)...)
	RenderForbidden(w, r, userMsg, backURL)
}

// HTMXLogServerError is LogServerError for endpoints htmx calls.
func (l *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.log.Error(msg, l.fields(r, err)...)
	HTMXError(w, r, http.StatusInternalServerError, userMsg, func() {
		RenderServerError(w, r, userMsg, backURL)
	})
}

// HTMXLogBadGateway is LogBadGateway for endpoints htmx calls.
func (l *ErrorLogger) HTMXLogBadGateway(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.log.Warn(msg, l.fields(r, err)...)
	HTMXError(w, r, http.StatusBadGateway, userMsg, func() {
		RenderBadGateway(w, r, userMsg, backURL)
	})
}

// HTMXLogBadRequest is LogBadRequest for endpoints htmx calls.
func (l *ErrorLogger) HTMXLogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	l.log.Warn(msg, l.fields(r, err)...)
	HTMXBadRequest(w, r, userMsg, backURL)
}
