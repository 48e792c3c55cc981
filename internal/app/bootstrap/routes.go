// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"

	"github.com/dalemusser/neurohub/internal/app/apiclient"
	activityfeature "github.com/dalemusser/neurohub/internal/app/features/auditlog"
	catalogfeature "github.com/dalemusser/neurohub/internal/app/features/catalog"
	catalogadminfeature "github.com/dalemusser/neurohub/internal/app/features/catalogadmin"
	dashboardfeature "github.com/dalemusser/neurohub/internal/app/features/dashboard"
	_ "github.com/dalemusser/neurohub/internal/app/features/dashboard/views"
	errorsfeature "github.com/dalemusser/neurohub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/neurohub/internal/app/features/health"
	homefeature "github.com/dalemusser/neurohub/internal/app/features/home"
	_ "github.com/dalemusser/neurohub/internal/app/features/home/views"
	loginfeature "github.com/dalemusser/neurohub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/neurohub/internal/app/features/logout"
	_ "github.com/dalemusser/neurohub/internal/app/features/shared/views"
	"github.com/dalemusser/neurohub/internal/app/store/audit"
	"github.com/dalemusser/neurohub/internal/app/store/drafts"
	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/dalemusser/neurohub/internal/app/store/uploads"
	"github.com/dalemusser/neurohub/internal/app/system/apisession"
	"github.com/dalemusser/neurohub/internal/app/system/auditlog"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
	"github.com/dalemusser/neurohub/internal/app/system/catalogview"
	"github.com/dalemusser/neurohub/internal/app/system/wizard"
	"github.com/dalemusser/neurohub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfFailureMessage is shown when a form post carries a stale token.
const csrfFailureMessage = "This form has expired. Reload the page and try again."

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
//
// neurohub initializes the template engine, applies CSRF protection and
// session middleware, and mounts the public catalog, the admin console
// (dashboard, one section per kind, activity) and the auth pages.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Server-side sessions: the cookie carries only the session id and the
	// backend token is read from Mongo on every request.
	sessStore := sessions.New(deps.MongoDatabase)
	sessionMgr.SetSessionStore(sessStore)

	api, err := apiclient.New(appCfg.APIBaseURL, apiclient.Options{
		Timeout:   appCfg.APITimeout,
		LoginPath: appCfg.APILoginPath,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("api client init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditStore := audit.New(deps.MongoDatabase)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	gate := apisession.New(api, sessStore, sessionMgr, auditLog, logger)

	window := catalogview.Window{Initial: appCfg.CatalogInitialCount, Step: appCfg.CatalogStep}
	limits := wizard.FileLimits{
		ImageMaxBytes:    appCfg.UploadImageMaxBytes,
		DocumentMaxBytes: appCfg.UploadDocumentMaxBytes,
	}

	r := chi.NewRouter()

	// CSRF protection for every form post and HTMX request. Over plain
	// HTTP in development the origin check must be told the scheme.
	csrfKey := sha256.Sum256([]byte(appCfg.SessionKey))
	protect := csrf.Protect(csrfKey[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
			errorsfeature.RenderForbidden(w, r, csrfFailureMessage, "/")
		})),
	)
	if !secure {
		r.Use(plaintextHTTP)
	}
	r.Use(protect)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, api, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(api, appCfg.FeaturedLimit, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	catalogHandler := catalogfeature.NewHandler(api, window, appCfg.FeaturedLimit, errLog, logger)
	for _, k := range models.Kinds() {
		r.Mount("/"+k.Slug, catalogfeature.Routes(catalogHandler, k))
	}

	// Authentication
	loginHandler := loginfeature.NewHandler(api, sessStore, sessionMgr, errLog, auditLog, nil, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, sessStore, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Admin console
	dashboardHandler := dashboardfeature.NewHandler(gate, appCfg.DashboardRecentLimit, logger)
	r.Mount("/admin", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	activityHandler := activityfeature.NewHandler(auditStore, errLog, logger)
	r.Mount("/admin/activity", activityfeature.Routes(activityHandler, sessionMgr))

	adminHandler := catalogadminfeature.NewHandler(
		gate,
		drafts.New(deps.MongoDatabase, appCfg.DraftTTL),
		uploads.New(deps.MongoDatabase),
		window,
		limits,
		errLog,
		logger,
	)
	for _, k := range models.Kinds() {
		r.Mount("/admin/"+k.Slug, catalogadminfeature.Routes(adminHandler, k, sessionMgr))
	}

	return r, nil
}

// plaintextHTTP marks requests as served over HTTP so the CSRF origin
// check does not demand an https Referer.
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
