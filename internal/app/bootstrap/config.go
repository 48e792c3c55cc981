// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/neurohub/internal/app/system/auditlog"
	"github.com/dalemusser/neurohub/internal/app/system/wizard"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for neurohub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, api_base_url, etc.
//   - Environment variables: NEUROHUB_MONGO_URI, NEUROHUB_API_BASE_URL, etc.
//   - Command-line flags: --mongo_uri, --api_base_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "site_name", Default: "", Desc: "Site name shown in the header (blank uses the built-in name)"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "neurohub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "neurohub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session lifetime; idle sessions are closed after this long"},

	// Catalog backend
	{Name: "api_base_url", Default: "http://localhost:8000", Desc: "Catalog backend base URL"},
	{Name: "api_timeout", Default: "30s", Desc: "Overall timeout of one backend request"},
	{Name: "api_login_path", Default: "/api/auth/login/", Desc: "Backend token endpoint"},

	// Wizard uploads
	{Name: "upload_image_max_bytes", Default: int(wizard.DefaultLimits.ImageMaxBytes), Desc: "Largest accepted cover image"},
	{Name: "upload_document_max_bytes", Default: int(wizard.DefaultLimits.DocumentMaxBytes), Desc: "Largest accepted document"},

	// Page sizes
	{Name: "catalog_initial_count", Default: 8, Desc: "Cards shown before the first load more"},
	{Name: "catalog_step", Default: 8, Desc: "Cards revealed per load more"},
	{Name: "featured_limit", Default: 3, Desc: "Featured highlights per section"},
	{Name: "dashboard_recent_limit", Default: 7, Desc: "Recent items on the admin dashboard"},

	// Maintenance
	{Name: "draft_ttl", Default: "24h", Desc: "Wizard drafts expire after this much inactivity"},
	{Name: "cleanup_interval", Default: "5m", Desc: "How often expired drafts are released"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, NEUROHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "NEUROHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		SiteName:         appValues.String("site_name"),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		// Backend
		APIBaseURL:   appValues.String("api_base_url"),
		APITimeout:   appValues.Duration("api_timeout", 30*time.Second),
		APILoginPath: appValues.String("api_login_path"),

		// Uploads
		UploadImageMaxBytes:    int64(appValues.Int("upload_image_max_bytes")),
		UploadDocumentMaxBytes: int64(appValues.Int("upload_document_max_bytes")),

		// Page sizes
		CatalogInitialCount:  appValues.Int("catalog_initial_count"),
		CatalogStep:          appValues.Int("catalog_step"),
		FeaturedLimit:        appValues.Int("featured_limit"),
		DashboardRecentLimit: appValues.Int("dashboard_recent_limit"),

		// Maintenance
		DraftTTL:        appValues.Duration("draft_ttl", 24*time.Hour),
		CleanupInterval: appValues.Duration("cleanup_interval", 5*time.Minute),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(appCfg)
}

// validateAppConfig holds the checks that need no external helpers.
func validateAppConfig(appCfg AppConfig) error {
	u, err := url.Parse(appCfg.APIBaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api_base_url must be an absolute http(s) URL, got %q", appCfg.APIBaseURL)
	}

	positive := []struct {
		name  string
		value int64
	}{
		{"catalog_initial_count", int64(appCfg.CatalogInitialCount)},
		{"catalog_step", int64(appCfg.CatalogStep)},
		{"featured_limit", int64(appCfg.FeaturedLimit)},
		{"dashboard_recent_limit", int64(appCfg.DashboardRecentLimit)},
		{"upload_image_max_bytes", appCfg.UploadImageMaxBytes},
		{"upload_document_max_bytes", appCfg.UploadDocumentMaxBytes},
		{"draft_ttl", int64(appCfg.DraftTTL)},
		{"cleanup_interval", int64(appCfg.CleanupInterval)},
		{"session_max_age", int64(appCfg.SessionMaxAge)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}

	for name, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		if !auditlog.Valid(v) {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", name, v)
		}
	}
	return nil
}
