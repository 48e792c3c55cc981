// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//
// AppConfig carries what is specific to the catalog site: its own MongoDB
// (sessions, wizard drafts, staged uploads, audit trail), the catalog
// backend, and the knobs of the public and admin pages.
type AppConfig struct {
	SiteName string // header and page titles

	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: neurohub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime and inactivity threshold

	// Catalog backend
	APIBaseURL   string        // e.g., https://api.example.org
	APITimeout   time.Duration // overall http.Client timeout
	APILoginPath string        // token endpoint, relative to APIBaseURL

	// Wizard uploads
	UploadImageMaxBytes    int64
	UploadDocumentMaxBytes int64

	// Page sizes
	CatalogInitialCount  int // cards shown before the first "load more"
	CatalogStep          int // cards revealed per "load more"
	FeaturedLimit        int // featured highlights per section
	DashboardRecentLimit int // recent items on the admin home

	// Maintenance
	DraftTTL        time.Duration // wizard drafts expire after this much inactivity
	CleanupInterval time.Duration // how often expired drafts are released

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string
}
