// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/neurohub/internal/app/store/drafts"
	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/dalemusser/neurohub/internal/app/store/uploads"
	"github.com/dalemusser/neurohub/internal/app/system/tasks"
	"github.com/dalemusser/neurohub/internal/app/system/timeouts"
	"github.com/dalemusser/neurohub/internal/app/system/viewdata"
	"github.com/dalemusser/neurohub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// maintenance runs the cleanup jobs between Startup and Shutdown.
var maintenance *workers.Runner

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It sets
// the site name, applies the backend timeout and starts the maintenance jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	viewdata.Init(appCfg.SiteName)
	timeouts.Configure(timeouts.Config{API: appCfg.APITimeout})

	maintenance = workers.NewRunner(logger, maintenanceJobs(appCfg, deps, logger)...)
	maintenance.Start()
	return nil
}

// maintenanceJobs releases expired drafts with their staged files, removes
// orphaned uploads, and closes idle sessions.
func maintenanceJobs(appCfg AppConfig, deps DBDeps, logger *zap.Logger) []tasks.Job {
	draftStore := drafts.New(deps.MongoDatabase, appCfg.DraftTTL)
	fileStore := uploads.New(deps.MongoDatabase)
	sessStore := sessions.New(deps.MongoDatabase)

	draftJob := tasks.ExpiredDraftCleanupJob(draftStore, fileStore, logger)
	draftJob.Interval = appCfg.CleanupInterval

	return []tasks.Job{
		draftJob,
		tasks.OrphanUploadCleanupJob(draftStore, fileStore, logger, appCfg.DraftTTL),
		tasks.InactiveSessionCleanupJob(sessStore, logger, appCfg.SessionMaxAge),
	}
}
