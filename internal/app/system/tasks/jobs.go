// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/neurohub/internal/app/store/drafts"
	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/dalemusser/neurohub/internal/app/store/uploads"
	"go.uber.org/zap"
)

// Job is a periodic maintenance task run by workers.Runner.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// draftBatch caps how many expired drafts one run releases.
const draftBatch = 200

// InactiveSessionCleanupJob creates a job that closes sessions inactive for the given threshold.
// Unlike session expiration (which deletes), this marks sessions as ended for audit purposes
// and drops their backend tokens.
func InactiveSessionCleanupJob(sessStore *sessions.Store, logger *zap.Logger, threshold time.Duration) Job {
	return Job{
		Name:     "inactive-session-cleanup",
		Interval: 1 * time.Minute,
		Run: func(ctx context.Context) error {
			count, err := sessStore.CloseInactive(ctx, threshold)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("closed inactive sessions",
					zap.Int64("count", count),
					zap.Duration("threshold", threshold))
			}
			return nil
		},
	}
}

// ExpiredDraftCleanupJob removes wizard drafts past their expiry together
// with the files they staged.
func ExpiredDraftCleanupJob(draftStore *drafts.Store, fileStore *uploads.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "expired-draft-cleanup",
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			expired, err := draftStore.DeleteExpired(ctx, time.Now(), draftBatch)
			if err != nil {
				return err
			}
			var errs []error
			for _, d := range expired {
				if err := fileStore.Delete(ctx, d.StagedFiles()...); err != nil {
					errs = append(errs, err)
				}
			}
			if len(expired) > 0 {
				logger.Info("released expired wizard drafts", zap.Int("count", len(expired)))
			}
			return errors.Join(errs...)
		},
	}
}

// OrphanUploadCleanupJob removes staged files older than retention whose
// draft no longer exists.
func OrphanUploadCleanupJob(draftStore *drafts.Store, fileStore *uploads.Store, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "orphan-upload-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			live, err := draftStore.LiveIDs(ctx)
			if err != nil {
				return err
			}
			count, err := fileStore.DeleteOlderThan(ctx, time.Now().Add(-retention), live)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("removed orphaned uploads", zap.Int("count", count))
			}
			return nil
		},
	}
}
