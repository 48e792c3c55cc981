// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/neurohub/internal/app/system/tasks"
	"go.uber.org/zap"
)

// jobTimeout bounds a single job run.
const jobTimeout = 30 * time.Second

// Runner is a background worker that runs maintenance jobs, each on its
// own ticker.
type Runner struct {
	jobs   []tasks.Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRunner creates a runner for jobs. Jobs with a non-positive interval
// are skipped.
func NewRunner(logger *zap.Logger, jobs ...tasks.Job) *Runner {
	return &Runner{
		jobs:   jobs,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Start begins one loop per job.
func (w *Runner) Start() {
	for _, job := range w.jobs {
		if job.Interval <= 0 || job.Run == nil {
			continue
		}
		w.wg.Add(1)
		go w.loop(job)
		w.log.Info("maintenance job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
}

// Stop signals every loop to stop and waits for in-flight runs to finish.
// It is safe to call more than once.
func (w *Runner) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("maintenance jobs stopped")
	})
}

func (w *Runner) loop(job tasks.Job) {
	defer w.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce(job)
		}
	}
}

func (w *Runner) runOnce(job tasks.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		w.log.Error("maintenance job failed", zap.String("job", job.Name), zap.Error(err))
	}
}
