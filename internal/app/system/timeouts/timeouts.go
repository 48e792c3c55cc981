// Package timeouts provides centralized timeout values for handler operations.
//
// Handlers wrap r.Context() with one of these before calling the backend API
// or MongoDB, so a client disconnect or an expired deadline cancels the
// in-flight call and its result is never rendered.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks against MongoDB and the backend
//   - Short: single-document session and draft reads/writes
//   - API: one backend request (list, get, toggle, status change)
//   - Upload: staging files in GridFS or forwarding a multipart create/update
//   - Dashboard: the whole admin home fan-out across every kind
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults in effect until Configure overrides them.
const (
	DefaultPing      = 2 * time.Second
	DefaultShort     = 5 * time.Second
	DefaultAPI       = 15 * time.Second
	DefaultUpload    = 60 * time.Second
	DefaultDashboard = 20 * time.Second
)

// Config is a full set of timeouts. Zero fields passed to Configure keep the
// current value.
type Config struct {
	Ping      time.Duration
	Short     time.Duration
	API       time.Duration
	Upload    time.Duration
	Dashboard time.Duration
}

func defaults() Config {
	return Config{
		Ping:      DefaultPing,
		Short:     DefaultShort,
		API:       DefaultAPI,
		Upload:    DefaultUpload,
		Dashboard: DefaultDashboard,
	}
}

var (
	mu      sync.RWMutex
	current = defaults()
)

// Current returns the timeouts in effect.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Ping bounds a health-check round trip.
func Ping() time.Duration { return Current().Ping }

// Short bounds a single-document Mongo operation.
func Short() time.Duration { return Current().Short }

// API bounds one backend request.
func API() time.Duration { return Current().API }

// Upload bounds file staging and multipart submits.
func Upload() time.Duration { return Current().Upload }

// Dashboard bounds the admin home aggregation.
func Dashboard() time.Duration { return Current().Dashboard }

// Configure overrides the non-zero fields of cfg. Call it at startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&current.Ping, cfg.Ping)
	set(&current.Short, cfg.Short)
	set(&current.API, cfg.API)
	set(&current.Upload, cfg.Upload)
	set(&current.Dashboard, cfg.Dashboard)
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	current = defaults()
	mu.Unlock()
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning naming
// operation when the deadline was hit.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
