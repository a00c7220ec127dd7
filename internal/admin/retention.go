// Package admin runs maintenance jobs against the audit store.
package admin

import (
	"context"
	"log/slog"
	"time"
)

// PurgeTimeout bounds a single purge pass.
const PurgeTimeout = 30 * time.Second

// Purger deletes audit rows older than a cutoff.
type Purger interface {
	PurgeRuns(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention removes audit rows older than Keep.
type Retention struct {
	Store Purger
	Keep  time.Duration
	Now   func() time.Time
}

// RunOnce performs one purge pass and returns the number of rows removed.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, PurgeTimeout)
	defer cancel()

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return r.Store.PurgeRuns(ctx, now().Add(-r.Keep))
}

// Start purges every interval until ctx is cancelled. A non-positive Keep
// or interval disables the job.
func (r *Retention) Start(ctx context.Context, interval time.Duration) {
	if r.Keep <= 0 || interval <= 0 {
		slog.Info("audit retention disabled")
		return
	}
	slog.Info("audit retention started", "keep", r.Keep, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit retention stopped")
			return
		case <-ticker.C:
			n, err := r.RunOnce(ctx)
			if err != nil {
				slog.Warn("audit purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("audit runs purged", "count", n)
			}
		}
	}
}
