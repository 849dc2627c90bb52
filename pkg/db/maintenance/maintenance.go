// Package maintenance keeps the generation ledger bounded.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"storyvoice/pkg/db"
	"storyvoice/pkg/store"
)

const lastPruneStateKey = "history_last_prune"

// pruneInterval limits pruning to once per day however often the tool runs.
const pruneInterval = 24 * time.Hour

// Run prunes generation events older than retention. A zero retention keeps
// everything. Failures are logged and never stop the caller.
func Run(ctx context.Context, s store.StateStore, d *db.DB, retention time.Duration) {
	if retention <= 0 {
		return
	}

	if last, ok := s.GetState(ctx, lastPruneStateKey); ok {
		if t, err := time.Parse(time.RFC3339, last); err == nil && time.Since(t) < pruneInterval {
			return
		}
	}

	n, err := d.PruneEvents(retention)
	if err != nil {
		slog.Error("History pruning failed", "error", err)
		return
	}
	slog.Debug("History pruning completed", "removed", n, "retention", retention)

	if err := s.SetState(ctx, lastPruneStateKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("Failed to record prune time", "error", err)
	}
}
