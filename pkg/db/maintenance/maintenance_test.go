package maintenance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"storyvoice/pkg/db"
	"storyvoice/pkg/store"
)

func countEvents(t *testing.T, d *db.DB) int {
	t.Helper()
	var n int
	if err := d.QueryRow("SELECT count(*) FROM generation_events").Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func insertEvent(t *testing.T, d *db.DB, age time.Duration) {
	t.Helper()
	_, err := d.Exec(`INSERT INTO generation_events (run_id, variant, story_id, voice, outcome, created_at) VALUES ('r', 'msa/fiction', 's1', 'male', 'generated', ?)`,
		time.Now().Add(-age).UTC())
	if err != nil {
		t.Fatal(err)
	}
}

func TestMaintenance(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "maint_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	s := store.NewSQLiteStore(d)
	ctx := context.Background()

	insertEvent(t, d, 100*24*time.Hour)
	insertEvent(t, d, time.Hour)

	// Zero retention keeps everything.
	Run(ctx, s, d, 0)
	if got := countEvents(t, d); got != 2 {
		t.Fatalf("events after zero retention = %d, want 2", got)
	}

	Run(ctx, s, d, 90*24*time.Hour)
	if got := countEvents(t, d); got != 1 {
		t.Fatalf("events after prune = %d, want 1", got)
	}
	if _, ok := s.GetState(ctx, lastPruneStateKey); !ok {
		t.Error("prune time was not recorded")
	}

	// A second run within the interval is skipped.
	insertEvent(t, d, 100*24*time.Hour)
	Run(ctx, s, d, 90*24*time.Hour)
	if got := countEvents(t, d); got != 2 {
		t.Errorf("events after throttled prune = %d, want 2", got)
	}

	// Once the interval has passed, pruning resumes.
	stale := time.Now().Add(-2 * pruneInterval).UTC().Format(time.RFC3339)
	if err := s.SetState(ctx, lastPruneStateKey, stale); err != nil {
		t.Fatal(err)
	}
	Run(ctx, s, d, 90*24*time.Hour)
	if got := countEvents(t, d); got != 1 {
		t.Errorf("events after resumed prune = %d, want 1", got)
	}
}
