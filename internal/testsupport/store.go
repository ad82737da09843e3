package testsupport

import (
	"context"
	"testing"

	"vidforge/internal/config"
	"vidforge/internal/history"
)

// MustOpenHistory opens the run ledger under cfg's state directory and closes
// it when the test ends.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SeedRuns records runs in order, failing the test on the first error.
func SeedRuns(t testing.TB, store *history.Store, runs ...history.Run) {
	t.Helper()
	for _, run := range runs {
		if err := store.RecordRun(context.Background(), run); err != nil {
			t.Fatalf("record run %s: %v", run.ID, err)
		}
	}
}
