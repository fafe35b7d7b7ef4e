package testsupport

import (
	"context"
	"testing"
	"time"

	"filmatlas/internal/atlas"
	"filmatlas/internal/config"
	"filmatlas/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SaveRun records a completed run for tests using the provided store.
func SaveRun(t testing.TB, st *store.Store, id string, finishedAt time.Time, agg atlas.Aggregate) store.Run {
	t.Helper()

	run, err := st.SaveRun(context.Background(), store.Run{
		ID:               id,
		Source:           id + ".csv",
		Status:           store.StatusCompleted,
		TotalRecords:     agg.UniqueMovies(),
		ProcessedRecords: agg.UniqueMovies(),
		StartedAt:        finishedAt.Add(-time.Second),
		FinishedAt:       finishedAt,
	}, agg)
	if err != nil {
		t.Fatalf("store.SaveRun: %v", err)
	}
	return run
}
