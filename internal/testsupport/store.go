package testsupport

import (
	"context"
	"testing"

	"a4print/internal/config"
	"a4print/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustSaveJob persists job and fails the test on error.
func MustSaveJob(t testing.TB, store *queue.Store, job *queue.Job) {
	t.Helper()

	if err := store.SaveJob(context.Background(), job); err != nil {
		t.Fatalf("store.SaveJob: %v", err)
	}
}
