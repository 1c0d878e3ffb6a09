package testsupport

import (
	"context"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// NewRecording registers an audio file for tests using the provided store.
func NewRecording(t testing.TB, st *store.Store, path string) *store.Recording {
	t.Helper()

	rec, err := st.UpsertByPath(context.Background(), store.NewFileRecording{
		Filepath:   path,
		Filesize:   1024,
		ModifiedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("store.UpsertByPath: %v", err)
	}
	return rec
}
