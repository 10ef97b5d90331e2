package testsupport

import (
	"context"
	"testing"

	"hindsight/internal/catalog"
	"hindsight/internal/config"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewClip creates a catalog entry for tests using the provided store.
func NewClip(t testing.TB, store *catalog.Store, title string) *catalog.Clip {
	t.Helper()

	clip, err := store.NewClip(context.Background(), title, 5, 2, 30, 1920, 1080)
	if err != nil {
		t.Fatalf("store.NewClip: %v", err)
	}
	return clip
}
