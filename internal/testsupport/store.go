package testsupport

import (
	"context"
	"testing"

	"class360/internal/config"
	"class360/internal/mediastore"
)

// MustOpenStore opens a mediastore for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *mediastore.SQLiteStore {
	t.Helper()

	store, err := mediastore.Open(cfg)
	if err != nil {
		t.Fatalf("mediastore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEntity persists a minimal video entity for tests and returns it.
func NewEntity(t testing.TB, store mediastore.Store, id, filePath string) *mediastore.Entity {
	t.Helper()

	entity := &mediastore.Entity{
		ID:       id,
		Title:    "Test Lecture " + id,
		FilePath: filePath,
		Status:   "uploaded",
	}
	if err := mediastore.SaveEntity(context.Background(), store, entity); err != nil {
		t.Fatalf("mediastore.SaveEntity: %v", err)
	}
	return entity
}
