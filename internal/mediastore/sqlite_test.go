package mediastore_test

import (
	"context"
	"path/filepath"
	"testing"

	"class360/internal/mediastore"
)

func openStore(t *testing.T) *mediastore.SQLiteStore {
	t.Helper()
	store, err := mediastore.OpenPath(filepath.Join(t.TempDir(), "mediastore.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGetDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "/videos/a/", map[string]any{"title": "Algebra"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	doc, ok, err := store.Get(ctx, "videos/a")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if doc["title"] != "Algebra" {
		t.Fatalf("title = %v", doc["title"])
	}

	if err := store.Delete(ctx, "videos/a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := store.Get(ctx, "videos/a"); err != nil || ok {
		t.Fatalf("deleted doc still present: ok=%v err=%v", ok, err)
	}

	// Deleting again must stay a no-op.
	if err := store.Delete(ctx, "videos/a"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestUpdateMergesTopLevelFields(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "videos/a", map[string]any{"title": "Algebra", "status": "uploaded"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Update(ctx, "videos/a", map[string]any{"status": "processing"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, _, err := store.Get(ctx, "videos/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["title"] != "Algebra" || doc["status"] != "processing" {
		t.Fatalf("merge result = %v", doc)
	}

	// Updating an absent path creates the document.
	if err := store.Update(ctx, "videos/b", map[string]any{"status": "queued"}); err != nil {
		t.Fatalf("update absent: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "videos/b"); !ok {
		t.Fatal("update should create missing document")
	}
}

func TestChildrenListsImmediateSegments(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	paths := []string{
		"classrooms/room-1",
		"classrooms/room-1/timetable/monday",
		"classrooms/room-2",
		"videos/a",
	}
	for _, p := range paths {
		if err := store.Set(ctx, p, map[string]any{"ok": true}); err != nil {
			t.Fatalf("set %s: %v", p, err)
		}
	}

	children, err := store.Children(ctx, "classrooms")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 2 || children[0] != "room-1" || children[1] != "room-2" {
		t.Fatalf("children = %v", children)
	}

	empty, err := store.Children(ctx, "teachers")
	if err != nil {
		t.Fatalf("children empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no children, got %v", empty)
	}
}

func TestEntityRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entity := &mediastore.Entity{
		ID:          "vid-1",
		Title:       "Physics 2024-05-01 P3",
		Subject:     "Physics",
		ClassroomID: "room-1",
		Date:        "2024-05-01",
		Period:      3,
		DurationSec: 2700,
		FilePath:    "/recordings/room-1.mp4",
		Status:      "queued",
	}
	if err := mediastore.SaveEntity(ctx, store, entity); err != nil {
		t.Fatalf("save entity: %v", err)
	}

	loaded, ok, err := mediastore.GetEntity(ctx, store, "vid-1")
	if err != nil || !ok {
		t.Fatalf("get entity: ok=%v err=%v", ok, err)
	}
	if loaded.Subject != "Physics" || loaded.Period != 3 || loaded.DurationSec != 2700 {
		t.Fatalf("loaded = %+v", loaded)
	}

	err = mediastore.UpdateEntity(ctx, store, "vid-1", map[string]any{
		"status":        "completed",
		"subtitle_urls": map[string]string{"en": "/out/en.srt"},
	})
	if err != nil {
		t.Fatalf("update entity: %v", err)
	}

	updated, _, err := mediastore.GetEntity(ctx, store, "vid-1")
	if err != nil {
		t.Fatalf("reload entity: %v", err)
	}
	if updated.Status != "completed" || updated.SubtitleURLs["en"] != "/out/en.srt" {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.Title != entity.Title {
		t.Fatal("update must not clobber unrelated fields")
	}

	if _, ok, err := mediastore.GetEntity(ctx, store, "missing"); err != nil || ok {
		t.Fatalf("missing entity: ok=%v err=%v", ok, err)
	}
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"/videos/a/":   "videos/a",
		"videos//a":    "videos/a",
		"  /videos/a ": "videos/a",
		"":             "",
		"///":          "",
	}
	for input, want := range cases {
		if got := mediastore.CleanPath(input); got != want {
			t.Fatalf("CleanPath(%q) = %q, want %q", input, got, want)
		}
	}
}
