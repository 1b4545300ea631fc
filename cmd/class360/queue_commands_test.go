package main

import (
	"testing"

	"class360/internal/testsupport"
)

func TestEnqueueAndQueueList(t *testing.T) {
	env := setupCLITestEnv(t)

	input := testsupport.Recording(t, env.cfg.Paths.RecordingsDir, "lecture.mp4")
	entity := testsupport.NewEntity(t, env.store, "vid-cli", input)

	out, _, err := runCLI(t, []string{"enqueue", entity.ID, "--type", "ocr"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	requireContains(t, out, "Queued job")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, entity.ID)
	requireContains(t, out, "ocr")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 1 pending jobs")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list after clear: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestEnqueueUnknownEntity(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"enqueue", "ghost"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("enqueue for unknown entity should fail")
	}
}

func TestEnqueueUnknownType(t *testing.T) {
	env := setupCLITestEnv(t)

	input := testsupport.Recording(t, env.cfg.Paths.RecordingsDir, "lecture.mp4")
	entity := testsupport.NewEntity(t, env.store, "vid-type", input)

	_, _, err := runCLI(t, []string{"enqueue", entity.ID, "--type", "explode"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("enqueue with unknown type should fail")
	}
}
