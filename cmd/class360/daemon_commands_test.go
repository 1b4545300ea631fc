package main

import (
	"testing"
)

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon")
	requireContains(t, out, "Running")
	requireContains(t, out, "normal")
}

func TestStatusCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	requireContains(t, out, `"running"`)
	requireContains(t, out, `"queue_depths"`)
}

func TestRecordingCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"recording", "start", "room-9", "--source", "/dev/video0"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recording start: %v", err)
	}
	requireContains(t, out, "room-9")

	out, _, err = runCLI(t, []string{"recording", "status", "room-9"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recording status: %v", err)
	}
	requireContains(t, out, "recording for")

	out, _, err = runCLI(t, []string{"recording", "stop", "room-9"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recording stop: %v", err)
	}
	requireContains(t, out, "Stopped after")

	out, _, err = runCLI(t, []string{"recording", "status", "room-9"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recording status after stop: %v", err)
	}
	requireContains(t, out, "not recording")
}

func TestDialErrorMentionsSocket(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"status"}, env.socketPath+".missing", env.configPath)
	if err == nil {
		t.Fatal("status against missing socket should fail")
	}
	requireContains(t, err.Error(), "connect to daemon")
}
