package progress

import (
	"testing"
	"time"
)

func sampleSnapshot(entityID string, overall float64) Snapshot {
	return Snapshot{
		EntityID:        entityID,
		DisplayName:     "Algebra 2026-08-24 P3",
		OverallProgress: overall,
		CurrentStep:     "Generating Subtitles",
		Steps: []Step{
			{ID: "trim", Name: "Trimming Video", Status: StepCompleted, Progress: 100},
			{ID: "subtitles", Name: "Generating Subtitles", Status: StepProcessing, Progress: 40},
		},
		StartedAt: time.Now().UTC(),
	}
}

func TestSubscribeReplaysLatestSnapshot(t *testing.T) {
	hub := NewBroadcaster(nil)
	hub.Publish("vid-1", sampleSnapshot("vid-1", 28))

	ch := hub.Subscribe("vid-1")
	defer hub.Unsubscribe("vid-1", ch)

	select {
	case got := <-ch:
		if got.OverallProgress != 28 {
			t.Fatalf("replayed overall progress = %v, want 28", got.OverallProgress)
		}
		if got.CurrentStep != "Generating Subtitles" {
			t.Fatalf("replayed current step = %q", got.CurrentStep)
		}
	default:
		t.Fatal("expected immediate replay of latest snapshot")
	}
}

func TestSubscribeWithoutHistoryDeliversNothing(t *testing.T) {
	hub := NewBroadcaster(nil)
	ch := hub.Subscribe("vid-unknown")
	defer hub.Unsubscribe("vid-unknown", ch)

	select {
	case snapshot := <-ch:
		t.Fatalf("unexpected snapshot %+v for entity with no history", snapshot)
	default:
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewBroadcaster(nil)
	first := hub.Subscribe("vid-1")
	second := hub.Subscribe("vid-1")
	defer hub.Unsubscribe("vid-1", first)
	defer hub.Unsubscribe("vid-1", second)

	hub.Publish("vid-1", sampleSnapshot("vid-1", 55))

	for _, ch := range []chan Snapshot{first, second} {
		select {
		case got := <-ch:
			if got.OverallProgress != 55 {
				t.Fatalf("overall progress = %v, want 55", got.OverallProgress)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive published snapshot")
		}
	}
}

func TestPublishedSnapshotDoesNotAliasCallerSteps(t *testing.T) {
	hub := NewBroadcaster(nil)
	snapshot := sampleSnapshot("vid-1", 28)
	hub.Publish("vid-1", snapshot)

	snapshot.Steps[0].Status = StepFailed

	got, ok := hub.Latest("vid-1")
	if !ok {
		t.Fatal("expected latest snapshot")
	}
	if got.Steps[0].Status != StepCompleted {
		t.Fatalf("stored step status mutated to %q", got.Steps[0].Status)
	}
}

func TestPublishSurvivesFullSubscriberBuffer(t *testing.T) {
	hub := NewBroadcaster(nil)
	ch := hub.Subscribe("vid-1")
	defer hub.Unsubscribe("vid-1", ch)

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish("vid-1", sampleSnapshot("vid-1", float64(i)))
	}

	got, ok := hub.Latest("vid-1")
	if !ok {
		t.Fatal("expected latest snapshot after burst")
	}
	if got.OverallProgress != float64(subscriberBuffer+9) {
		t.Fatalf("latest overall progress = %v", got.OverallProgress)
	}
}

func TestActiveExcludesCompletedEntities(t *testing.T) {
	hub := NewBroadcaster(nil)

	running := sampleSnapshot("vid-running", 40)
	running.StartedAt = time.Now().UTC().Add(-time.Minute)
	hub.Publish("vid-running", running)

	done := sampleSnapshot("vid-done", 100)
	hub.Publish("vid-done", done)

	active := hub.Active()
	if len(active) != 1 {
		t.Fatalf("active count = %d, want 1", len(active))
	}
	if active[0].EntityID != "vid-running" {
		t.Fatalf("active entity = %q", active[0].EntityID)
	}
}

func TestRemoveClosesSubscribers(t *testing.T) {
	hub := NewBroadcaster(nil)
	ch := hub.Subscribe("vid-1")

	hub.Remove("vid-1")

	select {
	case _, open := <-ch:
		if open {
			t.Fatal("expected subscriber channel closed after remove")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}

	if _, ok := hub.Latest("vid-1"); ok {
		t.Fatal("latest snapshot should be pruned after remove")
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	hub := NewBroadcaster(nil)
	ch := hub.Subscribe("vid-1")
	hub.Unsubscribe("vid-1", ch)
	hub.Unsubscribe("vid-1", ch)
	hub.Publish("vid-1", sampleSnapshot("vid-1", 10))
}
