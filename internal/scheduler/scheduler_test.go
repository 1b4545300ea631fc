package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"class360/internal/queue"
	"class360/internal/scheduler"
	"class360/internal/testsupport"
)

// recordingRunner tracks concurrent executions and completion order.
type recordingRunner struct {
	mu          sync.Mutex
	delay       time.Duration
	inFlight    int
	maxInFlight int
	order       []string
	fail        map[string]error
	panicJobs   map[string]bool
	done        chan string
}

func newRecordingRunner(delay time.Duration) *recordingRunner {
	return &recordingRunner{
		delay:     delay,
		fail:      make(map[string]error),
		panicJobs: make(map[string]bool),
		done:      make(chan string, 64),
	}
}

func (r *recordingRunner) Execute(ctx context.Context, job *queue.Job) error {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	r.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	r.inFlight--
	r.order = append(r.order, job.EntityID)
	shouldPanic := r.panicJobs[job.EntityID]
	err := r.fail[job.EntityID]
	r.mu.Unlock()

	r.done <- job.EntityID
	if shouldPanic {
		panic("handler exploded")
	}
	return err
}

func (r *recordingRunner) waitFor(t *testing.T, n int) []string {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for job %d of %d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func startScheduler(t *testing.T, q *queue.Queue, runner scheduler.JobRunner, workers int) *scheduler.Scheduler {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithMaxConcurrentJobs(workers))
	cfg.Workflow.QueuePollInterval = 1
	sched := scheduler.New(cfg, q, runner, nil)
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(sched.Stop)
	return sched
}

func TestSingleWorkerNeverOverlaps(t *testing.T) {
	q := queue.New(nil)
	runner := newRecordingRunner(20 * time.Millisecond)
	startScheduler(t, q, runner, 1)

	for i := 0; i < 5; i++ {
		q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityNormal, EntityID: "vid-" + string(rune('a'+i))})
	}
	runner.waitFor(t, 5)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.maxInFlight != 1 {
		t.Fatalf("max concurrent executions = %d, want 1", runner.maxInFlight)
	}
}

func TestTierPrecedenceInExecutionOrder(t *testing.T) {
	q := queue.New(nil)
	runner := newRecordingRunner(0)

	// Enqueue before starting so the first selection sees all three tiers.
	q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityLow, EntityID: "low-1"})
	q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityNormal, EntityID: "norm-1"})
	q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityHigh, EntityID: "high-1"})
	q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityNormal, EntityID: "norm-2"})

	startScheduler(t, q, runner, 1)
	order := runner.waitFor(t, 4)

	want := []string{"high-1", "norm-1", "norm-2", "low-1"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}

func TestFailedJobDoesNotStopProcessing(t *testing.T) {
	q := queue.New(nil)
	runner := newRecordingRunner(0)
	runner.fail["vid-bad"] = errors.New("tool exploded")

	q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityNormal, EntityID: "vid-bad"})
	q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityNormal, EntityID: "vid-good"})

	sched := startScheduler(t, q, runner, 1)
	runner.waitFor(t, 2)

	if sched.LastError() == nil {
		t.Fatal("expected last error to record the failure")
	}
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	q := queue.New(nil)
	runner := newRecordingRunner(0)
	runner.panicJobs["vid-panic"] = true

	q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityNormal, EntityID: "vid-panic"})
	q.Enqueue(&queue.Job{Type: queue.TypeFullPipeline, Priority: queue.PriorityNormal, EntityID: "vid-after"})

	startScheduler(t, q, runner, 1)
	order := runner.waitFor(t, 2)

	if order[1] != "vid-after" {
		t.Fatalf("worker did not survive panic, order = %v", order)
	}
}

func TestStartTwiceFails(t *testing.T) {
	q := queue.New(nil)
	sched := startScheduler(t, q, newRecordingRunner(0), 1)
	if err := sched.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail while running")
	}
}
