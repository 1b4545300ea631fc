package queue_test

import (
	"errors"
	"testing"

	"class360/internal/queue"
)

func TestNextFollowsTierOrder(t *testing.T) {
	q := queue.New(nil)

	q.Enqueue(&queue.Job{Type: queue.TypeOCR, Priority: queue.PriorityLow, EntityID: "low-1"})
	q.Enqueue(&queue.Job{Type: queue.TypeOCR, Priority: queue.PriorityNormal, EntityID: "norm-1"})
	q.Enqueue(&queue.Job{Type: queue.TypeOCR, Priority: queue.PriorityHigh, EntityID: "high-1"})
	q.Enqueue(&queue.Job{Type: queue.TypeOCR, Priority: queue.PriorityNormal, EntityID: "norm-2"})

	want := []string{"high-1", "norm-1", "norm-2", "low-1"}
	for i, expected := range want {
		job := q.Next()
		if job == nil {
			t.Fatalf("job %d is nil", i)
		}
		if job.EntityID != expected {
			t.Fatalf("job %d entity = %q, want %q", i, job.EntityID, expected)
		}
		if job.Status != queue.StatusProcessing {
			t.Fatalf("dequeued job status = %q", job.Status)
		}
	}
	if q.Next() != nil {
		t.Fatal("empty queue should return nil")
	}
}

func TestEnqueueAssignsIDAndDefaultsPriority(t *testing.T) {
	q := queue.New(nil)

	job := &queue.Job{Type: queue.TypeTrim, EntityID: "vid-1", Priority: queue.Priority("bogus")}
	id := q.Enqueue(job)
	if id == "" || job.ID != id {
		t.Fatalf("id = %q, job.ID = %q", id, job.ID)
	}
	if job.Priority != queue.PriorityNormal {
		t.Fatalf("priority = %q, want normal fallback", job.Priority)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("created_at not stamped")
	}

	depths := q.Depths()
	if depths.Normal != 1 || depths.Total() != 1 {
		t.Fatalf("depths = %+v", depths)
	}
}

func TestFinishRecordsOutcome(t *testing.T) {
	q := queue.New(nil)
	q.Enqueue(&queue.Job{Type: queue.TypeTrim, EntityID: "vid-1"})

	job := q.Next()
	if got := q.Depths().Active; got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}

	q.Finish(job, nil)
	if job.Status != queue.StatusCompleted {
		t.Fatalf("status = %q, want completed", job.Status)
	}
	if got := q.Depths().Active; got != 0 {
		t.Fatalf("active after finish = %d", got)
	}

	q.Enqueue(&queue.Job{Type: queue.TypeTrim, EntityID: "vid-2"})
	failed := q.Next()
	q.Finish(failed, errors.New("tool exploded"))
	if failed.Status != queue.StatusFailed || failed.ErrorMessage != "tool exploded" {
		t.Fatalf("failed job = %+v", failed)
	}
}

func TestClearPendingLeavesActiveAlone(t *testing.T) {
	q := queue.New(nil)
	q.Enqueue(&queue.Job{Type: queue.TypeTrim, EntityID: "vid-1"})
	q.Enqueue(&queue.Job{Type: queue.TypeTrim, EntityID: "vid-2", Priority: queue.PriorityHigh})

	active := q.Next()
	if active == nil {
		t.Fatal("expected a job")
	}

	if removed := q.ClearPending(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	depths := q.Depths()
	if depths.Total() != 0 || depths.Active != 1 {
		t.Fatalf("depths after clear = %+v", depths)
	}
}

func TestNotifySignalsEnqueue(t *testing.T) {
	q := queue.New(nil)

	select {
	case <-q.Notify():
		t.Fatal("notify should be empty before enqueue")
	default:
	}

	q.Enqueue(&queue.Job{Type: queue.TypeTrim, EntityID: "vid-1"})
	select {
	case <-q.Notify():
	default:
		t.Fatal("expected notify signal after enqueue")
	}
}

func TestPendingSnapshotOrder(t *testing.T) {
	q := queue.New(nil)
	q.Enqueue(&queue.Job{Type: queue.TypeTrim, EntityID: "low", Priority: queue.PriorityLow})
	q.Enqueue(&queue.Job{Type: queue.TypeTrim, EntityID: "high", Priority: queue.PriorityHigh})

	pending := q.Pending()
	if len(pending) != 2 || pending[0].EntityID != "high" || pending[1].EntityID != "low" {
		t.Fatalf("pending order wrong: %+v", pending)
	}
}

func TestParseTypeAndPriority(t *testing.T) {
	if _, ok := queue.ParseType("full_pipeline"); !ok {
		t.Fatal("full_pipeline should parse")
	}
	if _, ok := queue.ParseType("explode"); ok {
		t.Fatal("unknown type should not parse")
	}
	if p, ok := queue.ParsePriority(""); !ok || p != queue.PriorityNormal {
		t.Fatalf("empty priority = %q ok=%v", p, ok)
	}
	if _, ok := queue.ParsePriority("urgent"); ok {
		t.Fatal("unknown priority should not parse")
	}
}
