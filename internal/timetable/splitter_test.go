package timetable_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"class360/internal/media/probe"
	"class360/internal/mediastore"
	"class360/internal/queue"
	"class360/internal/testsupport"
	"class360/internal/timetable"
)

type fakeProber struct {
	duration float64
}

func (p fakeProber) Inspect(context.Context, string) (probe.Result, error) {
	return probe.Result{
		Format: probe.Format{Duration: strconv.FormatFloat(p.duration, 'f', -1, 64)},
	}, nil
}

type extractCall struct {
	Start, Duration float64
	Output          string
}

type fakeExtractor struct {
	mu    sync.Mutex
	calls []extractCall
}

func (e *fakeExtractor) Extract(_ context.Context, _ string, start, duration float64, output string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, extractCall{Start: start, Duration: duration, Output: output})
	return nil
}

func seedSchedule(t *testing.T, store mediastore.Store, classroomID string, weekday time.Weekday, periods []map[string]any) {
	t.Helper()
	err := store.Set(context.Background(), timetable.SchedulePath(classroomID, weekday),
		map[string]any{"periods": periods})
	if err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
}

func TestSplitClampsAndSkipsAgainstMediaDuration(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	jobs := queue.New(nil)
	extractor := &fakeExtractor{}

	// Friday 2026-08-21. Two 50-minute periods, but only 2700s (45 min) of
	// media: the first period is clamped, the second starts past the end.
	date := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	seedSchedule(t, store, "room-7", date.Weekday(), []map[string]any{
		{"hour": 1, "start": "09:00", "end": "09:50", "subject": "Algebra", "teacher_id": "t-1"},
		{"hour": 2, "start": "09:50", "end": "10:40", "subject": "Physics", "teacher_id": "t-2"},
	})

	splitter := timetable.NewSplitter(cfg, store, fakeProber{duration: 2700}, extractor, jobs, nil)
	recording := testsupport.Recording(t, cfg.Paths.RecordingsDir, "day.mp4")

	entities, err := splitter.Split(context.Background(), recording, "room-7", date)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(entities) != 1 {
		t.Fatalf("segments = %d, want 1", len(entities))
	}
	if len(extractor.calls) != 1 {
		t.Fatalf("extractions = %d, want 1", len(extractor.calls))
	}
	call := extractor.calls[0]
	if call.Start != 0 {
		t.Fatalf("first segment start = %v, want 0", call.Start)
	}
	if call.Duration != 2700 {
		t.Fatalf("first segment duration = %v, want 2700 (clamped from 3000)", call.Duration)
	}

	entity := entities[0]
	if entity.Subject != "Algebra" || entity.Period != 1 || entity.ClassroomID != "room-7" {
		t.Fatalf("unexpected segment entity %+v", entity)
	}
	if entity.DurationSec != 2700 {
		t.Fatalf("entity duration = %v, want 2700", entity.DurationSec)
	}

	pending := jobs.Pending()
	if len(pending) != 1 {
		t.Fatalf("enqueued jobs = %d, want 1", len(pending))
	}
	job := pending[0]
	if job.Type != queue.TypeFullPipeline || job.Priority != queue.PriorityNormal {
		t.Fatalf("job = %+v, want normal-priority full pipeline", job)
	}
	if job.EntityID != entity.ID {
		t.Fatalf("job entity = %q, want %q", job.EntityID, entity.ID)
	}
}

func TestSplitEmptyTimetableReturnsNoSegments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	jobs := queue.New(nil)
	extractor := &fakeExtractor{}

	splitter := timetable.NewSplitter(cfg, store, fakeProber{duration: 2700}, extractor, jobs, nil)
	recording := testsupport.Recording(t, cfg.Paths.RecordingsDir, "day.mp4")

	entities, err := splitter.Split(context.Background(), recording, "room-7", time.Now())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(entities) != 0 || len(extractor.calls) != 0 {
		t.Fatalf("expected no segments, got %d entities / %d extractions", len(entities), len(extractor.calls))
	}
}

func TestSplitOffsetsAreRelativeToFirstPeriod(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	jobs := queue.New(nil)
	extractor := &fakeExtractor{}

	date := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	seedSchedule(t, store, "room-7", date.Weekday(), []map[string]any{
		{"hour": 3, "start": "11:00", "end": "11:50", "subject": "Biology", "teacher_id": "t-3"},
		{"hour": 4, "start": "11:50", "end": "12:40", "subject": "History", "teacher_id": "t-4"},
	})

	splitter := timetable.NewSplitter(cfg, store, fakeProber{duration: 6000}, extractor, jobs, nil)
	recording := testsupport.Recording(t, cfg.Paths.RecordingsDir, "day.mp4")

	entities, err := splitter.Split(context.Background(), recording, "room-7", date)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("segments = %d, want 2", len(entities))
	}

	if extractor.calls[0].Start != 0 || extractor.calls[0].Duration != 3000 {
		t.Fatalf("first extraction = %+v", extractor.calls[0])
	}
	if extractor.calls[1].Start != 3000 {
		t.Fatalf("second extraction start = %v, want 3000", extractor.calls[1].Start)
	}
	if extractor.calls[1].Duration != 3000 {
		t.Fatalf("second extraction duration = %v, want 3000 (clamped to remaining media)", extractor.calls[1].Duration)
	}
}
