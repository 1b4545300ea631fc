package timetable_test

import (
	"context"
	"testing"
	"time"

	"class360/internal/testsupport"
	"class360/internal/timetable"
)

func TestPeriodsForSortsByStartTime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	seedSchedule(t, store, "room-7", time.Monday, []map[string]any{
		{"hour": 2, "start": "10:00", "end": "10:50", "subject": "Physics"},
		{"hour": 1, "start": "09:00", "end": "09:50", "subject": "Algebra"},
	})

	repo := timetable.NewRepository(store)
	periods, err := repo.PeriodsFor(context.Background(), "room-7", time.Monday)
	if err != nil {
		t.Fatalf("PeriodsFor: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("periods = %d, want 2", len(periods))
	}
	if periods[0].Subject != "Algebra" || periods[1].Subject != "Physics" {
		t.Fatalf("periods out of order: %+v", periods)
	}
}

func TestPeriodsForMissingScheduleIsEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	repo := timetable.NewRepository(store)
	periods, err := repo.PeriodsFor(context.Background(), "room-7", time.Sunday)
	if err != nil {
		t.Fatalf("PeriodsFor: %v", err)
	}
	if len(periods) != 0 {
		t.Fatalf("expected empty schedule, got %+v", periods)
	}
}

func TestPeriodMinuteMath(t *testing.T) {
	period := timetable.Period{Start: "09:05", End: "09:55"}
	start, err := period.StartMinutes()
	if err != nil {
		t.Fatalf("StartMinutes: %v", err)
	}
	if start != 9*60+5 {
		t.Fatalf("start minutes = %d", start)
	}
	end, err := period.EndMinutes()
	if err != nil {
		t.Fatalf("EndMinutes: %v", err)
	}
	if end != 9*60+55 {
		t.Fatalf("end minutes = %d", end)
	}

	if _, err := (timetable.Period{Start: "9am"}).StartMinutes(); err == nil {
		t.Fatal("expected parse failure for malformed clock value")
	}
}
