package timetable

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"class360/internal/mediastore"
)

// Repository reads classroom and timetable records from the store. Absent
// records degrade to empty results, never errors.
type Repository struct {
	store mediastore.Store
}

// NewRepository constructs a store-backed timetable reader.
func NewRepository(store mediastore.Store) *Repository {
	return &Repository{store: store}
}

// ClassroomPath builds the store key for a classroom record.
func ClassroomPath(id string) string {
	return "classrooms/" + id
}

// SchedulePath builds the store key for one weekday's periods.
func SchedulePath(classroomID string, weekday time.Weekday) string {
	return ClassroomPath(classroomID) + "/timetable/" + strings.ToLower(weekday.String())
}

// PeriodsFor returns a classroom's periods for one weekday, sorted by start
// time. A missing schedule yields an empty slice.
func (r *Repository) PeriodsFor(ctx context.Context, classroomID string, weekday time.Weekday) ([]Period, error) {
	doc, ok, err := r.store.Get(ctx, SchedulePath(classroomID, weekday))
	if err != nil {
		return nil, fmt.Errorf("load timetable for %s/%s: %w", classroomID, weekday, err)
	}
	if !ok {
		return nil, nil
	}

	raw, err := json.Marshal(doc["periods"])
	if err != nil {
		return nil, fmt.Errorf("encode periods for %s: %w", classroomID, err)
	}
	var periods []Period
	if err := json.Unmarshal(raw, &periods); err != nil {
		return nil, fmt.Errorf("decode periods for %s: %w", classroomID, err)
	}

	sort.SliceStable(periods, func(i, j int) bool {
		a, errA := periods[i].StartMinutes()
		b, errB := periods[j].StartMinutes()
		if errA != nil || errB != nil {
			return false
		}
		return a < b
	})
	return periods, nil
}

// Classrooms lists every classroom record.
func (r *Repository) Classrooms(ctx context.Context) ([]Classroom, error) {
	ids, err := r.store.Children(ctx, "classrooms")
	if err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}

	out := make([]Classroom, 0, len(ids))
	for _, id := range ids {
		doc, ok, err := r.store.Get(ctx, ClassroomPath(id))
		if err != nil {
			return nil, fmt.Errorf("load classroom %s: %w", id, err)
		}
		if !ok {
			continue
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			continue
		}
		var room Classroom
		if err := json.Unmarshal(raw, &room); err != nil {
			continue
		}
		if room.ID == "" {
			room.ID = id
		}
		out = append(out, room)
	}
	return out, nil
}

// CaptureClassrooms returns only classrooms flagged for live capture.
func (r *Repository) CaptureClassrooms(ctx context.Context) ([]Classroom, error) {
	rooms, err := r.Classrooms(ctx)
	if err != nil {
		return nil, err
	}
	out := rooms[:0]
	for _, room := range rooms {
		if room.LiveCapture {
			out = append(out, room)
		}
	}
	return out, nil
}
