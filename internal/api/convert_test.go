package api_test

import (
	"errors"
	"testing"
	"time"

	"class360/internal/api"
	"class360/internal/mediastore"
	"class360/internal/queue"
	"class360/internal/services"
)

func TestEnqueueRequestToJob(t *testing.T) {
	req := api.EnqueueRequest{
		Type:     "full_pipeline",
		Priority: "HIGH",
		EntityID: " vid-1 ",
	}
	job, err := req.ToJob()
	if err != nil {
		t.Fatalf("ToJob: %v", err)
	}
	if job.Type != queue.TypeFullPipeline || job.Priority != queue.PriorityHigh || job.EntityID != "vid-1" {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestEnqueueRequestDefaultsPriority(t *testing.T) {
	job, err := api.EnqueueRequest{Type: "ocr", EntityID: "vid-1"}.ToJob()
	if err != nil {
		t.Fatalf("ToJob: %v", err)
	}
	if job.Priority != queue.PriorityNormal {
		t.Fatalf("priority = %q, want normal", job.Priority)
	}
}

func TestEnqueueRequestValidation(t *testing.T) {
	cases := []api.EnqueueRequest{
		{Type: "explode", EntityID: "vid-1"},
		{Type: "trim", Priority: "urgent", EntityID: "vid-1"},
		{Type: "trim"},
	}
	for _, req := range cases {
		if _, err := req.ToJob(); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("ToJob(%+v) error = %v, want validation", req, err)
		}
	}
}

func TestSplitRequestParseDate(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	date, err := api.SplitRequest{RecordingPath: "/r.mp4", ClassroomID: "room-7", Date: "2026-08-21"}.ParseDate(now)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if date.Format("2006-01-02") != "2026-08-21" {
		t.Fatalf("date = %v", date)
	}

	date, err = api.SplitRequest{RecordingPath: "/r.mp4", ClassroomID: "room-7"}.ParseDate(now)
	if err != nil {
		t.Fatalf("ParseDate default: %v", err)
	}
	if !date.Equal(now) {
		t.Fatalf("default date = %v, want now", date)
	}

	if _, err := (api.SplitRequest{ClassroomID: "room-7"}).ParseDate(now); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("missing path error = %v", err)
	}
	if _, err := (api.SplitRequest{RecordingPath: "/r.mp4"}).ParseDate(now); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("missing classroom error = %v", err)
	}
	if _, err := (api.SplitRequest{RecordingPath: "/r.mp4", ClassroomID: "room-7", Date: "21/08/2026"}).ParseDate(now); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad date error = %v", err)
	}
}

func TestFromEntityBuildsSubtitleTracks(t *testing.T) {
	entity := &mediastore.Entity{
		ID: "vid-1",
		SubtitleURLs: map[string]string{
			"hi": "/out/hi.srt",
			"en": "/out/en.srt",
		},
	}
	video := api.FromEntity(entity)
	if len(video.Subtitles) != 2 {
		t.Fatalf("tracks = %d, want 2", len(video.Subtitles))
	}
	if video.Subtitles[0].Language != "en" || video.Subtitles[0].DisplayName != "English" {
		t.Fatalf("first track = %+v", video.Subtitles[0])
	}
	if video.Subtitles[1].Language != "hi" || video.Subtitles[1].DisplayName != "Hindi" {
		t.Fatalf("second track = %+v", video.Subtitles[1])
	}
}

func TestFromJobFormatsCreatedAt(t *testing.T) {
	created := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)
	job := api.FromJob(&queue.Job{ID: "j1", Type: queue.TypeTrim, Priority: queue.PriorityLow, Status: queue.StatusPending, CreatedAt: created})
	if job.CreatedAt != "2026-08-24T09:30:00Z" {
		t.Fatalf("created_at = %q", job.CreatedAt)
	}
	if job.Type != "trim" || job.Priority != "low" || job.Status != "pending" {
		t.Fatalf("unexpected job %+v", job)
	}
}
