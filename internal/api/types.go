package api

import (
	"strings"
	"time"

	"class360/internal/capture"
	"class360/internal/deps"
	"class360/internal/queue"
	"class360/internal/services"
)

// Job is the wire representation of a queued or finished job.
type Job struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	Priority     string       `json:"priority"`
	EntityID     string       `json:"entity_id"`
	InputPath    string       `json:"input_path,omitempty"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    string       `json:"created_at,omitempty"`
	Params       queue.Params `json:"params"`
}

// EnqueueRequest asks the daemon to queue one job.
type EnqueueRequest struct {
	Type      string       `json:"type"`
	Priority  string       `json:"priority,omitempty"`
	EntityID  string       `json:"entity_id"`
	InputPath string       `json:"input_path,omitempty"`
	Params    queue.Params `json:"params"`
}

// ToJob validates the request and converts it into a queue job.
func (r EnqueueRequest) ToJob() (*queue.Job, error) {
	jobType, ok := queue.ParseType(r.Type)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "", "enqueue", "unknown job type "+r.Type, nil)
	}
	priority, ok := queue.ParsePriority(r.Priority)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "", "enqueue", "unknown priority "+r.Priority, nil)
	}
	if strings.TrimSpace(r.EntityID) == "" {
		return nil, services.Wrap(services.ErrValidation, "", "enqueue", "entity_id required", nil)
	}
	return &queue.Job{
		Type:      jobType,
		Priority:  priority,
		EntityID:  strings.TrimSpace(r.EntityID),
		InputPath: strings.TrimSpace(r.InputPath),
		Params:    r.Params,
	}, nil
}

// EnqueueResponse returns the assigned job id.
type EnqueueResponse struct {
	JobID string `json:"job_id"`
}

// SplitRequest asks the daemon to split a full-day recording.
type SplitRequest struct {
	RecordingPath string `json:"recording_path"`
	ClassroomID   string `json:"classroom_id"`
	Date          string `json:"date,omitempty"`
}

// ParseDate validates the request and resolves its calendar date. An empty
// date means today.
func (r SplitRequest) ParseDate(now time.Time) (time.Time, error) {
	if strings.TrimSpace(r.RecordingPath) == "" {
		return time.Time{}, services.Wrap(services.ErrValidation, "", "split", "recording_path required", nil)
	}
	if strings.TrimSpace(r.ClassroomID) == "" {
		return time.Time{}, services.Wrap(services.ErrValidation, "", "split", "classroom_id required", nil)
	}
	if strings.TrimSpace(r.Date) == "" {
		return now, nil
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrValidation, "", "split", "date must be YYYY-MM-DD", err)
	}
	return date, nil
}

// SplitResponse lists the segment entities created by a split.
type SplitResponse struct {
	Segments []Video `json:"segments"`
}

// RecordingStartRequest starts a live capture session.
type RecordingStartRequest struct {
	Source string `json:"source"`
}

// RecordingStatus mirrors capture.Status on the wire.
type RecordingStatus = capture.Status

// SubtitleTrack is one generated subtitle file with its resolved language
// display name.
type SubtitleTrack struct {
	Language    string `json:"language"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// Video is the wire representation of a video entity with its artifacts.
type Video struct {
	ID           string          `json:"id"`
	Title        string          `json:"title,omitempty"`
	Subject      string          `json:"subject,omitempty"`
	TeacherID    string          `json:"teacher_id,omitempty"`
	ClassroomID  string          `json:"classroom_id,omitempty"`
	Date         string          `json:"date,omitempty"`
	Period       int             `json:"period,omitempty"`
	DurationSec  float64         `json:"duration_seconds,omitempty"`
	Status       string          `json:"status,omitempty"`
	TrimmedURL   string          `json:"trimmed_url,omitempty"`
	Subtitles    []SubtitleTrack `json:"subtitles,omitempty"`
	DubURL       string          `json:"dub_url,omitempty"`
	NotesURL     string          `json:"notes_url,omitempty"`
	NotesPDFURL  string          `json:"notes_pdf_url,omitempty"`
	QuestionsURL string          `json:"questions_url,omitempty"`
	ManifestURL  string          `json:"manifest_url,omitempty"`
}

// QueueSummary combines tier depths with the pending jobs in selection order.
type QueueSummary struct {
	Depths  queue.Depths `json:"depths"`
	Pending []Job        `json:"pending"`
}

// StatusSummary is the daemon-level status surface.
type StatusSummary struct {
	Running    bool                  `json:"running"`
	PID        int                   `json:"pid"`
	Depths     queue.Depths          `json:"queue_depths"`
	Recordings []capture.SessionInfo `json:"recordings"`
	Tools      []deps.Status         `json:"tools,omitempty"`
	LockPath   string                `json:"lock_path"`
	StorePath  string                `json:"store_path"`
	LastError  string                `json:"last_error,omitempty"`
}
