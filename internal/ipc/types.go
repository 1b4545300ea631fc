package ipc

import (
	"class360/internal/api"
	"class360/internal/capture"
	"class360/internal/progress"
)

// StartRequest asks the daemon to begin background processing.
type StartRequest struct{}

// StartResponse reports the outcome of a start request.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to halt background processing.
type StopRequest struct{}

// StopResponse reports the outcome of a stop request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest asks for the daemon status summary.
type StatusRequest struct{}

// StatusResponse carries the daemon status summary.
type StatusResponse struct {
	Status api.StatusSummary `json:"status"`
}

// EnqueueRequest submits a job for processing.
type EnqueueRequest struct {
	Job api.EnqueueRequest `json:"job"`
}

// EnqueueResponse returns the id of the queued job.
type EnqueueResponse struct {
	JobID string `json:"job_id"`
}

// QueueListRequest asks for the pending queue contents.
type QueueListRequest struct{}

// QueueListResponse carries tier depths and pending jobs.
type QueueListResponse struct {
	Summary api.QueueSummary `json:"summary"`
}

// QueueClearRequest discards every pending job.
type QueueClearRequest struct{}

// QueueClearResponse reports how many jobs were discarded.
type QueueClearResponse struct {
	Removed int `json:"removed"`
}

// RecordingStartRequest begins a capture session for a classroom.
type RecordingStartRequest struct {
	ClassroomID string `json:"classroom_id"`
	Source      string `json:"source"`
}

// RecordingStartResponse describes the session that was started.
type RecordingStartResponse struct {
	Session capture.SessionInfo `json:"session"`
}

// RecordingStopRequest ends a classroom's capture session.
type RecordingStopRequest struct {
	ClassroomID string `json:"classroom_id"`
}

// RecordingStopResponse describes the finished recording.
type RecordingStopResponse struct {
	Result capture.StopResult `json:"result"`
}

// RecordingStatusRequest asks whether a classroom is recording.
type RecordingStatusRequest struct {
	ClassroomID string `json:"classroom_id"`
}

// RecordingStatusResponse carries the recording state for a classroom.
type RecordingStatusResponse struct {
	Status capture.Status `json:"status"`
}

// SplitRequest cuts a full-day recording into per-period segments.
type SplitRequest struct {
	Split api.SplitRequest `json:"split"`
}

// SplitResponse lists the segment entities that were created and queued.
type SplitResponse struct {
	Segments []api.Video `json:"segments"`
}

// VideoGetRequest loads one video entity by id.
type VideoGetRequest struct {
	ID string `json:"id"`
}

// VideoGetResponse carries the requested video entity.
type VideoGetResponse struct {
	Video api.Video `json:"video"`
}

// ProgressGetRequest asks for the latest progress snapshot of one entity.
type ProgressGetRequest struct {
	EntityID string `json:"entity_id"`
}

// ProgressGetResponse carries the snapshot, if one exists.
type ProgressGetResponse struct {
	Found    bool              `json:"found"`
	Snapshot progress.Snapshot `json:"snapshot"`
}

// ProgressListRequest asks for every in-flight progress snapshot.
type ProgressListRequest struct{}

// ProgressListResponse carries snapshots below 100% overall progress.
type ProgressListResponse struct {
	Snapshots []progress.Snapshot `json:"snapshots"`
}

// LogTailRequest reads daemon log lines. A negative offset asks for the last
// Limit lines; WaitMillis long-polls for new output when the read is empty.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	WaitMillis int   `json:"wait_millis,omitempty"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
