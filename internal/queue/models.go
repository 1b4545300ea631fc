package queue

import (
	"strings"
	"time"
)

// Type identifies what work a job performs. Single-step types rerun one
// pipeline stage in isolation; full_pipeline runs the complete sequence.
type Type string

const (
	TypeTrim         Type = "trim"
	TypeSubtitles    Type = "subtitles"
	TypeDub          Type = "dub"
	TypeOCR          Type = "ocr"
	TypeAnalyze      Type = "analyze"
	TypeFullPipeline Type = "full_pipeline"
)

var allTypes = []Type{TypeTrim, TypeSubtitles, TypeDub, TypeOCR, TypeAnalyze, TypeFullPipeline}

// Priority selects the queue tier. Tiers determine selection order, never
// preemption of an in-flight job.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// tierOrder is the strict precedence applied at each selection decision.
var tierOrder = []Priority{PriorityHigh, PriorityNormal, PriorityLow}

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Params carries per-step parameters forwarded to the external tools.
// Zero values defer to configuration defaults.
type Params struct {
	StartTrimSec      int      `json:"start_trim_seconds,omitempty"`
	EndTrimSec        int      `json:"end_trim_seconds,omitempty"`
	SubtitleLanguages []string `json:"subtitle_languages,omitempty"`
	DubLanguages      []string `json:"dub_languages,omitempty"`
	OCRIntervalSec    int      `json:"ocr_interval_seconds,omitempty"`
	QuestionCount     int      `json:"question_count,omitempty"`
}

// HasTrimOffsets reports whether the trim step has anything to cut.
func (p Params) HasTrimOffsets() bool {
	return p.StartTrimSec > 0 || p.EndTrimSec > 0
}

// Job is one unit of queued work targeting a video entity. The queue owns a
// job until it is dequeued; the executor owns it afterwards and only the
// terminal failure fields are written back.
type Job struct {
	ID           string
	Type         Type
	Priority     Priority
	EntityID     string
	InputPath    string
	Params       Params
	CreatedAt    time.Time
	Status       Status
	ErrorMessage string
}

// ParseType converts a string into a known job Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range allTypes {
		if t == normalized {
			return normalized, true
		}
	}
	return "", false
}

// ParsePriority converts a string into a known Priority. Empty input maps to
// normal priority.
func ParsePriority(value string) (Priority, bool) {
	normalized := Priority(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case "":
		return PriorityNormal, true
	case PriorityHigh, PriorityNormal, PriorityLow:
		return normalized, true
	default:
		return "", false
	}
}
