package progress

import "time"

// StepStatus is the lifecycle of one pipeline step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// IsTerminal reports whether a step has finished, successfully or not.
func (s StepStatus) IsTerminal() bool {
	return s == StepCompleted || s == StepFailed
}

// Step is the observable state of one pipeline stage.
type Step struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   StepStatus `json:"status"`
	Progress float64    `json:"progress"`
	Message  string     `json:"message,omitempty"`
}

// Snapshot is the serialized processing status of one job at one point in
// time. Steps appear in fixed execution order.
type Snapshot struct {
	EntityID                  string    `json:"entity_id"`
	DisplayName               string    `json:"display_name"`
	OverallProgress           float64   `json:"overall_progress"`
	CurrentStep               string    `json:"current_step"`
	Steps                     []Step    `json:"steps"`
	StartedAt                 time.Time `json:"started_at"`
	EstimatedSecondsRemaining float64   `json:"estimated_seconds_remaining,omitempty"`
}

// Clone returns a deep copy so published snapshots never alias executor state.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Steps = make([]Step, len(s.Steps))
	copy(out.Steps, s.Steps)
	return out
}

// Terminal reports whether every step has reached a terminal status.
func (s Snapshot) Terminal() bool {
	for _, step := range s.Steps {
		if !step.Status.IsTerminal() {
			return false
		}
	}
	return len(s.Steps) > 0
}
