package pipeline

import (
	"time"

	"class360/internal/progress"
)

// ledger owns the ProcessingStatus for one full-pipeline run. Every mutation
// recomputes overall progress and publishes a snapshot. Overall progress is
// clamped so it never decreases, even when a partially-complete step fails.
type ledger struct {
	hub      *progress.Broadcaster
	snapshot progress.Snapshot
}

func newLedger(hub *progress.Broadcaster, entityID, displayName string) *ledger {
	steps := make([]progress.Step, 0, len(stepOrder))
	for _, id := range stepOrder {
		steps = append(steps, progress.Step{
			ID:     id,
			Name:   stepNames[id],
			Status: progress.StepPending,
		})
	}
	l := &ledger{
		hub: hub,
		snapshot: progress.Snapshot{
			EntityID:    entityID,
			DisplayName: displayName,
			CurrentStep: stepNames[stepOrder[0]],
			Steps:       steps,
			StartedAt:   time.Now().UTC(),
		},
	}
	l.publish()
	return l
}

func (l *ledger) begin(stepID, message string) {
	step := l.step(stepID)
	step.Status = progress.StepProcessing
	step.Progress = 0
	step.Message = message
	l.snapshot.CurrentStep = step.Name
	l.recompute()
	l.publish()
}

func (l *ledger) update(stepID string, pct float64, message string) {
	step := l.step(stepID)
	if pct > step.Progress {
		step.Progress = pct
	}
	if message != "" {
		step.Message = message
	}
	l.recompute()
	l.publish()
}

func (l *ledger) complete(stepID string) {
	step := l.step(stepID)
	step.Status = progress.StepCompleted
	step.Progress = 100
	step.Message = ""
	l.recompute()
	l.publish()
}

func (l *ledger) fail(stepID, message string) {
	step := l.step(stepID)
	step.Status = progress.StepFailed
	step.Message = message
	l.recompute()
	l.publish()
}

// finish marks the run terminal. A successful run always lands on 100% even
// when non-fatal steps failed along the way.
func (l *ledger) finish(succeeded bool) {
	for i := range l.snapshot.Steps {
		if !l.snapshot.Steps[i].Status.IsTerminal() {
			if succeeded {
				l.snapshot.Steps[i].Status = progress.StepCompleted
			}
		}
	}
	if succeeded {
		l.snapshot.CurrentStep = "Complete"
		l.snapshot.OverallProgress = 100
	}
	l.snapshot.EstimatedSecondsRemaining = 0
	l.publish()
}

func (l *ledger) step(stepID string) *progress.Step {
	for i := range l.snapshot.Steps {
		if l.snapshot.Steps[i].ID == stepID {
			return &l.snapshot.Steps[i]
		}
	}
	return &progress.Step{}
}

// recompute applies the coarse progress formula: completed steps count whole,
// the single processing step counts fractionally, failed steps count nothing.
// The result only ever moves forward.
func (l *ledger) recompute() {
	completed := 0
	fraction := 0.0
	for _, step := range l.snapshot.Steps {
		switch step.Status {
		case progress.StepCompleted:
			completed++
		case progress.StepProcessing:
			fraction = step.Progress / 100
		}
	}
	overall := (float64(completed) + fraction) / float64(len(l.snapshot.Steps)) * 100
	if overall > l.snapshot.OverallProgress {
		l.snapshot.OverallProgress = overall
		l.updateEstimate()
	}
}

// updateEstimate derives a rough time-remaining figure from elapsed wall time
// and progress so far. It is advisory only.
func (l *ledger) updateEstimate() {
	if l.snapshot.OverallProgress <= 0 || l.snapshot.OverallProgress >= 100 {
		l.snapshot.EstimatedSecondsRemaining = 0
		return
	}
	elapsed := time.Since(l.snapshot.StartedAt).Seconds()
	if elapsed <= 0 {
		return
	}
	total := elapsed / (l.snapshot.OverallProgress / 100)
	l.snapshot.EstimatedSecondsRemaining = total - elapsed
}

func (l *ledger) publish() {
	if l.hub != nil {
		l.hub.Publish(l.snapshot.EntityID, l.snapshot)
	}
}
