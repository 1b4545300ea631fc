package pipeline

// Step identifiers, in fixed execution order.
const (
	StepTrim      = "trim"
	StepSubtitles = "subtitles"
	StepDub       = "dub"
	StepOCR       = "ocr"
	StepAnalyze   = "analyze"
)

// stepOrder is the fixed execution sequence for a full pipeline run.
var stepOrder = []string{StepTrim, StepSubtitles, StepDub, StepOCR, StepAnalyze}

// stepNames are the human-readable labels shown in progress snapshots.
var stepNames = map[string]string{
	StepTrim:      "Trimming Video",
	StepSubtitles: "Generating Subtitles",
	StepDub:       "Dubbing Audio",
	StepOCR:       "Extracting Board Notes",
	StepAnalyze:   "Analyzing Content",
}

// FailureMode describes what a step failure does to the rest of the run.
type FailureMode int

const (
	// FailureFatal aborts the pipeline and fails the job.
	FailureFatal FailureMode = iota
	// FailureNonFatal records the failure and continues to the next step.
	FailureNonFatal
	// FailureIsolated records the failure without affecting the job outcome.
	FailureIsolated
)

// failurePolicy is the per-step failure table. Trim and subtitles produce
// inputs every later step depends on, so they abort the run. Dub failure is
// tolerable because the original audio track remains playable. OCR and
// analysis produce optional study artifacts.
var failurePolicy = map[string]FailureMode{
	StepTrim:      FailureFatal,
	StepSubtitles: FailureFatal,
	StepDub:       FailureNonFatal,
	StepOCR:       FailureIsolated,
	StepAnalyze:   FailureIsolated,
}

// PolicyFor returns the failure mode for a step id.
func PolicyFor(stepID string) FailureMode {
	mode, ok := failurePolicy[stepID]
	if !ok {
		return FailureFatal
	}
	return mode
}
