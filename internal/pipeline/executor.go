package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"class360/internal/config"
	"class360/internal/logging"
	"class360/internal/mediastore"
	"class360/internal/progress"
	"class360/internal/queue"
	"class360/internal/services"
	"class360/internal/toolrunner"
)

// Executor runs processing jobs against video entities. A full-pipeline job
// walks the five-step state machine; single-step jobs rerun one stage in
// isolation without the progress ledger.
type Executor struct {
	cfg    *config.Config
	store  mediastore.Store
	runner toolrunner.Runner
	hub    *progress.Broadcaster
	logger *slog.Logger
}

// New constructs the executor.
func New(cfg *config.Config, store mediastore.Store, runner toolrunner.Runner, hub *progress.Broadcaster, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		cfg:    cfg,
		store:  store,
		runner: runner,
		hub:    hub,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// stepRequest is the mutable state threaded through step handlers during one
// run. Trim replaces WorkingPath so later steps consume the trimmed file, and
// subtitles records the source-language transcript for the analyze step.
type stepRequest struct {
	entity         *mediastore.Entity
	params         queue.Params
	workingPath    string
	transcriptPath string
	outputDir      string
	report         func(pct float64, message string)
}

// Execute runs one dequeued job to completion. The returned error is the
// job's terminal failure, already classified via the services sentinels.
func (e *Executor) Execute(ctx context.Context, job *queue.Job) error {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithEntityID(ctx, job.EntityID)

	entity, inputPath, err := e.resolveInput(ctx, job)
	if err != nil {
		return err
	}

	outputDir := filepath.Join(e.cfg.Paths.OutputDir, entity.ID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	req := &stepRequest{
		entity:      entity,
		params:      job.Params,
		workingPath: inputPath,
		outputDir:   outputDir,
		report:      func(float64, string) {},
	}

	if job.Type == queue.TypeFullPipeline {
		return e.runPipeline(ctx, req)
	}
	return e.runSingleStep(ctx, string(job.Type), req)
}

func (e *Executor) resolveInput(ctx context.Context, job *queue.Job) (*mediastore.Entity, string, error) {
	entity, ok, err := mediastore.GetEntity(ctx, e.store, job.EntityID)
	if err != nil {
		return nil, "", services.Wrap(services.ErrStoreUnavailable, "", "load entity", job.EntityID, err)
	}
	if !ok {
		return nil, "", services.Wrap(services.ErrNotFound, "", "load entity", job.EntityID, nil)
	}

	inputPath := job.InputPath
	if inputPath == "" {
		inputPath = entity.FilePath
	}
	if inputPath == "" {
		return nil, "", services.Wrap(services.ErrValidation, "", "resolve input", "no input path for entity "+job.EntityID, nil)
	}
	if _, err := os.Stat(inputPath); err != nil {
		return nil, "", services.Wrap(services.ErrNotFound, "", "resolve input", inputPath, err)
	}
	return entity, inputPath, nil
}

// runPipeline executes all five steps in order, consulting the failure table
// after each one. Only a fatal step failure produces a job error.
func (e *Executor) runPipeline(ctx context.Context, req *stepRequest) error {
	led := newLedger(e.hub, req.entity.ID, e.displayName(req.entity))
	e.persistFields(ctx, req.entity.ID, map[string]any{"status": "processing"})

	for _, stepID := range stepOrder {
		if err := ctx.Err(); err != nil {
			led.fail(stepID, "canceled")
			led.finish(false)
			e.persistFields(ctx, req.entity.ID, map[string]any{"status": "failed"})
			return err
		}

		req.report = func(pct float64, message string) {
			led.update(stepID, pct, message)
		}
		led.begin(stepID, stepNames[stepID])

		err := e.runStep(ctx, stepID, req)
		if err == nil {
			led.complete(stepID)
			continue
		}

		message := services.Message(err)
		led.fail(stepID, message)

		switch PolicyFor(stepID) {
		case FailureFatal:
			e.logger.Error("pipeline step failed, aborting job",
				logging.String(logging.FieldEntityID, req.entity.ID),
				logging.String(logging.FieldStep, stepID),
				logging.Error(err),
			)
			led.finish(false)
			e.persistFields(ctx, req.entity.ID, map[string]any{"status": "failed"})
			return err
		default:
			e.logger.Warn("pipeline step failed, continuing",
				logging.String(logging.FieldEntityID, req.entity.ID),
				logging.String(logging.FieldStep, stepID),
				logging.Error(err),
			)
		}
	}

	if err := e.writeManifest(ctx, req); err != nil {
		e.logger.Warn("manifest write failed",
			logging.String(logging.FieldEntityID, req.entity.ID),
			logging.Error(err),
		)
	}

	led.finish(true)
	e.persistFields(ctx, req.entity.ID, map[string]any{"status": "completed"})
	e.logger.Info("pipeline completed",
		logging.String(logging.FieldEntityID, req.entity.ID),
	)
	return nil
}

// runSingleStep reruns one stage for on-demand reprocessing. No ledger is
// kept; failures propagate directly to the queue regardless of the step's
// pipeline failure mode.
func (e *Executor) runSingleStep(ctx context.Context, stepID string, req *stepRequest) error {
	if _, known := stepNames[stepID]; !known {
		return services.Wrap(services.ErrValidation, stepID, "run step", "unknown step", nil)
	}
	e.logger.Info("running single step",
		logging.String(logging.FieldEntityID, req.entity.ID),
		logging.String(logging.FieldStep, stepID),
	)
	return e.runStep(ctx, stepID, req)
}

func (e *Executor) runStep(ctx context.Context, stepID string, req *stepRequest) error {
	ctx = services.WithStep(ctx, stepID)
	switch stepID {
	case StepTrim:
		return e.stepTrim(ctx, req)
	case StepSubtitles:
		return e.stepSubtitles(ctx, req)
	case StepDub:
		return e.stepDub(ctx, req)
	case StepOCR:
		return e.stepOCR(ctx, req)
	case StepAnalyze:
		return e.stepAnalyze(ctx, req)
	default:
		return services.Wrap(services.ErrValidation, stepID, "run step", "unknown step", nil)
	}
}

func (e *Executor) displayName(entity *mediastore.Entity) string {
	if entity.Title != "" {
		return entity.Title
	}
	parts := make([]string, 0, 3)
	if entity.Subject != "" {
		parts = append(parts, entity.Subject)
	}
	if entity.Date != "" {
		parts = append(parts, entity.Date)
	}
	if entity.Period > 0 {
		parts = append(parts, fmt.Sprintf("P%d", entity.Period))
	}
	if len(parts) == 0 {
		return entity.ID
	}
	return strings.Join(parts, " ")
}

// persistFields writes entity fields, degrading to a log line when the store
// is unavailable so a persistence hiccup never kills the run.
func (e *Executor) persistFields(ctx context.Context, entityID string, fields map[string]any) {
	if err := mediastore.UpdateEntity(ctx, e.store, entityID, fields); err != nil {
		e.logger.Warn("entity update failed",
			logging.String(logging.FieldEntityID, entityID),
			logging.Error(err),
		)
	}
}

// writeManifest records every produced artifact in one JSON document next to
// the outputs and links it from the entity record.
func (e *Executor) writeManifest(ctx context.Context, req *stepRequest) error {
	entity, ok, err := mediastore.GetEntity(ctx, e.store, req.entity.ID)
	if err != nil || !ok {
		entity = req.entity
	}

	manifest := map[string]any{
		"entity_id":     entity.ID,
		"source":        req.workingPath,
		"trimmed_url":   entity.TrimmedURL,
		"subtitle_urls": entity.SubtitleURLs,
		"dub_url":       entity.DubURL,
		"notes_url":     entity.NotesURL,
		"notes_pdf_url": entity.NotesPDFURL,
		"questions_url": entity.QuestionsURL,
	}
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	manifestPath := filepath.Join(req.outputDir, "manifest.json")
	if err := os.WriteFile(manifestPath, raw, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	e.persistFields(ctx, entity.ID, map[string]any{"manifest_url": manifestPath})
	return nil
}
