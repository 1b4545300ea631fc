package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"class360/internal/config"
	"class360/internal/mediastore"
	"class360/internal/pipeline"
	"class360/internal/progress"
	"class360/internal/queue"
	"class360/internal/services"
	"class360/internal/testsupport"
)

type fixture struct {
	cfg    *config.Config
	store  *mediastore.SQLiteStore
	runner *testsupport.FakeRunner
	hub    *progress.Broadcaster
	exec   *pipeline.Executor
	entity *mediastore.Entity
	input  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	input := testsupport.Recording(t, cfg.Paths.RecordingsDir, "lecture.mp4")
	entity := testsupport.NewEntity(t, store, "vid-1", input)

	runner := testsupport.NewFakeRunner()
	hub := progress.NewBroadcaster(nil)
	return &fixture{
		cfg:    cfg,
		store:  store,
		runner: runner,
		hub:    hub,
		exec:   pipeline.New(cfg, store, runner, hub, nil),
		entity: entity,
		input:  input,
	}
}

func (f *fixture) fullPipelineJob() *queue.Job {
	return &queue.Job{
		ID:       "job-1",
		Type:     queue.TypeFullPipeline,
		EntityID: f.entity.ID,
	}
}

func (f *fixture) entityNow(t *testing.T) *mediastore.Entity {
	t.Helper()
	entity, ok, err := mediastore.GetEntity(context.Background(), f.store, f.entity.ID)
	if err != nil || !ok {
		t.Fatalf("reload entity: ok=%v err=%v", ok, err)
	}
	return entity
}

func stepStatus(t *testing.T, snapshot progress.Snapshot, stepID string) progress.Step {
	t.Helper()
	for _, step := range snapshot.Steps {
		if step.ID == stepID {
			return step
		}
	}
	t.Fatalf("step %q not in snapshot", stepID)
	return progress.Step{}
}

func TestFullPipelineSuccess(t *testing.T) {
	f := newFixture(t)

	if err := f.exec.Execute(context.Background(), f.fullPipelineJob()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	snapshot, ok := f.hub.Latest(f.entity.ID)
	if !ok {
		t.Fatal("expected a progress snapshot")
	}
	if snapshot.OverallProgress != 100 {
		t.Fatalf("overall progress = %v, want 100", snapshot.OverallProgress)
	}
	if snapshot.CurrentStep != "Complete" {
		t.Fatalf("current step = %q, want Complete", snapshot.CurrentStep)
	}
	for _, id := range []string{"trim", "subtitles", "dub", "ocr", "analyze"} {
		if got := stepStatus(t, snapshot, id).Status; got != progress.StepCompleted {
			t.Fatalf("step %s status = %q, want completed", id, got)
		}
	}

	entity := f.entityNow(t)
	if entity.Status != "completed" {
		t.Fatalf("entity status = %q, want completed", entity.Status)
	}
	if entity.TrimmedURL == "" || entity.DubURL == "" || entity.NotesURL == "" || entity.QuestionsURL == "" {
		t.Fatalf("missing artifact references: %+v", entity)
	}
	if entity.ManifestURL == "" {
		t.Fatal("expected manifest reference")
	}
}

func TestFatalSubtitlesFailureAbortsPipeline(t *testing.T) {
	f := newFixture(t)
	f.runner.StubFailure(f.cfg.Tools.Subtitles, errors.New("whisper crashed"))

	err := f.exec.Execute(context.Background(), f.fullPipelineJob())
	if err == nil {
		t.Fatal("expected job failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error not classified as external tool failure: %v", err)
	}

	snapshot, _ := f.hub.Latest(f.entity.ID)
	if got := stepStatus(t, snapshot, "trim").Status; got != progress.StepCompleted {
		t.Fatalf("trim status = %q, want completed", got)
	}
	if got := stepStatus(t, snapshot, "subtitles").Status; got != progress.StepFailed {
		t.Fatalf("subtitles status = %q, want failed", got)
	}
	for _, id := range []string{"dub", "ocr", "analyze"} {
		if got := stepStatus(t, snapshot, id).Status; got != progress.StepPending {
			t.Fatalf("step %s status = %q, want pending", id, got)
		}
	}
	if snapshot.OverallProgress >= 100 {
		t.Fatalf("overall progress = %v, must stay below 100", snapshot.OverallProgress)
	}
	if f.entityNow(t).Status != "failed" {
		t.Fatal("entity status should be failed after fatal step")
	}
}

func TestNonFatalDubFailureContinues(t *testing.T) {
	f := newFixture(t)
	f.runner.StubFailure(f.cfg.Tools.Dub, errors.New("voice model missing"))

	if err := f.exec.Execute(context.Background(), f.fullPipelineJob()); err != nil {
		t.Fatalf("Execute should succeed despite dub failure: %v", err)
	}

	snapshot, _ := f.hub.Latest(f.entity.ID)
	if got := stepStatus(t, snapshot, "dub").Status; got != progress.StepFailed {
		t.Fatalf("dub status = %q, want failed", got)
	}
	for _, id := range []string{"ocr", "analyze"} {
		if got := stepStatus(t, snapshot, id).Status; got != progress.StepCompleted {
			t.Fatalf("step %s status = %q, want completed", id, got)
		}
	}
	if snapshot.OverallProgress != 100 {
		t.Fatalf("overall progress = %v, want 100", snapshot.OverallProgress)
	}
	if f.entityNow(t).Status != "completed" {
		t.Fatal("entity should complete despite dub failure")
	}
}

func TestIsolatedAnalyzeFailureStillCompletes(t *testing.T) {
	f := newFixture(t)
	f.runner.StubFailure(f.cfg.Tools.Analyze, errors.New("llm unavailable"))

	if err := f.exec.Execute(context.Background(), f.fullPipelineJob()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	snapshot, _ := f.hub.Latest(f.entity.ID)
	if got := stepStatus(t, snapshot, "analyze").Status; got != progress.StepFailed {
		t.Fatalf("analyze status = %q, want failed", got)
	}
	if snapshot.OverallProgress != 100 {
		t.Fatalf("overall progress = %v, want 100", snapshot.OverallProgress)
	}
}

func TestOverallProgressIsMonotonic(t *testing.T) {
	f := newFixture(t)
	f.runner.StubFailure(f.cfg.Tools.Dub, errors.New("voice model missing"))

	ch := f.hub.Subscribe(f.entity.ID)
	defer f.hub.Unsubscribe(f.entity.ID, ch)

	if err := f.exec.Execute(context.Background(), f.fullPipelineJob()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	last := -1.0
	for {
		select {
		case snapshot := <-ch:
			if snapshot.OverallProgress < last {
				t.Fatalf("overall progress regressed from %v to %v", last, snapshot.OverallProgress)
			}
			last = snapshot.OverallProgress
		default:
			final, ok := f.hub.Latest(f.entity.ID)
			if !ok || final.OverallProgress != 100 {
				t.Fatalf("final overall progress = %+v, want 100", final.OverallProgress)
			}
			return
		}
	}
}

func TestTrimCopiesThroughWithoutOffsets(t *testing.T) {
	f := newFixture(t)

	if err := f.exec.Execute(context.Background(), f.fullPipelineJob()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if calls := f.runner.CallsFor(f.cfg.Tools.Trim); len(calls) != 0 {
		t.Fatalf("trim tool invoked %d times without offsets", len(calls))
	}

	entity := f.entityNow(t)
	want := filepath.Join(f.cfg.Paths.OutputDir, f.entity.ID, "trimmed.mp4")
	if entity.TrimmedURL != want {
		t.Fatalf("trimmed url = %q, want %q", entity.TrimmedURL, want)
	}
}

func TestTrimInvokesToolWithOffsets(t *testing.T) {
	f := newFixture(t)

	job := f.fullPipelineJob()
	job.Params.StartTrimSec = 12
	job.Params.EndTrimSec = 30
	if err := f.exec.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	calls := f.runner.CallsFor(f.cfg.Tools.Trim)
	if len(calls) != 1 {
		t.Fatalf("trim tool invoked %d times, want 1", len(calls))
	}
	args := calls[0].Args
	if args[0] != f.input {
		t.Fatalf("trim input = %q, want %q", args[0], f.input)
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{"--start_trim 12", "--end_trim 30", "--output"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("trim args %q missing %q", joined, fragment)
		}
	}
}

func TestSubtitlesRunPerLanguage(t *testing.T) {
	f := newFixture(t)
	f.cfg.Pipeline.SubtitleLanguages = []string{"en", "hi"}

	if err := f.exec.Execute(context.Background(), f.fullPipelineJob()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	calls := f.runner.CallsFor(f.cfg.Tools.Subtitles)
	if len(calls) != 2 {
		t.Fatalf("subtitle tool invoked %d times, want 2", len(calls))
	}

	entity := f.entityNow(t)
	for _, lang := range []string{"en", "hi"} {
		if entity.SubtitleURLs[lang] == "" {
			t.Fatalf("missing subtitle reference for %s: %+v", lang, entity.SubtitleURLs)
		}
	}
}

func TestSingleStepJobRunsOneStage(t *testing.T) {
	f := newFixture(t)

	job := &queue.Job{ID: "job-ocr", Type: queue.TypeOCR, EntityID: f.entity.ID}
	if err := f.exec.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if calls := f.runner.CallsFor(f.cfg.Tools.OCR); len(calls) != 1 {
		t.Fatalf("ocr tool invoked %d times, want 1", len(calls))
	}
	if calls := f.runner.CallsFor(f.cfg.Tools.Subtitles); len(calls) != 0 {
		t.Fatalf("subtitle tool invoked %d times during ocr-only job", len(calls))
	}
	if _, ok := f.hub.Latest(f.entity.ID); ok {
		t.Fatal("single-step job must not publish a processing ledger")
	}
	if f.entityNow(t).NotesURL == "" {
		t.Fatal("expected notes reference after ocr job")
	}
}

func TestExecuteMissingEntityFails(t *testing.T) {
	f := newFixture(t)

	job := &queue.Job{ID: "job-x", Type: queue.TypeFullPipeline, EntityID: "ghost"}
	err := f.exec.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error = %v, want not-found classification", err)
	}
}

func TestExecuteMissingInputFails(t *testing.T) {
	f := newFixture(t)

	job := f.fullPipelineJob()
	job.InputPath = filepath.Join(f.cfg.Paths.RecordingsDir, "does-not-exist.mp4")
	err := f.exec.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error = %v, want not-found classification", err)
	}
}
