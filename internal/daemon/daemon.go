package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"class360/internal/api"
	"class360/internal/capture"
	"class360/internal/config"
	"class360/internal/deps"
	"class360/internal/logging"
	"class360/internal/logs"
	"class360/internal/media/clip"
	"class360/internal/media/probe"
	"class360/internal/mediastore"
	"class360/internal/pipeline"
	"class360/internal/progress"
	"class360/internal/queue"
	"class360/internal/scheduler"
	"class360/internal/services"
	"class360/internal/timetable"
	"class360/internal/toolrunner"
)

// Daemon wires the orchestration subsystems together and enforces
// single-instance execution through a file lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store      *mediastore.SQLiteStore
	jobs       *queue.Queue
	hub        *progress.Broadcaster
	sched      *scheduler.Scheduler
	supervisor *capture.Supervisor
	ticker     *timetable.Ticker
	splitter   *timetable.Splitter
	devmon     *capture.DeviceMonitor
	apiSrv     *apiServer
	metrics    *metricsSet

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Option customizes daemon construction, mainly for tests.
type Option func(*options)

type options struct {
	runner  toolrunner.Runner
	factory capture.SessionFactory
}

// WithRunner substitutes the external tool runner.
func WithRunner(runner toolrunner.Runner) Option {
	return func(o *options) {
		if runner != nil {
			o.runner = runner
		}
	}
}

// WithSessionFactory substitutes the capture session factory.
func WithSessionFactory(factory capture.SessionFactory) Option {
	return func(o *options) {
		if factory != nil {
			o.factory = factory
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runner == nil {
		o.runner = toolrunner.New()
	}

	store, err := mediastore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open media store: %w", err)
	}

	metrics := newMetricsSet()
	jobs := queue.New(logger)
	hub := progress.NewBroadcaster(logger)
	executor := pipeline.New(cfg, store, o.runner, hub, logger)
	sched := scheduler.New(cfg, jobs, metrics.instrument(executor), logger)

	if o.factory == nil {
		o.factory = capture.NewFFmpegFactory(cfg, logger)
	}
	supervisor := capture.NewSupervisor(cfg, o.factory, logger)

	prober := probe.New(cfg.Tools.FFprobe, o.runner)
	extractor := clip.New(cfg.Tools.FFmpeg, o.runner)
	splitter := timetable.NewSplitter(cfg, store, prober, extractor, jobs, logger)
	ticker := timetable.NewTicker(cfg, store, supervisor, jobs, logger)

	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		jobs:       jobs,
		hub:        hub,
		sched:      sched,
		supervisor: supervisor,
		ticker:     ticker,
		splitter:   splitter,
		metrics:    metrics,
		lockPath:   filepath.Join(cfg.Paths.LogDir, "class360d.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.devmon = capture.NewDeviceMonitor(cfg, supervisor, logger, d.handleAutoStop)
	d.apiSrv = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another class360 daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.sched.Start(d.ctx); err != nil {
		d.releaseLock()
		d.cancel()
		d.ctx, d.cancel = nil, nil
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := d.ticker.Start(d.ctx); err != nil {
		d.sched.Stop()
		d.releaseLock()
		d.cancel()
		d.ctx, d.cancel = nil, nil
		return fmt.Errorf("start timetable ticker: %w", err)
	}
	_ = d.devmon.Start(d.ctx)
	if d.apiSrv != nil {
		if err := d.apiSrv.start(d.ctx); err != nil {
			d.logger.Warn("api server unavailable", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.devmon.Stop()
	d.ticker.Stop()
	d.sched.Stop()
	d.releaseLock()
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// APIAddr returns the HTTP listen address once the server is up.
func (d *Daemon) APIAddr() string {
	return d.apiSrv.Addr()
}

// Status reports daemon runtime information.
func (d *Daemon) Status() api.StatusSummary {
	summary := api.StatusSummary{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		Depths:     d.jobs.Depths(),
		Recordings: d.supervisor.Active(),
		Tools:      deps.Check(deps.ForConfig(d.cfg)),
		LockPath:   d.lockPath,
		StorePath:  d.store.Path(),
	}
	if err := d.sched.LastError(); err != nil {
		summary.LastError = err.Error()
	}
	return summary
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return d.cfg.Paths.LogFile()
}

// TailLogs reads daemon log lines starting at the given offset.
func (d *Daemon) TailLogs(ctx context.Context, opts logs.Options) (logs.Result, error) {
	return logs.Tail(ctx, d.LogPath(), opts)
}

// Enqueue validates and queues one job, returning its id.
func (d *Daemon) Enqueue(ctx context.Context, req api.EnqueueRequest) (string, error) {
	job, err := req.ToJob()
	if err != nil {
		return "", err
	}
	if _, ok, err := mediastore.GetEntity(ctx, d.store, job.EntityID); err != nil {
		return "", services.Wrap(services.ErrStoreUnavailable, "", "enqueue", job.EntityID, err)
	} else if !ok {
		return "", services.Wrap(services.ErrNotFound, "", "enqueue", "entity "+job.EntityID, nil)
	}

	id := d.jobs.Enqueue(job)
	d.metrics.jobEnqueued(string(job.Type), string(job.Priority))
	return id, nil
}

// QueueSummary reports tier depths and pending jobs in selection order.
func (d *Daemon) QueueSummary() api.QueueSummary {
	return api.QueueSummary{
		Depths:  d.jobs.Depths(),
		Pending: api.FromJobs(d.jobs.Pending()),
	}
}

// ClearQueue discards pending jobs and returns the discarded count.
func (d *Daemon) ClearQueue() int {
	return d.jobs.ClearPending()
}

// StartRecording begins a capture session for a classroom.
func (d *Daemon) StartRecording(ctx context.Context, classroomID, source string) (*capture.SessionInfo, error) {
	info, err := d.supervisor.Start(ctx, classroomID, source)
	if err == nil {
		d.metrics.setActiveRecordings(len(d.supervisor.Active()))
	}
	return info, err
}

// StopRecording ends a classroom's capture session.
func (d *Daemon) StopRecording(ctx context.Context, classroomID string) (*capture.StopResult, error) {
	result, err := d.supervisor.Stop(ctx, classroomID)
	if err == nil {
		d.metrics.setActiveRecordings(len(d.supervisor.Active()))
	}
	return result, err
}

// RecordingStatus reports whether a classroom is recording.
func (d *Daemon) RecordingStatus(classroomID string) capture.Status {
	return d.supervisor.StatusFor(classroomID)
}

// Split cuts a full-day recording into per-period segments and queues a job
// for each.
func (d *Daemon) Split(ctx context.Context, req api.SplitRequest) ([]api.Video, error) {
	date, err := req.ParseDate(time.Now())
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(req.RecordingPath); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "", "split", req.RecordingPath, err)
	}
	entities, err := d.splitter.Split(ctx, req.RecordingPath, req.ClassroomID, date)
	if err != nil {
		return nil, err
	}
	return api.FromEntities(entities), nil
}

// Entity loads one video entity.
func (d *Daemon) Entity(ctx context.Context, id string) (api.Video, error) {
	entity, ok, err := mediastore.GetEntity(ctx, d.store, id)
	if err != nil {
		return api.Video{}, services.Wrap(services.ErrStoreUnavailable, "", "load entity", id, err)
	}
	if !ok {
		return api.Video{}, services.Wrap(services.ErrNotFound, "", "load entity", id, nil)
	}
	return api.FromEntity(entity), nil
}

// LatestSnapshot returns the newest progress snapshot for one entity.
func (d *Daemon) LatestSnapshot(entityID string) (progress.Snapshot, bool) {
	return d.hub.Latest(entityID)
}

// ActiveSnapshots returns every snapshot below 100% overall progress.
func (d *Daemon) ActiveSnapshots() []progress.Snapshot {
	return d.hub.Active()
}

// SubscribeProgress registers a live progress channel for one entity.
func (d *Daemon) SubscribeProgress(entityID string) chan progress.Snapshot {
	return d.hub.Subscribe(entityID)
}

// UnsubscribeProgress removes a progress channel.
func (d *Daemon) UnsubscribeProgress(entityID string, ch chan progress.Snapshot) {
	d.hub.Unsubscribe(entityID, ch)
}

// handleAutoStop records a segment entity and queues its pipeline job when a
// recording ends because its capture device disappeared.
func (d *Daemon) handleAutoStop(ctx context.Context, classroomID string, result *capture.StopResult) {
	d.metrics.setActiveRecordings(len(d.supervisor.Active()))

	now := time.Now().UTC()
	entity := &mediastore.Entity{
		ID:          result.SessionID,
		Title:       fmt.Sprintf("Recording %s %s", classroomID, now.Format("2006-01-02")),
		ClassroomID: classroomID,
		Date:        now.Format("2006-01-02"),
		DurationSec: result.DurationSec,
		FilePath:    result.OutputPath,
		Status:      "queued",
	}
	if err := mediastore.SaveEntity(ctx, d.store, entity); err != nil {
		d.logger.Error("entity save after device removal failed",
			logging.String(logging.FieldClassroom, classroomID),
			logging.Error(err),
		)
		return
	}
	d.jobs.Enqueue(&queue.Job{
		Type:      queue.TypeFullPipeline,
		Priority:  queue.PriorityNormal,
		EntityID:  entity.ID,
		InputPath: result.OutputPath,
	})
}
