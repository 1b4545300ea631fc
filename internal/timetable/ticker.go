package timetable

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"class360/internal/capture"
	"class360/internal/config"
	"class360/internal/logging"
	"class360/internal/mediastore"
	"class360/internal/queue"
)

// RecordingControl is the supervisor surface the ticker drives.
type RecordingControl interface {
	IsRecording(classroomID string) bool
	Start(ctx context.Context, classroomID, source string) (*capture.SessionInfo, error)
	Stop(ctx context.Context, classroomID string) (*capture.StopResult, error)
}

// Ticker compares wall-clock time against each capture classroom's weekly
// timetable once per tick. Period boundaries match on the exact minute: a
// tick missed to downtime or clock skew permanently skips that boundary for
// the day, with no catch-up pass.
type Ticker struct {
	cfg     *config.Config
	repo    *Repository
	store   mediastore.Store
	control RecordingControl
	jobs    *queue.Queue
	logger  *slog.Logger
	clock   func() time.Time
	period  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// TickerOption configures the ticker.
type TickerOption func(*Ticker)

// WithClock injects a time source (primarily for tests).
func WithClock(clock func() time.Time) TickerOption {
	return func(t *Ticker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewTicker constructs the timetable scheduler.
func NewTicker(
	cfg *config.Config,
	store mediastore.Store,
	control RecordingControl,
	jobs *queue.Queue,
	logger *slog.Logger,
	opts ...TickerOption,
) *Ticker {
	if logger == nil {
		logger = logging.NewNop()
	}
	period := time.Duration(cfg.Workflow.TimetableTickPeriod) * time.Second
	if period <= 0 {
		period = time.Minute
	}
	t := &Ticker{
		cfg:     cfg,
		repo:    NewRepository(store),
		store:   store,
		control: control,
		jobs:    jobs,
		logger:  logging.NewComponentLogger(logger, "timetable"),
		clock:   time.Now,
		period:  period,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins the recurring tick.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return errors.New("timetable ticker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.running = true

	t.wg.Add(1)
	go t.run(runCtx)
	t.logger.Info("timetable ticker started", logging.Duration("period", t.period))
	return nil
}

// Stop halts the tick loop and waits for a tick in flight.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel := t.cancel
	t.running = false
	t.cancel = nil
	t.mu.Unlock()

	cancel()
	t.wg.Wait()
	t.logger.Info("timetable ticker stopped")
}

func (t *Ticker) run(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass against the current clock.
func (t *Ticker) Tick(ctx context.Context) {
	now := t.clock()
	currentMinute := now.Format("15:04")
	weekday := now.Weekday()

	rooms, err := t.repo.CaptureClassrooms(ctx)
	if err != nil {
		t.logger.Warn("classroom lookup failed, skipping tick", logging.Error(err))
		return
	}

	for _, room := range rooms {
		periods, err := t.repo.PeriodsFor(ctx, room.ID, weekday)
		if err != nil {
			t.logger.Warn("timetable lookup failed",
				logging.String(logging.FieldClassroom, room.ID),
				logging.Error(err),
			)
			continue
		}

		for _, period := range periods {
			if period.Start == currentMinute && !t.control.IsRecording(room.ID) {
				t.startPeriod(ctx, room, period)
			}
			if period.End == currentMinute && t.control.IsRecording(room.ID) {
				t.stopPeriod(ctx, room, period, now)
			}
		}
	}
}

func (t *Ticker) startPeriod(ctx context.Context, room Classroom, period Period) {
	if _, err := t.control.Start(ctx, room.ID, room.CaptureSource); err != nil {
		t.logger.Warn("scheduled recording start failed",
			logging.String(logging.FieldClassroom, room.ID),
			logging.Int("period", period.Hour),
			logging.Error(err),
		)
		return
	}
	t.logger.Info("scheduled recording started",
		logging.String(logging.FieldClassroom, room.ID),
		logging.Int("period", period.Hour),
		logging.String("subject", period.Subject),
	)
}

func (t *Ticker) stopPeriod(ctx context.Context, room Classroom, period Period, now time.Time) {
	result, err := t.control.Stop(ctx, room.ID)
	if err != nil {
		t.logger.Warn("scheduled recording stop failed",
			logging.String(logging.FieldClassroom, room.ID),
			logging.Int("period", period.Hour),
			logging.Error(err),
		)
		return
	}

	dateLabel := now.Format("2006-01-02")
	entity := &mediastore.Entity{
		ID:          uuid.NewString(),
		Title:       period.Subject + " " + dateLabel,
		Subject:     period.Subject,
		TeacherID:   period.TeacherID,
		ClassroomID: room.ID,
		Date:        dateLabel,
		Period:      period.Hour,
		DurationSec: result.DurationSec,
		FilePath:    result.OutputPath,
		Status:      "queued",
	}
	if err := mediastore.SaveEntity(ctx, t.store, entity); err != nil {
		t.logger.Error("segment entity save failed, job not enqueued",
			logging.String(logging.FieldClassroom, room.ID),
			logging.Error(err),
		)
		return
	}

	jobID := t.jobs.Enqueue(&queue.Job{
		Type:      queue.TypeFullPipeline,
		Priority:  queue.PriorityNormal,
		EntityID:  entity.ID,
		InputPath: result.OutputPath,
	})
	t.logger.Info("scheduled recording stopped, job enqueued",
		logging.String(logging.FieldClassroom, room.ID),
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldEntityID, entity.ID),
		logging.Int("period", period.Hour),
	)
}
