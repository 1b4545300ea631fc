package timetable

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"class360/internal/config"
	"class360/internal/logging"
	"class360/internal/media/clip"
	"class360/internal/media/probe"
	"class360/internal/mediastore"
	"class360/internal/queue"
	"class360/internal/services"
)

// Splitter derives per-period segments from one full-day recording using
// timetable offsets. The first scheduled period's start is taken as the
// recording's time zero; recording start is assumed to align with it and is
// not otherwise verified.
type Splitter struct {
	cfg       *config.Config
	repo      *Repository
	store     mediastore.Store
	prober    probe.Prober
	extractor clip.Extractor
	jobs      *queue.Queue
	logger    *slog.Logger
}

// NewSplitter constructs the segment splitter.
func NewSplitter(
	cfg *config.Config,
	store mediastore.Store,
	prober probe.Prober,
	extractor clip.Extractor,
	jobs *queue.Queue,
	logger *slog.Logger,
) *Splitter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Splitter{
		cfg:       cfg,
		repo:      NewRepository(store),
		store:     store,
		prober:    prober,
		extractor: extractor,
		jobs:      jobs,
		logger:    logging.NewComponentLogger(logger, "splitter"),
	}
}

// Split cuts recordingPath into per-period clips for the classroom's
// timetable on date, creates an entity per clip, and enqueues a full
// pipeline job for each at normal priority. An empty timetable returns no
// segments.
func (s *Splitter) Split(ctx context.Context, recordingPath, classroomID string, date time.Time) ([]*mediastore.Entity, error) {
	if classroomID == "" {
		return nil, services.Wrap(services.ErrValidation, "", "split recording", "classroom id required", nil)
	}

	periods, err := s.repo.PeriodsFor(ctx, classroomID, date.Weekday())
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		s.logger.Info("no timetable for weekday, nothing to split",
			logging.String(logging.FieldClassroom, classroomID),
			logging.String("weekday", date.Weekday().String()),
		)
		return nil, nil
	}

	result, err := s.prober.Inspect(ctx, recordingPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "", "probe recording", recordingPath, err)
	}
	mediaDuration := result.DurationSeconds()
	if mediaDuration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "", "probe recording", "zero-length media", nil)
	}

	base, err := periods[0].StartMinutes()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "split recording", "first period start", err)
	}

	dateLabel := date.Format("2006-01-02")
	segmentDir := filepath.Join(s.cfg.Paths.OutputDir, "segments", classroomID, dateLabel)

	var entities []*mediastore.Entity
	for _, period := range periods {
		startMin, err := period.StartMinutes()
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "", "split recording", period.Start, err)
		}
		endMin, err := period.EndMinutes()
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "", "split recording", period.End, err)
		}

		startOffset := float64(startMin-base) * 60
		endOffset := float64(endMin-base) * 60

		// Anything scheduled past the end of the media never happened on tape.
		if startOffset >= mediaDuration {
			s.logger.Info("period beyond recording end, skipped",
				logging.String(logging.FieldClassroom, classroomID),
				logging.Int("period", period.Hour),
			)
			continue
		}
		duration := endOffset - startOffset
		if remaining := mediaDuration - startOffset; duration > remaining {
			duration = remaining
		}

		segmentPath := filepath.Join(segmentDir, fmt.Sprintf("period_%d.mp4", period.Hour))
		if err := s.extractor.Extract(ctx, recordingPath, startOffset, duration, segmentPath); err != nil {
			return entities, services.Wrap(services.ErrExternalTool, "", "extract segment",
				fmt.Sprintf("period %d", period.Hour), err)
		}

		entity := &mediastore.Entity{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("%s %s P%d", period.Subject, dateLabel, period.Hour),
			Subject:     period.Subject,
			TeacherID:   period.TeacherID,
			ClassroomID: classroomID,
			Date:        dateLabel,
			Period:      period.Hour,
			DurationSec: duration,
			FilePath:    segmentPath,
			Status:      "queued",
		}
		if err := mediastore.SaveEntity(ctx, s.store, entity); err != nil {
			return entities, services.Wrap(services.ErrStoreUnavailable, "", "save segment entity", entity.ID, err)
		}

		s.jobs.Enqueue(&queue.Job{
			Type:      queue.TypeFullPipeline,
			Priority:  queue.PriorityNormal,
			EntityID:  entity.ID,
			InputPath: segmentPath,
		})
		entities = append(entities, entity)
	}

	s.logger.Info("recording split",
		logging.String(logging.FieldClassroom, classroomID),
		logging.Int("segments", len(entities)),
	)
	return entities, nil
}
