package capture

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"class360/internal/config"
	"class360/internal/logging"
	"class360/internal/services"
)

// SessionInfo describes an active recording session.
type SessionInfo struct {
	SessionID   string    `json:"session_id"`
	ClassroomID string    `json:"classroom_id"`
	Source      string    `json:"source"`
	OutputPath  string    `json:"output_path"`
	StartTime   time.Time `json:"start_time"`
}

// StopResult reports the outcome of stopping a session.
type StopResult struct {
	SessionID   string        `json:"session_id"`
	OutputPath  string        `json:"output_path"`
	Duration    time.Duration `json:"-"`
	DurationSec float64       `json:"duration_seconds"`
}

// Status is the recording state of one classroom.
type Status struct {
	IsRecording    bool      `json:"is_recording"`
	SessionID      string    `json:"session_id,omitempty"`
	StartTime      time.Time `json:"start_time,omitzero"`
	ElapsedSeconds float64   `json:"elapsed_seconds,omitempty"`
}

type activeSession struct {
	info    SessionInfo
	session Session
}

// Supervisor enforces the one-live-session-per-classroom invariant. All
// registry mutation happens behind one mutex; sessions that die on their own
// are deregistered by a watcher goroutine.
type Supervisor struct {
	cfg     *config.Config
	factory SessionFactory
	logger  *slog.Logger
	clock   func() time.Time

	mu       sync.Mutex
	sessions map[string]*activeSession
}

// NewSupervisor constructs the recording supervisor.
func NewSupervisor(cfg *config.Config, factory SessionFactory, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{
		cfg:      cfg,
		factory:  factory,
		logger:   logging.NewComponentLogger(logger, "recording"),
		clock:    time.Now,
		sessions: make(map[string]*activeSession),
	}
}

// Start begins capturing for a classroom. A classroom with a live session
// yields a conflict; the request is rejected, never queued.
func (s *Supervisor) Start(ctx context.Context, classroomID, source string) (*SessionInfo, error) {
	if classroomID == "" {
		return nil, services.Wrap(services.ErrValidation, "", "start recording", "classroom id required", nil)
	}
	if source == "" {
		return nil, services.Wrap(services.ErrValidation, "", "start recording", "capture source required", nil)
	}

	now := s.clock().UTC()
	info := SessionInfo{
		SessionID:   uuid.NewString(),
		ClassroomID: classroomID,
		Source:      source,
		OutputPath:  s.outputPath(classroomID, now),
		StartTime:   now,
	}
	session := s.factory.NewSession(source, info.OutputPath)

	s.mu.Lock()
	if existing, ok := s.sessions[classroomID]; ok {
		s.mu.Unlock()
		return nil, services.Wrap(services.ErrConflict, "", "start recording",
			fmt.Sprintf("classroom %s already recording (session %s)", classroomID, existing.info.SessionID), nil)
	}
	s.sessions[classroomID] = &activeSession{info: info, session: session}
	s.mu.Unlock()

	if err := session.Start(ctx); err != nil {
		s.mu.Lock()
		delete(s.sessions, classroomID)
		s.mu.Unlock()
		return nil, services.Wrap(services.ErrExternalTool, "", "start recording", classroomID, err)
	}

	go s.watch(classroomID, info.SessionID, session)

	s.logger.Info("recording started",
		logging.String(logging.FieldClassroom, classroomID),
		logging.String("session_id", info.SessionID),
		logging.String("output", info.OutputPath),
	)
	return &info, nil
}

// Stop ends a classroom's session, waits for the output to finalize, and
// reports the recorded duration.
func (s *Supervisor) Stop(ctx context.Context, classroomID string) (*StopResult, error) {
	s.mu.Lock()
	active, ok := s.sessions[classroomID]
	if ok {
		delete(s.sessions, classroomID)
	}
	s.mu.Unlock()

	if !ok {
		return nil, services.Wrap(services.ErrConflict, "", "stop recording",
			fmt.Sprintf("classroom %s is not recording", classroomID), nil)
	}

	if err := active.session.Stop(ctx); err != nil {
		s.logger.Warn("capture stop did not finish cleanly",
			logging.String(logging.FieldClassroom, classroomID),
			logging.Error(err),
		)
	}

	duration := s.clock().UTC().Sub(active.info.StartTime)
	s.logger.Info("recording stopped",
		logging.String(logging.FieldClassroom, classroomID),
		logging.String("session_id", active.info.SessionID),
		logging.Duration("duration", duration),
	)
	return &StopResult{
		SessionID:   active.info.SessionID,
		OutputPath:  active.info.OutputPath,
		Duration:    duration,
		DurationSec: duration.Seconds(),
	}, nil
}

// StatusFor reports whether a classroom is recording.
func (s *Supervisor) StatusFor(classroomID string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.sessions[classroomID]
	if !ok {
		return Status{}
	}
	return Status{
		IsRecording:    true,
		SessionID:      active.info.SessionID,
		StartTime:      active.info.StartTime,
		ElapsedSeconds: s.clock().UTC().Sub(active.info.StartTime).Seconds(),
	}
}

// Active returns every live session.
func (s *Supervisor) Active() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, active := range s.sessions {
		out = append(out, active.info)
	}
	return out
}

// IsRecording reports whether a classroom has a live session.
func (s *Supervisor) IsRecording(classroomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[classroomID]
	return ok
}

// SourceFor returns the capture source of a classroom's live session.
func (s *Supervisor) SourceFor(classroomID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.sessions[classroomID]
	if !ok {
		return "", false
	}
	return active.info.Source, true
}

// ClassroomsUsing returns classrooms whose live session captures from source.
func (s *Supervisor) ClassroomsUsing(source string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for classroomID, active := range s.sessions {
		if active.info.Source == source {
			out = append(out, classroomID)
		}
	}
	return out
}

// watch deregisters a session whose process exits on its own. A session
// replaced or removed by Stop is left alone.
func (s *Supervisor) watch(classroomID, sessionID string, session Session) {
	<-session.Done()

	s.mu.Lock()
	active, ok := s.sessions[classroomID]
	if ok && active.info.SessionID == sessionID {
		delete(s.sessions, classroomID)
		s.mu.Unlock()
		s.logger.Warn("capture process exited unexpectedly, session deregistered",
			logging.String(logging.FieldClassroom, classroomID),
			logging.String("session_id", sessionID),
		)
		return
	}
	s.mu.Unlock()
}

func (s *Supervisor) outputPath(classroomID string, now time.Time) string {
	name := fmt.Sprintf("%s_%s.mp4", classroomID, now.Format("20060102_150405"))
	return filepath.Join(s.cfg.Paths.RecordingsDir, name)
}
