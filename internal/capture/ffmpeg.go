package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"class360/internal/config"
	"class360/internal/logging"
)

// FFmpegFactory builds ffmpeg-backed capture sessions from configuration.
type FFmpegFactory struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewFFmpegFactory constructs the production session factory.
func NewFFmpegFactory(cfg *config.Config, logger *slog.Logger) *FFmpegFactory {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpegFactory{cfg: cfg, logger: logging.NewComponentLogger(logger, "capture")}
}

// NewSession builds a session capturing from source into outputPath.
func (f *FFmpegFactory) NewSession(source, outputPath string) Session {
	return &ffmpegSession{
		binary:      f.cfg.Tools.FFmpeg,
		inputFormat: f.cfg.Capture.InputFormat,
		grace:       time.Duration(f.cfg.Capture.StopGraceSeconds) * time.Second,
		source:      source,
		outputPath:  outputPath,
		logger:      f.logger,
		done:        make(chan struct{}),
	}
}

// ffmpegSession runs one long-lived ffmpeg capture process. Unlike pipeline
// tools the process is expected to outlive the call that started it, so the
// session owns the handle directly instead of going through the tool runner.
type ffmpegSession struct {
	binary      string
	inputFormat string
	grace       time.Duration
	source      string
	outputPath  string
	logger      *slog.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	alive bool
	done  chan struct{}
}

func (s *ffmpegSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alive {
		return errors.New("capture session already started")
	}

	if err := os.MkdirAll(filepath.Dir(s.outputPath), 0o755); err != nil {
		return fmt.Errorf("create recording directory: %w", err)
	}

	args := []string{"-y"}
	// Device sources need an explicit input format; network streams self-describe.
	if s.inputFormat != "" && !strings.Contains(s.source, "://") {
		args = append(args, "-f", s.inputFormat)
	}
	args = append(args, "-i", s.source, s.outputPath)

	cmd := exec.CommandContext(ctx, s.binary, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start capture process: %w", err)
	}

	s.cmd = cmd
	s.alive = true
	go s.wait()

	s.logger.Info("capture started",
		logging.String("source", s.source),
		logging.String("output", s.outputPath),
	)
	return nil
}

func (s *ffmpegSession) wait() {
	err := s.cmd.Wait()

	s.mu.Lock()
	s.alive = false
	s.mu.Unlock()
	close(s.done)

	if err != nil {
		s.logger.Warn("capture process exited with error",
			logging.String("output", s.outputPath),
			logging.Error(err),
		)
	}
}

func (s *ffmpegSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	cmd := s.cmd
	alive := s.alive
	s.mu.Unlock()

	if cmd == nil {
		return errors.New("capture session not started")
	}

	if alive && cmd.Process != nil {
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
			s.logger.Warn("terminate signal failed, killing capture process",
				logging.Error(err),
			)
			_ = cmd.Process.Kill()
		}
	}

	// Give the muxer its grace period to flush trailers before declaring the
	// output usable.
	grace := s.grace
	if grace <= 0 {
		grace = 2 * time.Second
	}
	select {
	case <-s.done:
	case <-time.After(grace):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *ffmpegSession) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *ffmpegSession) OutputPath() string { return s.outputPath }

func (s *ffmpegSession) Done() <-chan struct{} { return s.done }
