package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir must be set")
	}

	for name, value := range map[string]string{
		"tools.trim":      c.Tools.Trim,
		"tools.subtitles": c.Tools.Subtitles,
		"tools.dub":       c.Tools.Dub,
		"tools.ocr":       c.Tools.OCR,
		"tools.analyze":   c.Tools.Analyze,
		"tools.ffmpeg":    c.Tools.FFmpeg,
		"tools.ffprobe":   c.Tools.FFprobe,
	} {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, fmt.Sprintf("%s must name an executable", name))
		}
	}

	if c.Workflow.MaxConcurrentJobs < 1 {
		problems = append(problems, "workflow.max_concurrent_jobs must be at least 1")
	}
	if c.Workflow.QueuePollInterval < 1 {
		problems = append(problems, "workflow.queue_poll_interval must be at least 1 second")
	}
	if c.Workflow.TimetableTickPeriod < 1 {
		problems = append(problems, "workflow.timetable_tick_period must be at least 1 second")
	}
	if c.Capture.StopGraceSeconds < 0 {
		problems = append(problems, "capture.stop_grace_seconds must not be negative")
	}
	if c.Pipeline.OCRIntervalSec < 1 {
		problems = append(problems, "pipeline.ocr_interval_seconds must be at least 1")
	}
	if c.Pipeline.QuestionCount < 1 {
		problems = append(problems, "pipeline.question_count must be at least 1")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
