package clip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"class360/internal/toolrunner"
)

// Extractor cuts sections out of a media container.
type Extractor interface {
	Extract(ctx context.Context, inputPath string, startOffsetSec, durationSec float64, outputPath string) error
}

// FFmpeg performs stream-copy extraction with the configured ffmpeg binary.
// No re-encode happens; the clip boundary snaps to the nearest keyframe.
type FFmpeg struct {
	binary string
	runner toolrunner.Runner
}

// New constructs an ffmpeg-backed extractor.
func New(binary string, runner toolrunner.Runner) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if runner == nil {
		runner = toolrunner.New()
	}
	return &FFmpeg{binary: binary, runner: runner}
}

// Extract copies [startOffsetSec, startOffsetSec+durationSec) of inputPath
// into outputPath without re-encoding.
func (f *FFmpeg) Extract(ctx context.Context, inputPath string, startOffsetSec, durationSec float64, outputPath string) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("clip: input path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("clip: output path required")
	}
	if durationSec <= 0 {
		return fmt.Errorf("clip: non-positive duration %f", durationSec)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("clip: create output directory: %w", err)
	}

	args := []string{
		"-y",
		"-ss", formatSeconds(startOffsetSec),
		"-i", inputPath,
		"-t", formatSeconds(durationSec),
		"-c", "copy",
		outputPath,
	}
	if _, err := f.runner.Run(ctx, f.binary, args); err != nil {
		return fmt.Errorf("clip extract: %w", err)
	}
	return nil
}

// CopyThrough duplicates the source file to the destination. Used when the
// trim step has no offsets and the pipeline needs the untouched input under
// the step's output path.
func CopyThrough(src, dest string) error {
	if src == dest {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("clip copy: open source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("clip copy: create output directory: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("clip copy: create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("clip copy: %w", err)
	}
	return out.Close()
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
