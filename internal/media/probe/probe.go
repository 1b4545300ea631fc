package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"class360/internal/toolrunner"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Prober measures media files. The splitter depends on this rather than on a
// concrete ffprobe binary.
type Prober interface {
	Inspect(ctx context.Context, path string) (Result, error)
}

// FFprobe inspects media containers with the configured ffprobe binary.
type FFprobe struct {
	binary string
	runner toolrunner.Runner
}

// New constructs an ffprobe-backed prober.
func New(binary string, runner toolrunner.Runner) *FFprobe {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if runner == nil {
		runner = toolrunner.New()
	}
	return &FFprobe{binary: binary, runner: runner}
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (p *FFprobe) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("probe: empty path")
	}

	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	output, err := p.runner.Run(ctx, p.binary, args)
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		return Result{}, fmt.Errorf("probe parse: %w", err)
	}
	return result, nil
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	cleaned := strings.TrimSpace(r.Format.Duration)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}
