package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	OutputDir     string `toml:"output_dir"`
	RecordingsDir string `toml:"recordings_dir"`
	APIBind       string `toml:"api_bind"`
}

// LogFile returns the daemon log file location inside the log directory.
func (p Paths) LogFile() string {
	if strings.TrimSpace(p.LogDir) == "" {
		return ""
	}
	return filepath.Join(p.LogDir, "class360d.log")
}

// SocketFile returns the daemon control socket location inside the log
// directory.
func (p Paths) SocketFile() string {
	if strings.TrimSpace(p.LogDir) == "" {
		return ""
	}
	return filepath.Join(p.LogDir, "class360d.sock")
}

// Tools names the external executables each pipeline step invokes.
type Tools struct {
	Trim      string `toml:"trim"`
	Subtitles string `toml:"subtitles"`
	Dub       string `toml:"dub"`
	OCR       string `toml:"ocr"`
	Analyze   string `toml:"analyze"`
	FFmpeg    string `toml:"ffmpeg"`
	FFprobe   string `toml:"ffprobe"`
}

// Pipeline contains per-step defaults passed to the external tools.
type Pipeline struct {
	WhisperModel      string   `toml:"whisper_model"`
	SourceLanguage    string   `toml:"source_language"`
	SubtitleLanguages []string `toml:"subtitle_languages"`
	DubLanguages      []string `toml:"dub_languages"`
	OCRIntervalSec    int      `toml:"ocr_interval_seconds"`
	QuestionCount     int      `toml:"question_count"`
}

// Capture contains live-recording settings.
type Capture struct {
	InputFormat      string `toml:"input_format"`
	StopGraceSeconds int    `toml:"stop_grace_seconds"`
	DeviceMonitor    bool   `toml:"device_monitor"`
}

// Workflow contains scheduler timing and concurrency settings.
type Workflow struct {
	MaxConcurrentJobs   int `toml:"max_concurrent_jobs"`
	QueuePollInterval   int `toml:"queue_poll_interval"`
	TimetableTickPeriod int `toml:"timetable_tick_period"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the daemon and CLI.
//
// Configuration sections by subsystem:
//   - Paths: data/log/output directories and API bind address
//   - Tools: external executables invoked by pipeline steps
//   - Pipeline: defaults forwarded to the external tools
//   - Capture: live classroom recording settings
//   - Workflow: scheduler concurrency and tick intervals
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Tools    Tools    `toml:"tools"`
	Pipeline Pipeline `toml:"pipeline"`
	Capture  Capture  `toml:"capture"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/class360/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("class360.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.OutputDir, c.Paths.RecordingsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
