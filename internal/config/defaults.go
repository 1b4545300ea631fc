package config

// Default returns a configuration populated with baseline values.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       "~/.local/share/class360",
			LogDir:        "~/.local/share/class360/logs",
			OutputDir:     "~/.local/share/class360/output",
			RecordingsDir: "~/.local/share/class360/recordings",
			APIBind:       "127.0.0.1:8360",
		},
		Tools: Tools{
			Trim:      "trim_video",
			Subtitles: "generate_subtitles",
			Dub:       "dub_video",
			OCR:       "extract_board_notes",
			Analyze:   "generate_questions",
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
		},
		Pipeline: Pipeline{
			WhisperModel:      "small",
			SourceLanguage:    "auto",
			SubtitleLanguages: []string{"en"},
			DubLanguages:      []string{"en"},
			OCRIntervalSec:    10,
			QuestionCount:     10,
		},
		Capture: Capture{
			InputFormat:      "v4l2",
			StopGraceSeconds: 2,
			DeviceMonitor:    false,
		},
		Workflow: Workflow{
			MaxConcurrentJobs:   1,
			QueuePollInterval:   5,
			TimetableTickPeriod: 60,
		},
		Logging: Logging{
			Format: "text",
			Level:  "info",
		},
	}
}
