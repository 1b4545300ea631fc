package config

import "strings"

func (c *Config) normalize() error {
	var err error
	for _, field := range []*string{
		&c.Paths.DataDir,
		&c.Paths.LogDir,
		&c.Paths.OutputDir,
		&c.Paths.RecordingsDir,
	} {
		*field = strings.TrimSpace(*field)
		if *field == "" {
			continue
		}
		if *field, err = expandPath(*field); err != nil {
			return err
		}
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	for _, field := range []*string{
		&c.Tools.Trim,
		&c.Tools.Subtitles,
		&c.Tools.Dub,
		&c.Tools.OCR,
		&c.Tools.Analyze,
		&c.Tools.FFmpeg,
		&c.Tools.FFprobe,
	} {
		*field = strings.TrimSpace(*field)
	}

	c.Pipeline.WhisperModel = strings.TrimSpace(c.Pipeline.WhisperModel)
	c.Pipeline.SourceLanguage = strings.TrimSpace(c.Pipeline.SourceLanguage)
	c.Pipeline.SubtitleLanguages = trimAll(c.Pipeline.SubtitleLanguages)
	c.Pipeline.DubLanguages = trimAll(c.Pipeline.DubLanguages)
	c.Capture.InputFormat = strings.TrimSpace(c.Capture.InputFormat)

	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
