package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"class360/internal/media/clip"
	"class360/internal/services"
)

// stepTrim cuts the configured offsets off the recording. Without offsets the
// step copies the input through so later steps always consume a file under
// the entity's output directory.
func (e *Executor) stepTrim(ctx context.Context, req *stepRequest) error {
	outPath := filepath.Join(req.outputDir, "trimmed"+extensionOf(req.workingPath))

	if !req.params.HasTrimOffsets() {
		req.report(50, "No trim offsets, copying through")
		if err := clip.CopyThrough(req.workingPath, outPath); err != nil {
			return services.Wrap(services.ErrExternalTool, StepTrim, "copy through", "", err)
		}
	} else {
		req.report(10, "Trimming recording")
		args := []string{
			req.workingPath,
			"--start_trim", strconv.Itoa(req.params.StartTrimSec),
			"--end_trim", strconv.Itoa(req.params.EndTrimSec),
			"--output", outPath,
		}
		if _, err := e.runner.Run(ctx, e.cfg.Tools.Trim, args); err != nil {
			return services.Wrap(services.ErrExternalTool, StepTrim, "trim video", "", err)
		}
	}

	req.workingPath = outPath
	req.entity.TrimmedURL = outPath
	e.persistFields(ctx, req.entity.ID, map[string]any{"trimmed_url": outPath})
	return nil
}

// stepSubtitles transcribes the working file and writes one subtitle pair
// (srt + vtt) per requested language. The source-language transcript feeds the
// analyze step.
func (e *Executor) stepSubtitles(ctx context.Context, req *stepRequest) error {
	languages := req.params.SubtitleLanguages
	if len(languages) == 0 {
		languages = e.cfg.Pipeline.SubtitleLanguages
	}
	if len(languages) == 0 {
		return services.Wrap(services.ErrValidation, StepSubtitles, "resolve languages", "no subtitle languages configured", nil)
	}

	subtitleDir := filepath.Join(req.outputDir, "subtitles")
	urls := make(map[string]string, len(languages))

	for i, lang := range languages {
		req.report(float64(i)/float64(len(languages))*100,
			fmt.Sprintf("Transcribing (%s)", lang))

		outPath := filepath.Join(subtitleDir, lang+".srt")
		if err := os.MkdirAll(subtitleDir, 0o755); err != nil {
			return services.Wrap(services.ErrExternalTool, StepSubtitles, "create subtitle directory", "", err)
		}

		args := []string{
			req.workingPath,
			"--model", e.cfg.Pipeline.WhisperModel,
		}
		if lang != "" && lang != "auto" {
			args = append(args, "--language", lang)
		}
		args = append(args, "--output", outPath, "--format", "both")

		if _, err := e.runner.Run(ctx, e.cfg.Tools.Subtitles, args); err != nil {
			return services.Wrap(services.ErrExternalTool, StepSubtitles, "generate subtitles", lang, err)
		}
		urls[lang] = outPath
	}

	req.transcriptPath = urls[languages[0]]
	req.entity.SubtitleURLs = urls
	e.persistFields(ctx, req.entity.ID, map[string]any{"subtitle_urls": urls})
	return nil
}

// stepDub synthesizes translated audio tracks and muxes them into a playable
// container alongside the original audio.
func (e *Executor) stepDub(ctx context.Context, req *stepRequest) error {
	languages := req.params.DubLanguages
	if len(languages) == 0 {
		languages = e.cfg.Pipeline.DubLanguages
	}
	if len(languages) == 0 {
		return services.Wrap(services.ErrValidation, StepDub, "resolve languages", "no dub languages configured", nil)
	}

	outPath := filepath.Join(req.outputDir, "dubbed.mp4")
	req.report(10, "Synthesizing dubbed audio")

	args := []string{
		req.workingPath,
		"--model", e.cfg.Pipeline.WhisperModel,
		"--src_lang", e.cfg.Pipeline.SourceLanguage,
		"--target_langs", strings.Join(languages, ","),
		"--embed_tracks",
		"--output", outPath,
	}
	if _, err := e.runner.Run(ctx, e.cfg.Tools.Dub, args); err != nil {
		return services.Wrap(services.ErrExternalTool, StepDub, "dub video", "", err)
	}

	req.entity.DubURL = outPath
	e.persistFields(ctx, req.entity.ID, map[string]any{"dub_url": outPath})
	return nil
}

// stepOCR samples frames at the configured interval and extracts board text
// into a notes document. The tool may also emit a rendered PDF next to it.
func (e *Executor) stepOCR(ctx context.Context, req *stepRequest) error {
	interval := req.params.OCRIntervalSec
	if interval <= 0 {
		interval = e.cfg.Pipeline.OCRIntervalSec
	}

	outPath := filepath.Join(req.outputDir, "notes.md")
	req.report(10, "Extracting board notes")

	args := []string{
		req.workingPath,
		"--output", outPath,
		"--interval", strconv.Itoa(interval),
	}
	if _, err := e.runner.Run(ctx, e.cfg.Tools.OCR, args); err != nil {
		return services.Wrap(services.ErrExternalTool, StepOCR, "extract notes", "", err)
	}

	fields := map[string]any{"notes_url": outPath}
	req.entity.NotesURL = outPath
	pdfPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".pdf"
	if _, err := os.Stat(pdfPath); err == nil {
		fields["notes_pdf_url"] = pdfPath
		req.entity.NotesPDFURL = pdfPath
	}
	e.persistFields(ctx, req.entity.ID, fields)
	return nil
}

// stepAnalyze turns the source-language transcript into topic keywords and
// quiz questions.
func (e *Executor) stepAnalyze(ctx context.Context, req *stepRequest) error {
	transcript := req.transcriptPath
	if transcript == "" {
		transcript = firstSubtitlePath(req.entity.SubtitleURLs, e.cfg.Pipeline.SubtitleLanguages)
	}
	if transcript == "" {
		return services.Wrap(services.ErrValidation, StepAnalyze, "resolve transcript", "no transcript available", nil)
	}

	count := req.params.QuestionCount
	if count <= 0 {
		count = e.cfg.Pipeline.QuestionCount
	}

	outPath := filepath.Join(req.outputDir, "questions.json")
	req.report(10, "Generating questions")

	args := []string{
		transcript,
		"--output", outPath,
		"--num_questions", strconv.Itoa(count),
	}
	if _, err := e.runner.Run(ctx, e.cfg.Tools.Analyze, args); err != nil {
		return services.Wrap(services.ErrExternalTool, StepAnalyze, "generate questions", "", err)
	}

	req.entity.QuestionsURL = outPath
	e.persistFields(ctx, req.entity.ID, map[string]any{"questions_url": outPath})
	return nil
}

func extensionOf(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return ".mp4"
}

// firstSubtitlePath prefers the configured language order, then falls back to
// any recorded subtitle.
func firstSubtitlePath(urls map[string]string, preferred []string) string {
	for _, lang := range preferred {
		if path, ok := urls[lang]; ok {
			return path
		}
	}
	for _, path := range urls {
		return path
	}
	return ""
}
