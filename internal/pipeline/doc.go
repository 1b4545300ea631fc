// Package pipeline executes processing jobs as a fixed five-step state
// machine (trim, subtitles, dub, ocr, analyze) with a per-step failure table:
// early steps abort the run, later steps fail in isolation.
package pipeline
