// Package deps reports availability of the external executables the pipeline
// shells out to, so status surfaces can warn before a job fails mid-run.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"class360/internal/config"
)

// Requirement names one external executable the daemon depends on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of one requirement.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// ForConfig builds the requirement list from the configured tool binaries.
func ForConfig(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{Name: "trim", Command: cfg.Tools.Trim, Description: "cuts lead-in and lead-out from recordings"},
		{Name: "subtitles", Command: cfg.Tools.Subtitles, Description: "generates subtitle tracks"},
		{Name: "dub", Command: cfg.Tools.Dub, Description: "produces dubbed audio tracks"},
		{Name: "ocr", Command: cfg.Tools.OCR, Description: "extracts board notes from frames"},
		{Name: "analyze", Command: cfg.Tools.Analyze, Description: "generates practice questions"},
		{Name: "ffmpeg", Command: cfg.Tools.FFmpeg, Description: "captures and splits recordings"},
		{Name: "ffprobe", Command: cfg.Tools.FFprobe, Description: "measures media durations"},
	}
}

// Check resolves each requirement's command on PATH.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		command := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     command,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case command == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(command); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", command)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the names of required commands that are unavailable.
func Missing(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
