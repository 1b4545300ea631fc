package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"class360/internal/api"
	"class360/internal/ipc"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <entity-id>",
		Short: "Show a video and its generated artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.VideoGet(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Video)
				}
				renderVideo(cmd, resp.Video)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the video as JSON")
	return cmd
}

func renderVideo(cmd *cobra.Command, video api.Video) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	title := video.Title
	if title == "" {
		title = video.ID
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Status", statusInfo, video.Status, colorize))
	if video.Subject != "" {
		fmt.Fprintln(stdout, renderStatusLine("Subject", statusInfo, video.Subject, colorize))
	}
	if video.ClassroomID != "" {
		fmt.Fprintln(stdout, renderStatusLine("Classroom", statusInfo, video.ClassroomID, colorize))
	}
	if video.Date != "" {
		period := ""
		if video.Period > 0 {
			period = fmt.Sprintf(" (period %d)", video.Period)
		}
		fmt.Fprintln(stdout, renderStatusLine("Date", statusInfo, video.Date+period, colorize))
	}
	if video.DurationSec > 0 {
		fmt.Fprintln(stdout, renderStatusLine("Duration", statusInfo, fmt.Sprintf("%.0fs", video.DurationSec), colorize))
	}

	rows := make([][]string, 0, 8)
	appendArtifact := func(name, url string) {
		if url != "" {
			rows = append(rows, []string{name, url})
		}
	}
	appendArtifact("Trimmed video", video.TrimmedURL)
	for _, track := range video.Subtitles {
		appendArtifact("Subtitles ("+track.DisplayName+")", track.URL)
	}
	appendArtifact("Dubbed video", video.DubURL)
	appendArtifact("Board notes", video.NotesURL)
	appendArtifact("Board notes PDF", video.NotesPDFURL)
	appendArtifact("Questions", video.QuestionsURL)
	appendArtifact("Manifest", video.ManifestURL)

	if len(rows) == 0 {
		fmt.Fprintln(stdout, renderStatusLine("Artifacts", statusWarn, "none generated yet", colorize))
		return
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, renderTable(
		[]string{"Artifact", "Location"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}
