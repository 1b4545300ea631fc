package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"class360/internal/api"
	"class360/internal/ipc"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var classroomID string
	var date string

	cmd := &cobra.Command{
		Use:   "split <recording-path>",
		Short: "Split a full-day recording into per-period segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Split(ipc.SplitRequest{Split: api.SplitRequest{
					RecordingPath: args[0],
					ClassroomID:   classroomID,
					Date:          date,
				}})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Segments) == 0 {
					fmt.Fprintln(stdout, "No timetable periods matched; nothing to split")
					return nil
				}
				rows := make([][]string, 0, len(resp.Segments))
				for _, segment := range resp.Segments {
					rows = append(rows, []string{
						segment.ID,
						segment.Title,
						fmt.Sprintf("%.0fs", segment.DurationSec),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Title", "Duration"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				fmt.Fprintf(stdout, "Queued %d segment jobs\n", len(resp.Segments))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&classroomID, "classroom", "", "Classroom whose timetable drives the split")
	cmd.Flags().StringVar(&date, "date", "", "Recording date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("classroom")
	return cmd
}
