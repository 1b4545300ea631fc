package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"class360/internal/ipc"
	"class360/internal/progress"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "progress [entity-id]",
		Short: "Show pipeline progress for one video or all in-flight videos",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()

				if len(args) == 0 {
					resp, err := client.ProgressList()
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd, resp.Snapshots)
					}
					if len(resp.Snapshots) == 0 {
						fmt.Fprintln(stdout, "Nothing is processing")
						return nil
					}
					rows := make([][]string, 0, len(resp.Snapshots))
					for _, snapshot := range resp.Snapshots {
						rows = append(rows, []string{
							snapshot.EntityID,
							snapshot.DisplayName,
							snapshot.CurrentStep,
							fmt.Sprintf("%.0f%%", snapshot.OverallProgress),
						})
					}
					fmt.Fprintln(stdout, renderTable(
						[]string{"Entity", "Title", "Step", "Overall"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
					))
					return nil
				}

				resp, err := client.ProgressGet(args[0])
				if err != nil {
					return err
				}
				if !resp.Found {
					fmt.Fprintf(stdout, "No progress recorded for %s\n", args[0])
					return nil
				}
				if asJSON {
					return writeJSON(cmd, resp.Snapshot)
				}
				renderSnapshot(cmd, resp.Snapshot)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit progress as JSON")
	return cmd
}

func renderSnapshot(cmd *cobra.Command, snapshot progress.Snapshot) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "%s: %s (%.0f%% overall)\n",
		snapshot.DisplayName, snapshot.CurrentStep, snapshot.OverallProgress)

	rows := make([][]string, 0, len(snapshot.Steps))
	for _, step := range snapshot.Steps {
		rows = append(rows, []string{
			step.Name,
			string(step.Status),
			fmt.Sprintf("%.0f%%", step.Progress),
			step.Message,
		})
	}
	fmt.Fprintln(stdout, renderTable(
		[]string{"Step", "Status", "Progress", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
}
