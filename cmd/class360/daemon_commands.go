package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"class360/internal/deps"
	"class360/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Status)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				status := resp.Status

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				runningKind := statusWarn
				if status.Running {
					runningKind = statusOK
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, yesNo(status.Running), colorize))
				fmt.Fprintln(stdout, renderStatusLine("PID", statusInfo, strconv.Itoa(status.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Store", statusInfo, status.StorePath, colorize))
				if status.LastError != "" {
					fmt.Fprintln(stdout, renderStatusLine("Last error", statusWarn, status.LastError, colorize))
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(stdout, line)
				}
				rows := [][]string{
					{"high", strconv.Itoa(status.Depths.High)},
					{"normal", strconv.Itoa(status.Depths.Normal)},
					{"low", strconv.Itoa(status.Depths.Low)},
					{"active", strconv.Itoa(status.Depths.Active)},
				}
				fmt.Fprintln(stdout, renderTable([]string{"Tier", "Jobs"}, rows, []columnAlignment{alignLeft, alignRight}))

				if len(status.Tools) > 0 {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Tools", colorize) {
						fmt.Fprintln(stdout, line)
					}
					for _, tool := range status.Tools {
						kind := statusOK
						detail := tool.Command
						if !tool.Available {
							kind = statusWarn
							detail = tool.Detail
						}
						fmt.Fprintln(stdout, renderStatusLine(tool.Name, kind, detail, colorize))
					}
					if missing := deps.Missing(status.Tools); len(missing) > 0 {
						fmt.Fprintln(stdout, renderStatusLine("Missing", statusWarn, strings.Join(missing, ", "), colorize))
					}
				}

				if len(status.Recordings) > 0 {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Recordings", colorize) {
						fmt.Fprintln(stdout, line)
					}
					recRows := make([][]string, 0, len(status.Recordings))
					for _, rec := range status.Recordings {
						recRows = append(recRows, []string{
							rec.ClassroomID,
							rec.Source,
							rec.StartTime.Format("15:04:05"),
							rec.OutputPath,
						})
					}
					fmt.Fprintln(stdout, renderTable(
						[]string{"Classroom", "Source", "Started", "Output"},
						recRows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
					))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon's background processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Stop request sent")
				}
				return nil
			})
		},
	}
}
