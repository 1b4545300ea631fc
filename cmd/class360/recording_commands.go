package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"class360/internal/ipc"
)

func newRecordingCommand(ctx *commandContext) *cobra.Command {
	recordingCmd := &cobra.Command{
		Use:   "recording",
		Short: "Control live classroom capture",
	}

	recordingCmd.AddCommand(newRecordingStartCommand(ctx))
	recordingCmd.AddCommand(newRecordingStopCommand(ctx))
	recordingCmd.AddCommand(newRecordingStatusCommand(ctx))

	return recordingCmd
}

func newRecordingStartCommand(ctx *commandContext) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "start <classroom-id>",
		Short: "Start recording a classroom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordingStart(args[0], source)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording %s from %s to %s\n",
					resp.Session.ClassroomID, resp.Session.Source, resp.Session.OutputPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Capture source (device path or stream URL)")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newRecordingStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <classroom-id>",
		Short: "Stop recording a classroom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordingStop(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %.0f seconds, saved to %s\n",
					resp.Result.DurationSec, resp.Result.OutputPath)
				return nil
			})
		},
	}
}

func newRecordingStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <classroom-id>",
		Short: "Show recording state for a classroom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordingStatus(args[0])
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Status.IsRecording {
					fmt.Fprintf(stdout, "%s is not recording\n", args[0])
					return nil
				}
				fmt.Fprintf(stdout, "%s recording for %.0f seconds (session %s)\n",
					args[0], resp.Status.ElapsedSeconds, resp.Status.SessionID)
				return nil
			})
		},
	}
}
