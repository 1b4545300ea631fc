package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"class360/internal/ipc"
)

const followWaitMillis = 2000

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: limit})
				if err != nil {
					return err
				}
				for _, line := range resp.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				if !follow {
					return nil
				}

				offset := resp.Offset
				for {
					select {
					case <-cmd.Context().Done():
						return nil
					default:
					}
					next, err := client.LogTail(ipc.LogTailRequest{Offset: offset, WaitMillis: followWaitMillis})
					if err != nil {
						return err
					}
					for _, line := range next.Lines {
						fmt.Fprintln(cmd.OutOrStdout(), line)
					}
					offset = next.Offset
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	return cmd
}
