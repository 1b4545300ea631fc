package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"class360/internal/api"
	"class360/internal/ipc"
	"class360/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending jobs in selection order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Summary)
				}
				if len(resp.Summary.Pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Type", "Priority", "Entity", "Created"},
					buildQueueRows(resp.Summary.Pending),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				fmt.Fprintf(cmd.OutOrStdout(), "%d pending, %d active\n",
					resp.Summary.Depths.Total()-resp.Summary.Depths.Active, resp.Summary.Depths.Active)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit queue contents as JSON")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard all pending jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d pending jobs\n", resp.Removed)
				return nil
			})
		},
	}
}

func buildQueueRows(jobs []api.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{job.ID, job.Type, job.Priority, job.EntityID, job.CreatedAt})
	}
	return rows
}

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var (
		jobType   string
		priority  string
		inputPath string
		startTrim int
		endTrim   int
		subtitles []string
		dubs      []string
		interval  int
		questions int
	)

	cmd := &cobra.Command{
		Use:     "enqueue <entity-id>",
		Aliases: []string{"process"},
		Short:   "Queue a processing job for a video",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				req := ipc.EnqueueRequest{Job: api.EnqueueRequest{
					Type:      jobType,
					Priority:  priority,
					EntityID:  args[0],
					InputPath: inputPath,
					Params: queue.Params{
						StartTrimSec:      startTrim,
						EndTrimSec:        endTrim,
						SubtitleLanguages: subtitles,
						DubLanguages:      dubs,
						OCRIntervalSec:    interval,
						QuestionCount:     questions,
					},
				}}
				resp, err := client.Enqueue(req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s\n", resp.JobID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&jobType, "type", "t", "full_pipeline", "Job type (trim, subtitles, dub, ocr, analyze, full_pipeline)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Job priority (high, normal, low)")
	cmd.Flags().StringVar(&inputPath, "input", "", "Input file override")
	cmd.Flags().IntVar(&startTrim, "start-trim", 0, "Seconds to cut from the start")
	cmd.Flags().IntVar(&endTrim, "end-trim", 0, "Seconds to cut from the end")
	cmd.Flags().StringSliceVar(&subtitles, "subtitle-langs", nil, "Subtitle languages")
	cmd.Flags().StringSliceVar(&dubs, "dub-langs", nil, "Dub languages")
	cmd.Flags().IntVar(&interval, "ocr-interval", 0, "Board note capture interval in seconds")
	cmd.Flags().IntVar(&questions, "questions", 0, "Number of questions to generate")
	return cmd
}
