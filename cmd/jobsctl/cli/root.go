package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the jobsctl command tree on top of c.
func NewRootCommand(c *JobsCLI, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "jobsctl",
		Short:         "Trigger and inspect NOCDesk background jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newTriggerCommand(c), newStatsCommand(c), newScheduledCommand(c))
	return root
}

func newTriggerCommand(c *JobsCLI) *cobra.Command {
	var opts TriggerOptions
	cmd := &cobra.Command{
		Use:   "trigger <job>",
		Short: "Enqueue collections:refresh or alerts:purge now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := c.Trigger(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.Collections, "collections", nil, "collections to refresh (default all)")
	cmd.Flags().IntVar(&opts.OlderThanDays, "older-than-days", 0, "alert retention in days (default 30)")
	return cmd
}

func newStatsCommand(c *JobsCLI) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show default queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := c.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), stats.String())
			return nil
		},
	}
}

func newScheduledCommand(c *JobsCLI) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "scheduled",
		Short: "List scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := c.ListScheduled(cmd.Context(), size)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.Type, t.NextProcessAt.UTC().Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 10, "number of tasks to list")
	return cmd
}
