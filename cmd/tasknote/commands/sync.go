package commands

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/taskmaster/tasknote/internal/application/services"
)

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay queued changes against the server",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			out := cmd.OutOrStdout()

			result, syncErr := app.Sync.Sync(cmd.Context(), app.Session.Token())

			metricsFile, _ := cmd.Flags().GetString("metrics-file")
			if metricsFile == "" {
				metricsFile = app.Config.Sync.MetricsFile
			}
			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, app.Registry); err != nil {
					app.Logger.Warnw("Failed to write sync metrics", "path", metricsFile, "error", err)
				}
			}

			var failure *services.ActionFailure
			switch {
			case errors.As(syncErr, &failure):
				fmt.Fprintf(out, "Sync stopped at change #%d (%s): %v\n", failure.Index+1, failure.Action.Operation, failure.Err)
				fmt.Fprintf(out, "%d changes kept for the next attempt\n", result.Remaining)
				return syncErr
			case syncErr != nil:
				return syncErr
			case result.Skipped:
				fmt.Fprintln(out, "Not logged in; nothing was sent")
				return nil
			case result.InProgress:
				fmt.Fprintln(out, "Another sync is running; nothing was sent")
				return nil
			}

			fmt.Fprintf(out, "Sent %d changes (%d already on the server, %d dropped)\n",
				result.Applied, result.AlreadyApplied, result.Ignored)
			if len(result.Rejected) > 0 {
				fmt.Fprintf(out, "%d changes were rejected by the server and moved to %s:\n", len(result.Rejected), app.Config.Store.RejectedPath)
				for _, r := range result.Rejected {
					fmt.Fprintf(out, "  #%d %s: %v\n", r.Index+1, r.Action.Operation, r.Err)
				}
			}
			if result.Remaining > 0 {
				fmt.Fprintf(out, "%d changes queued meanwhile\n", result.Remaining)
			}
			return nil
		}),
	}
	syncCmd.Flags().String("metrics-file", "", "Write sync metrics in Prometheus text format to this file")

	return syncCmd
}
