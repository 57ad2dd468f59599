package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every task and subtask to the export file",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			_, err := app.Backup.ExportAll(cmd.Context())
			return err
		}),
	}
}

// NewImportCommand creates the import command
func NewImportCommand() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace all tasks and subtasks with the content of an export file",
		Long: `Replace all tasks and subtasks with the content of an export file.
Notes belong to tasks and are removed by the import. The file defaults to the export path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			path := app.Backup.ExportPath()
			if len(args) == 1 {
				path = args[0]
			}

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("import deletes all local tasks, subtasks and notes; rerun with --yes to confirm")
			}

			report, err := app.Backup.ImportFile(cmd.Context(), path)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks and %d subtasks from %s\n",
				report.TasksImported, report.SubtasksImported, path)
			if report.Skipped > 0 || report.Failed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d subtasks without a parent, %d rows failed\n",
					report.Skipped, report.Failed)
			}
			return nil
		}),
	}
	importCmd.Flags().Bool("yes", false, "Confirm replacing the local data")

	return importCmd
}
