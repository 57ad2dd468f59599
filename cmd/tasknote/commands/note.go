package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tasknote/internal/domain/entities"
)

// NewNoteCommand creates the note command with subcommands
func NewNoteCommand() *cobra.Command {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Manage the notes attached to a task",
	}

	addCmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Attach a note to a task",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			fields := applyNoteFlags(cmd, entities.NoteFields{})

			note, outcome, err := app.Notes.CreateNote(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created note %s\n", note.ID)
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}
	addNoteFieldFlags(addCmd)
	addCmd.MarkFlagRequired("title")

	updateCmd := &cobra.Command{
		Use:   "update <task-id> <note-id>",
		Short: "Update a note; unset flags keep their current value",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			taskID, noteID := args[0], args[1]
			current, err := app.Notes.GetNote(cmd.Context(), noteID, taskID)
			if err != nil {
				return err
			}

			_, outcome, err := app.Notes.UpdateNote(cmd.Context(), noteID, taskID, applyNoteFlags(cmd, current.NoteFields))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated note %s\n", noteID)
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}
	addNoteFieldFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <task-id> <note-id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			n, outcome, err := app.Notes.DeleteNote(cmd.Context(), args[1], args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Note %s not found locally\n", args[1])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", args[1])
			}
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List the notes of a task",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			notes, err := app.Notes.ListNotes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), notes)
			}
			if len(notes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notes")
			}
			for _, note := range notes {
				printNote(cmd.OutOrStdout(), note)
			}
			return nil
		}),
	}
	listCmd.Flags().Bool("json", false, "Print as JSON")

	showCmd := &cobra.Command{
		Use:   "show <task-id> <note-id>",
		Short: "Show a single note",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			note, err := app.Notes.GetNote(cmd.Context(), args[1], args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), note)
			}
			printNote(cmd.OutOrStdout(), note)
			return nil
		}),
	}
	showCmd.Flags().Bool("json", false, "Print as JSON")

	noteCmd.AddCommand(addCmd, updateCmd, deleteCmd, listCmd, showCmd)
	return noteCmd
}
