package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tasknote/internal/domain/entities"
)

// NewTaskCommand creates the task command with subcommands
func NewTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Create, update and delete tasks. Changes are sent to the server when logged in and queued otherwise.",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			fields, err := applyTaskFlags(cmd, entities.TaskFields{})
			if err != nil {
				return err
			}

			task, outcome, err := app.Tasks.CreateTask(cmd.Context(), fields)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", task.ID)
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}
	addTaskFieldFlags(addCmd)
	addCmd.MarkFlagRequired("title")

	updateCmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			current, err := app.Tasks.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fields, err := applyTaskFlags(cmd, current.TaskFields)
			if err != nil {
				return err
			}

			_, outcome, err := app.Tasks.UpdateTask(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", args[0])
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}
	addTaskFieldFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task with its subtasks and notes",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			n, outcome, err := app.Tasks.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s not found locally\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
			}
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		}),
	}

	showCmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its subtasks and notes",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			ctx := cmd.Context()
			task, err := app.Tasks.GetTask(ctx, args[0])
			if err != nil {
				return err
			}
			subtasks, err := app.Tasks.ListSubtasks(ctx, task.ID)
			if err != nil {
				return err
			}
			notes, err := app.Notes.ListNotes(ctx, task.ID)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"task":     task,
					"subtasks": subtasks,
					"notes":    notes,
				})
			}

			out := cmd.OutOrStdout()
			items := []entities.FlatItem{entities.FlatFromTask(task)}
			for _, sub := range subtasks {
				items = append(items, entities.FlatFromSubtask(sub))
			}
			printItems(out, items)
			if task.Description != nil {
				fmt.Fprintf(out, "\n%s\n", *task.Description)
			}
			if len(notes) > 0 {
				fmt.Fprintln(out, "\nNotes:")
				for _, note := range notes {
					printNote(out, note)
				}
			}
			return nil
		}),
	}
	showCmd.Flags().Bool("json", false, "Print as JSON")

	taskCmd.AddCommand(addCmd, updateCmd, deleteCmd, showCmd)
	return taskCmd
}

// NewSubtaskCommand creates the subtask command. Subtasks are kept on this device only.
func NewSubtaskCommand() *cobra.Command {
	subtaskCmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage subtasks (stored on this device only)",
	}

	addCmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Create a subtask under a task",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			fields, err := applyTaskFlags(cmd, entities.TaskFields{})
			if err != nil {
				return err
			}

			sub, err := app.Tasks.CreateSubtask(cmd.Context(), args[0], fields)
			if errors.Is(err, entities.ErrTaskNotFound) {
				return fmt.Errorf("task %s does not exist", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created subtask %s\n", sub.ID)
			return nil
		}),
	}
	addTaskFieldFlags(addCmd)
	addCmd.MarkFlagRequired("title")

	updateCmd := &cobra.Command{
		Use:   "update <subtask-id>",
		Short: "Update a subtask; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			current, err := app.Tasks.GetSubtask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fields, err := applyTaskFlags(cmd, current.TaskFields)
			if err != nil {
				return err
			}

			if _, err := app.Tasks.UpdateSubtask(cmd.Context(), args[0], fields); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated subtask %s\n", args[0])
			return nil
		}),
	}
	addTaskFieldFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <subtask-id>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			ok, err := app.Tasks.DeleteSubtask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("subtask %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted subtask %s\n", args[0])
			return nil
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List the subtasks of a task",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			subtasks, err := app.Tasks.ListSubtasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			items := make([]entities.FlatItem, 0, len(subtasks))
			for _, sub := range subtasks {
				items = append(items, entities.FlatFromSubtask(sub))
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		}),
	}

	subtaskCmd.AddCommand(addCmd, updateCmd, deleteCmd, listCmd)
	return subtaskCmd
}
