package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tasknote/internal/application/services"
	"github.com/taskmaster/tasknote/internal/domain/entities"
)

const dateLayout = "2006-01-02"

// NewListCommand creates the list command printing the flat task list
func NewListCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, each followed by its subtasks",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			query, err := queryFromFlags(cmd, app.Flatten.Location())
			if err != nil {
				return err
			}

			items, err := app.Flatten.Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		}),
	}

	flags := listCmd.Flags()
	flags.String("text", "", "Match title or description (case-insensitive)")
	flags.String("type", "", "Only task or subtask items")
	flags.String("parent", "", "Only subtasks of this task")
	flags.Int("min-priority", 0, "Minimum priority")
	flags.Int("max-priority", 0, "Maximum priority")
	flags.Int("min-complexity", 0, "Minimum complexity")
	flags.Int("max-complexity", 0, "Maximum complexity")
	flags.String("from", "", "Deadline on or after this day (YYYY-MM-DD)")
	flags.String("to", "", "Deadline on or before this day (YYYY-MM-DD)")
	flags.String("sort", "", "Sort by title, datetime, priority or complexity")
	flags.Bool("desc", false, "Sort descending")
	flags.Bool("json", false, "Print as JSON")

	return listCmd
}

func queryFromFlags(cmd *cobra.Command, loc *time.Location) (services.Query, error) {
	flags := cmd.Flags()
	var q services.Query

	q.Text, _ = flags.GetString("text")
	q.ParentID, _ = flags.GetString("parent")
	q.Descending, _ = flags.GetBool("desc")

	itemType, _ := flags.GetString("type")
	switch entities.ItemType(itemType) {
	case "", entities.ItemTypeTask, entities.ItemTypeSubtask:
		q.Type = entities.ItemType(itemType)
	default:
		return q, fmt.Errorf("invalid --type %q", itemType)
	}

	sortBy, _ := flags.GetString("sort")
	switch services.SortKey(strings.ToLower(sortBy)) {
	case services.SortNone, services.SortTitle, services.SortDatetime, services.SortPriority, services.SortComplexity:
		q.SortBy = services.SortKey(strings.ToLower(sortBy))
	default:
		return q, fmt.Errorf("invalid --sort %q", sortBy)
	}

	for _, f := range []struct {
		name string
		dst  **int
	}{
		{"min-priority", &q.MinPriority},
		{"max-priority", &q.MaxPriority},
		{"min-complexity", &q.MinComplexity},
		{"max-complexity", &q.MaxComplexity},
	} {
		if flags.Changed(f.name) {
			v, _ := flags.GetInt(f.name)
			*f.dst = entities.IntPtr(v)
		}
	}

	if v, _ := flags.GetString("from"); v != "" {
		from, err := time.ParseInLocation(dateLayout, v, loc)
		if err != nil {
			return q, fmt.Errorf("invalid --from: %w", err)
		}
		q.From = &from
	}
	if v, _ := flags.GetString("to"); v != "" {
		day, err := time.ParseInLocation(dateLayout, v, loc)
		if err != nil {
			return q, fmt.Errorf("invalid --to: %w", err)
		}
		to := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		q.To = &to
	}

	return q, nil
}

// NewDayCommand creates the day command listing tasks due on one calendar day
func NewDayCommand() *cobra.Command {
	dayCmd := &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "List tasks due on a day (today by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			loc := app.Flatten.Location()
			date := time.Now().In(loc)
			if len(args) == 1 {
				parsed, err := time.ParseInLocation(dateLayout, args[0], loc)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", args[0], err)
				}
				date = parsed
			}

			items, err := app.Flatten.TasksOnDate(cmd.Context(), date)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", date.Format("Monday, 2 January 2006"))
			printItems(cmd.OutOrStdout(), items)
			return nil
		}),
	}
	dayCmd.Flags().Bool("json", false, "Print as JSON")

	return dayCmd
}
