package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tasknote/internal/application/services"
	"github.com/taskmaster/tasknote/internal/domain/entities"
)

func addTaskFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Title")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("datetime", "", "Deadline, e.g. 2024-03-10T09:00:00")
	cmd.Flags().String("priority", "", "Priority (blank means 0)")
	cmd.Flags().String("complexity", "", "Complexity (blank means 0)")
}

// applyTaskFlags overwrites base with every flag the user set
func applyTaskFlags(cmd *cobra.Command, base entities.TaskFields) (entities.TaskFields, error) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		base.Title, _ = flags.GetString("title")
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		base.Description = entities.StringPtr(v)
	}
	if flags.Changed("datetime") {
		v, _ := flags.GetString("datetime")
		base.Datetime = entities.StringPtr(v)
	}
	for _, f := range []struct {
		name string
		dst  **int
	}{
		{"priority", &base.Priority},
		{"complexity", &base.Complexity},
	} {
		if !flags.Changed(f.name) {
			continue
		}
		v, _ := flags.GetString(f.name)
		n, err := parseLenientInt(v)
		if err != nil {
			return base, fmt.Errorf("invalid --%s: %w", f.name, err)
		}
		*f.dst = &n
	}
	return base, nil
}

// parseLenientInt reads a numeric form field; blank input is 0
func parseLenientInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func addNoteFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Title")
	cmd.Flags().String("subtitle", "", "Subtitle")
	cmd.Flags().String("content", "", "Content")
	cmd.Flags().String("address", "", "Map address")
	cmd.Flags().Float64("lat", 0, "Map latitude")
	cmd.Flags().Float64("lng", 0, "Map longitude")
	cmd.Flags().Float64("lat-delta", 0.01, "Visible latitude span")
	cmd.Flags().Float64("lng-delta", 0.01, "Visible longitude span")
}

func applyNoteFlags(cmd *cobra.Command, base entities.NoteFields) entities.NoteFields {
	flags := cmd.Flags()
	if flags.Changed("title") {
		base.Title, _ = flags.GetString("title")
	}
	if flags.Changed("subtitle") {
		v, _ := flags.GetString("subtitle")
		base.Subtitle = entities.StringPtr(v)
	}
	if flags.Changed("content") {
		v, _ := flags.GetString("content")
		base.Content = entities.StringPtr(v)
	}

	if !flags.Changed("address") && !flags.Changed("lat") && !flags.Changed("lng") {
		return base
	}
	m := entities.MapData{}
	if base.Map != nil {
		m = *base.Map
	}
	if flags.Changed("address") {
		m.Address, _ = flags.GetString("address")
	}
	if flags.Changed("lat") || flags.Changed("lng") {
		lat, _ := flags.GetFloat64("lat")
		lng, _ := flags.GetFloat64("lng")
		latDelta, _ := flags.GetFloat64("lat-delta")
		lngDelta, _ := flags.GetFloat64("lng-delta")
		m.Location = &entities.Coordinate{Latitude: lat, Longitude: lng}
		m.MapRegion = &entities.Region{Latitude: lat, Longitude: lng, LatitudeDelta: latDelta, LongitudeDelta: lngDelta}
	}
	base.Map = &m
	return base
}

func printOutcome(out io.Writer, outcome services.WriteOutcome) {
	switch {
	case outcome.Remote:
		fmt.Fprintln(out, "Synced with server")
	case outcome.Queued:
		fmt.Fprintln(out, "Queued for sync")
	case outcome.RemoteErr != nil:
		fmt.Fprintf(out, "Saved locally; server rejected the change: %v\n", outcome.RemoteErr)
	case outcome.QueueErr != nil:
		fmt.Fprintf(out, "Saved locally; failed to queue for sync: %v\n", outcome.QueueErr)
	}
}

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func printItems(out io.Writer, items []entities.FlatItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No tasks")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDATETIME\tPRIORITY\tCOMPLEXITY")
	for _, item := range items {
		title := item.Title
		if item.Type == entities.ItemTypeSubtask {
			title = "  └ " + title
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, title, deref(item.Datetime), derefInt(item.Priority), derefInt(item.Complexity))
	}
	w.Flush()
}

func printNote(out io.Writer, note *entities.Note) {
	fmt.Fprintf(out, "%s  %s\n", note.ID, note.Title)
	if note.Subtitle != nil {
		fmt.Fprintf(out, "  %s\n", *note.Subtitle)
	}
	if note.Content != nil {
		fmt.Fprintf(out, "  %s\n", *note.Content)
	}
	if note.Map != nil {
		if note.Map.Address != "" {
			fmt.Fprintf(out, "  @ %s\n", note.Map.Address)
		}
		if loc := note.Map.Location; loc != nil {
			fmt.Fprintf(out, "  @ %.5f, %.5f\n", loc.Latitude, loc.Longitude)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func derefInt(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}
