package services

import (
	"testing"
	"time"

	"github.com/taskmaster/tasknote/internal/domain/entities"
)

func flatTask(id, title string, priority *int, datetime string) entities.FlatItem {
	return entities.FlatItem{
		ID:   id,
		Type: entities.ItemTypeTask,
		TaskFields: entities.TaskFields{
			Title:    title,
			Priority: priority,
			Datetime: entities.StringPtr(datetime),
		},
	}
}

func ids(items []entities.FlatItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestQuery_Apply(t *testing.T) {
	parent := "a"
	sub := entities.FlatItem{
		ID:         "a1",
		Type:       entities.ItemTypeSubtask,
		ParentID:   &parent,
		SectionID:  &parent,
		TaskFields: entities.TaskFields{Title: "Draft outline", Priority: entities.IntPtr(2)},
	}
	items := []entities.FlatItem{
		flatTask("a", "Write report", entities.IntPtr(3), "2024-03-12T10:00:00"),
		sub,
		flatTask("b", "buy milk", nil, "2024-03-10T08:00:00"),
		flatTask("c", "Call bank", entities.IntPtr(1), ""),
		flatTask("d", "Another report", entities.IntPtr(3), "2024-03-11T08:00:00"),
	}

	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 11, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"no criteria keeps flat order", Query{}, []string{"a", "a1", "b", "c", "d"}},
		{"text is case-insensitive", Query{Text: "REPORT"}, []string{"a", "d"}},
		{"type filter", Query{Type: entities.ItemTypeSubtask}, []string{"a1"}},
		{"parent filter", Query{ParentID: "a"}, []string{"a1"}},
		{"priority range drops missing", Query{MinPriority: entities.IntPtr(2)}, []string{"a", "a1", "d"}},
		{"date window", Query{From: &from, To: &to}, []string{"b", "d"}},
		{"sort by priority keeps ties stable, missing last", Query{SortBy: SortPriority}, []string{"c", "a1", "a", "d", "b"}},
		{"descending still puts missing last", Query{SortBy: SortPriority, Descending: true}, []string{"a", "d", "a1", "c", "b"}},
		{"sort by title", Query{SortBy: SortTitle, Type: entities.ItemTypeTask}, []string{"d", "b", "c", "a"}},
		{"sort by datetime", Query{SortBy: SortDatetime, Type: entities.ItemTypeTask}, []string{"b", "d", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.query.Apply(items, time.UTC))
			if !equalIDs(got, tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}
