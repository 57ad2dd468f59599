package services

import (
	"context"
	"testing"
	"time"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
)

func seedTasks(t *testing.T, store *testStore) (first, second *entities.Task) {
	t.Helper()
	ctx := context.Background()

	var err error
	first, err = store.tasks.Create(ctx, entities.TaskFields{Title: "Alpha", Datetime: entities.StringPtr("2024-03-10T09:00:00")}, "t1")
	if err != nil {
		t.Fatalf("Create(t1) error = %v", err)
	}
	second, err = store.tasks.Create(ctx, entities.TaskFields{Title: "Beta", Datetime: entities.StringPtr("2024-03-11T23:30:00")}, "t2")
	if err != nil {
		t.Fatalf("Create(t2) error = %v", err)
	}

	// Created out of order so the flat list has to regroup them
	for _, s := range []struct{ id, parent, title string }{
		{"s2a", "t2", "Beta one"},
		{"s1a", "t1", "Alpha one"},
		{"s1b", "t1", "Alpha two"},
	} {
		if _, err := store.subtasks.Create(ctx, s.parent, entities.TaskFields{Title: s.title, Datetime: entities.StringPtr("2024-03-10T10:00:00")}, s.id); err != nil {
			t.Fatalf("Create(%s) error = %v", s.id, err)
		}
	}
	return first, second
}

func TestFlattenService_FlatList(t *testing.T) {
	store := newTestStore(t)
	seedTasks(t, store)
	svc := NewFlattenService(store.tasks, store.subtasks, time.UTC, logger.NewNop())

	items, err := svc.FlatList(context.Background())
	if err != nil {
		t.Fatalf("FlatList() error = %v", err)
	}

	wantIDs := []string{"t1", "s1a", "s1b", "t2", "s2a"}
	if len(items) != len(wantIDs) {
		t.Fatalf("FlatList() = %d items, want %d", len(items), len(wantIDs))
	}
	for i, id := range wantIDs {
		if items[i].ID != id {
			t.Fatalf("items[%d].ID = %s, want %s", i, items[i].ID, id)
		}
	}

	if items[0].Type != entities.ItemTypeTask || items[0].ParentID != nil {
		t.Fatalf("task item = %+v", items[0])
	}
	sub := items[1]
	if sub.Type != entities.ItemTypeSubtask || sub.ParentID == nil || *sub.ParentID != "t1" || sub.SectionID == nil || *sub.SectionID != "t1" {
		t.Fatalf("subtask item = %+v", sub)
	}
}

func TestFlattenService_FlatListEmpty(t *testing.T) {
	store := newTestStore(t)
	svc := NewFlattenService(store.tasks, store.subtasks, time.UTC, logger.NewNop())

	items, err := svc.FlatList(context.Background())
	if err != nil {
		t.Fatalf("FlatList() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("FlatList() = %d items, want 0", len(items))
	}
}

func TestFlattenService_TasksOnDate(t *testing.T) {
	store := newTestStore(t)
	seedTasks(t, store)
	ctx := context.Background()

	if _, err := store.tasks.Create(ctx, entities.TaskFields{Title: "No date"}, "t3"); err != nil {
		t.Fatalf("Create(t3) error = %v", err)
	}
	if _, err := store.tasks.Create(ctx, entities.TaskFields{Title: "Garbage", Datetime: entities.StringPtr("someday")}, "t4"); err != nil {
		t.Fatalf("Create(t4) error = %v", err)
	}

	svc := NewFlattenService(store.tasks, store.subtasks, time.UTC, logger.NewNop())

	items, err := svc.TasksOnDate(ctx, time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("TasksOnDate() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "t1" {
		t.Fatalf("TasksOnDate() = %+v, want only t1 (subtasks excluded)", items)
	}

	items, err = svc.TasksOnDate(ctx, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("TasksOnDate() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("TasksOnDate(empty day) = %+v", items)
	}
}

func TestFlattenService_TasksOnDateUsesLocalCalendar(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.tasks.Create(ctx, entities.TaskFields{Title: "Late call", Datetime: entities.StringPtr("2024-03-10T23:30:00Z")}, "t1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tokyo := time.FixedZone("JST", 9*60*60)
	svc := NewFlattenService(store.tasks, store.subtasks, tokyo, logger.NewNop())

	items, err := svc.TasksOnDate(ctx, time.Date(2024, 3, 11, 12, 0, 0, 0, tokyo))
	if err != nil {
		t.Fatalf("TasksOnDate() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("23:30 UTC is the next morning in JST; got %+v", items)
	}

	items, _ = svc.TasksOnDate(ctx, time.Date(2024, 3, 10, 12, 0, 0, 0, tokyo))
	if len(items) != 0 {
		t.Fatalf("TasksOnDate(previous JST day) = %+v", items)
	}
}

func TestFlattenService_TasksOnDateDayBoundary(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, tokyo)

	tests := []struct {
		name     string
		datetime string
		want     bool
	}{
		{name: "zone-less last millisecond", datetime: "2024-03-10T23:59:59.999", want: true},
		{name: "zone-less first millisecond of next day", datetime: "2024-03-11T00:00:00.001", want: false},
		{name: "zone-less first millisecond", datetime: "2024-03-10T00:00:00.000", want: true},
		{name: "zone-less last millisecond of previous day", datetime: "2024-03-09T23:59:59.999", want: false},
		{name: "offset last millisecond", datetime: "2024-03-10T23:59:59.999+09:00", want: true},
		{name: "offset first millisecond of next day", datetime: "2024-03-11T00:00:00.001+09:00", want: false},
		{name: "utc last local millisecond", datetime: "2024-03-10T14:59:59.999Z", want: true},
		{name: "utc first local millisecond of next day", datetime: "2024-03-10T15:00:00.001Z", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			ctx := context.Background()
			if _, err := store.tasks.Create(ctx, entities.TaskFields{Title: "Deadline", Datetime: entities.StringPtr(tt.datetime)}, "t1"); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			svc := NewFlattenService(store.tasks, store.subtasks, tokyo, logger.NewNop())
			items, err := svc.TasksOnDate(ctx, day)
			if err != nil {
				t.Fatalf("TasksOnDate() error = %v", err)
			}
			if got := len(items) == 1; got != tt.want {
				t.Fatalf("TasksOnDate() included %s = %v, want %v", tt.datetime, got, tt.want)
			}
		})
	}
}

func TestParseDatetime(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
		day   int
	}{
		{"2024-03-10T09:00:00Z", true, 10},
		{"2024-03-10T09:00:00.123+02:00", true, 10},
		{"2024-03-10 09:00:00", true, 10},
		{"2024-03-10T09:00", true, 10},
		{"2024-03-10", true, 10},
		{"", false, 0},
		{"tomorrow", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseDatetime(tt.value, time.UTC)
			if ok != tt.ok {
				t.Fatalf("ParseDatetime(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && got.Day() != tt.day {
				t.Fatalf("ParseDatetime(%q) = %v", tt.value, got)
			}
		})
	}
}
