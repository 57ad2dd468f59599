package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

type recordingSharer struct {
	paths []string
}

func (s *recordingSharer) Share(ctx context.Context, path string) error {
	s.paths = append(s.paths, path)
	return nil
}

func newBackupService(t *testing.T, store *testStore, sharer ports.Sharer) *BackupService {
	t.Helper()
	flatten := NewFlattenService(store.tasks, store.subtasks, time.UTC, logger.NewNop())
	svc, err := NewBackupService(store.tasks, store.subtasks, flatten, sharer,
		filepath.Join(t.TempDir(), "exports", "tasknote-export.json"), logger.NewNop())
	if err != nil {
		t.Fatalf("NewBackupService() error = %v", err)
	}
	return svc
}

func TestBackupService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedTasks(t, store)
	sharer := &recordingSharer{}
	svc := newBackupService(t, store, sharer)

	path, err := svc.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	if len(sharer.paths) != 1 || sharer.paths[0] != path {
		t.Fatalf("sharer got %v, want [%s]", sharer.paths, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n  {") || !strings.HasSuffix(string(data), "\n") {
		t.Fatalf("export should be indented JSON with a trailing newline:\n%s", data)
	}

	// Mutate the store, then restore it from the export
	if _, err := store.tasks.Create(ctx, entities.TaskFields{Title: "Extra"}, "t9"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	report, err := svc.ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if report.TasksDeleted != 3 || report.TasksImported != 2 || report.SubtasksImported != 3 {
		t.Fatalf("report = %+v", report)
	}

	flatten := NewFlattenService(store.tasks, store.subtasks, time.UTC, logger.NewNop())
	items, err := flatten.FlatList(ctx)
	if err != nil {
		t.Fatalf("FlatList() error = %v", err)
	}
	got := ids(items)
	want := []string{"t1", "s1a", "s1b", "t2", "s2a"}
	if !equalIDs(got, want) {
		t.Fatalf("FlatList() after import = %v, want %v", got, want)
	}
}

func TestBackupService_ImportResolvesParentAndSkipsOrphans(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := newBackupService(t, store, nil)

	doc := `[
		{"id": "t1", "type": "task", "title": "Trip", "priority": 2},
		{"id": "s1", "type": "subtask", "title": "Pack", "parentId": "t1"},
		{"id": "s2", "type": "subtask", "title": "Book", "section_id": "t1", "parentId": "ignored"},
		{"id": "s3", "type": "subtask", "title": "Lost", "parentId": "nope"},
		{"id": "s4", "type": "subtask", "title": "No parent"}
	]`

	report, err := svc.ImportAll(ctx, []byte(doc))
	if err != nil {
		t.Fatalf("ImportAll() error = %v", err)
	}
	if report.TasksImported != 1 || report.SubtasksImported != 2 || report.Skipped != 2 {
		t.Fatalf("report = %+v", report)
	}

	subs, err := store.subtasks.ListByTask(ctx, "t1")
	if err != nil || len(subs) != 2 {
		t.Fatalf("ListByTask() = %+v, %v", subs, err)
	}

	task, err := store.tasks.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if task.Priority == nil || *task.Priority != 2 {
		t.Fatalf("imported task = %+v", task)
	}
}

func TestBackupService_InvalidDocumentLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedTasks(t, store)
	svc := newBackupService(t, store, nil)

	docs := map[string]string{
		"not json":        `{"id": `,
		"not an array":    `{"id": "t1", "type": "task", "title": "x"}`,
		"missing title":   `[{"id": "t1", "type": "task"}]`,
		"unknown type":    `[{"id": "t1", "type": "epic", "title": "x"}]`,
		"string priority": `[{"id": "t1", "type": "task", "title": "x", "priority": "high"}]`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ImportAll(ctx, []byte(doc))
			var parseErr *entities.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("ImportAll() error = %v, want *ParseError", err)
			}
		})
	}

	tasks, err := store.tasks.List(ctx)
	if err != nil || len(tasks) != 2 {
		t.Fatalf("store should be untouched, tasks = %d, err = %v", len(tasks), err)
	}
}

func TestBackupService_ExportEmptyStore(t *testing.T) {
	store := newTestStore(t)
	svc := newBackupService(t, store, nil)

	path, err := svc.ExportAll(context.Background())
	if err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	data, _ := os.ReadFile(path)

	var items []entities.FlatItem
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("export = %d items, want 0", len(items))
	}
}
