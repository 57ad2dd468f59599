package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/database"
)

// createTestDB opens a migrated store in a temp dir
func createTestDB(t *testing.T, schema database.Schema) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), schema)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTaskRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(createTestDB(t, database.SchemaStore))

	created, err := repo.Create(ctx, entities.TaskFields{Title: "Write report", Priority: entities.IntPtr(2)}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() should generate an id")
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Write report" || got.Priority == nil || *got.Priority != 2 {
		t.Fatalf("GetByID() = %+v", got)
	}
	if got.Description != nil || got.Complexity != nil {
		t.Fatalf("absent fields should stay nil: %+v", got)
	}

	updated, err := repo.Update(ctx, created.ID, entities.TaskFields{Title: "Write final report"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Priority != nil {
		t.Fatal("Update() is a full replace; priority should be cleared")
	}

	if _, err := repo.Update(ctx, "missing", entities.TaskFields{Title: "x"}); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("Update(missing) error = %v, want ErrTaskNotFound", err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("GetByID(missing) error = %v, want ErrNotFound", err)
	}

	n, err := repo.Delete(ctx, created.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete() = %d, %v; want 1", n, err)
	}
	n, err = repo.Delete(ctx, created.ID)
	if err != nil || n != 0 {
		t.Fatalf("second Delete() = %d, %v; want 0", n, err)
	}
}

func TestTaskRepository_CreateWithID(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(createTestDB(t, database.SchemaStore))

	task, err := repo.Create(ctx, entities.TaskFields{Title: "a"}, "fixed-id")
	if err != nil || task.ID != "fixed-id" {
		t.Fatalf("Create() = %+v, %v", task, err)
	}
	if _, err := repo.Create(ctx, entities.TaskFields{Title: "b"}, "fixed-id"); !errors.Is(err, entities.ErrAlreadyExists) {
		t.Fatalf("duplicate Create() error = %v, want ErrAlreadyExists", err)
	}
}

func TestTaskRepository_ListKeepsStorageOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(createTestDB(t, database.SchemaStore))

	for _, id := range []string{"z", "a", "m"} {
		if _, err := repo.Create(ctx, entities.TaskFields{Title: id}, id); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	tasks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	if len(ids) != 3 || ids[0] != "z" || ids[1] != "a" || ids[2] != "m" {
		t.Fatalf("List() order = %v, want [z a m]", ids)
	}
}

func TestDeleteTask_CascadesToSubtasksAndNotes(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t, database.SchemaStore)
	tasks := NewTaskRepository(db)
	subtasks := NewSubtaskRepository(db)
	notes := NewNoteRepository(db)

	task, err := tasks.Create(ctx, entities.TaskFields{Title: "parent"}, "")
	if err != nil {
		t.Fatalf("Create task: %v", err)
	}
	other, err := tasks.Create(ctx, entities.TaskFields{Title: "other"}, "")
	if err != nil {
		t.Fatalf("Create other: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := subtasks.Create(ctx, task.ID, entities.TaskFields{Title: "child"}, ""); err != nil {
			t.Fatalf("Create subtask: %v", err)
		}
	}
	if _, err := subtasks.Create(ctx, other.ID, entities.TaskFields{Title: "keep"}, ""); err != nil {
		t.Fatalf("Create subtask: %v", err)
	}
	if _, err := notes.Create(ctx, task.ID, entities.NoteFields{Title: "note"}, ""); err != nil {
		t.Fatalf("Create note: %v", err)
	}

	if n, err := tasks.Delete(ctx, task.ID); err != nil || n != 1 {
		t.Fatalf("Delete() = %d, %v", n, err)
	}

	remaining, err := subtasks.List(ctx)
	if err != nil {
		t.Fatalf("List subtasks: %v", err)
	}
	if len(remaining) != 1 || remaining[0].SectionID != other.ID {
		t.Fatalf("subtasks after cascade = %+v", remaining)
	}
	left, err := notes.ListByTask(ctx, task.ID)
	if err != nil || len(left) != 0 {
		t.Fatalf("notes after cascade = %d, %v", len(left), err)
	}
}

func TestSubtaskRepository(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t, database.SchemaStore)
	tasks := NewTaskRepository(db)
	subtasks := NewSubtaskRepository(db)

	if _, err := subtasks.Create(ctx, "missing", entities.TaskFields{Title: "orphan"}, ""); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("Create(orphan) error = %v, want ErrTaskNotFound", err)
	}

	task, _ := tasks.Create(ctx, entities.TaskFields{Title: "p"}, "")
	sub, err := subtasks.Create(ctx, task.ID, entities.TaskFields{Title: "c", Complexity: entities.IntPtr(0)}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := subtasks.GetByID(ctx, sub.ID)
	if err != nil || got.Complexity == nil || *got.Complexity != 0 {
		t.Fatalf("GetByID() = %+v, %v; zero complexity must survive", got, err)
	}

	ok, err := subtasks.Update(ctx, sub.ID, entities.TaskFields{Title: "renamed"})
	if err != nil || !ok {
		t.Fatalf("Update() = %t, %v", ok, err)
	}
	ok, err = subtasks.Update(ctx, "missing", entities.TaskFields{Title: "x"})
	if err != nil || ok {
		t.Fatalf("Update(missing) = %t, %v", ok, err)
	}

	list, err := subtasks.ListByTask(ctx, task.ID)
	if err != nil || len(list) != 1 || list[0].Title != "renamed" {
		t.Fatalf("ListByTask() = %+v, %v", list, err)
	}

	ok, err = subtasks.Delete(ctx, sub.ID)
	if err != nil || !ok {
		t.Fatalf("Delete() = %t, %v", ok, err)
	}
	ok, _ = subtasks.Delete(ctx, sub.ID)
	if ok {
		t.Fatal("second Delete() should report no match")
	}
}

func TestNoteRepository(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t, database.SchemaStore)
	tasks := NewTaskRepository(db)
	notes := NewNoteRepository(db)

	task, _ := tasks.Create(ctx, entities.TaskFields{Title: "trip"}, "")
	other, _ := tasks.Create(ctx, entities.TaskFields{Title: "other"}, "")

	mapData := &entities.MapData{
		Address:  "Harbour 3",
		Location: &entities.Coordinate{Latitude: 1.5, Longitude: 2.5},
	}
	note, err := notes.Create(ctx, task.ID, entities.NoteFields{Title: "hotel", Map: mapData}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := notes.GetByID(ctx, note.ID, task.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Map == nil || got.Map.Address != "Harbour 3" || got.Map.Location.Longitude != 2.5 {
		t.Fatalf("map not decoded: %+v", got.Map)
	}

	if _, err := notes.GetByID(ctx, note.ID, other.ID); !errors.Is(err, entities.ErrNoteNotFound) {
		t.Fatalf("GetByID(wrong task) error = %v", err)
	}
	if _, err := notes.Update(ctx, note.ID, other.ID, entities.NoteFields{Title: "x"}); !errors.Is(err, entities.ErrNoteNotFound) {
		t.Fatalf("Update(wrong task) error = %v", err)
	}

	if _, err := notes.Update(ctx, note.ID, task.ID, entities.NoteFields{Title: "hotel", Map: &entities.MapData{}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ = notes.GetByID(ctx, note.ID, task.ID)
	if got.Map != nil {
		t.Fatalf("empty map should read back as absent, got %+v", got.Map)
	}

	if n, err := notes.Delete(ctx, note.ID, other.ID); err != nil || n != 0 {
		t.Fatalf("Delete(wrong task) = %d, %v", n, err)
	}
	if n, err := notes.Delete(ctx, note.ID, task.ID); err != nil || n != 1 {
		t.Fatalf("Delete() = %d, %v", n, err)
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(createTestDB(t, database.SchemaServer))

	user := &entities.User{Nickname: "ada", PasswordHash: "hash"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &entities.User{Nickname: "ada", PasswordHash: "x"}); !errors.Is(err, entities.ErrUserExists) {
		t.Fatalf("duplicate Create() error = %v", err)
	}

	got, err := repo.GetByNickname(ctx, "ada")
	if err != nil || got.ID != user.ID {
		t.Fatalf("GetByNickname() = %+v, %v", got, err)
	}
	if _, err := repo.GetByNickname(ctx, "bob"); !errors.Is(err, entities.ErrUserNotFound) {
		t.Fatalf("GetByNickname(missing) error = %v", err)
	}
}
