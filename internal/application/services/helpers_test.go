package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/taskmaster/tasknote/internal/adapters/actionlog"
	"github.com/taskmaster/tasknote/internal/adapters/repository"
	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/database"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

const testToken = "opaque-token"

type testStore struct {
	tasks    ports.TaskRepository
	subtasks ports.SubtaskRepository
	notes    ports.NoteRepository
	log      *actionlog.FileLog
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(context.Background(), filepath.Join(dir, "store.db"), database.SchemaStore)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &testStore{
		tasks:    repository.NewTaskRepository(db),
		subtasks: repository.NewSubtaskRepository(db),
		notes:    repository.NewNoteRepository(db),
		log:      actionlog.New(filepath.Join(dir, "actions.json"), logger.NewNop()),
	}
}

func (s *testStore) pending(t *testing.T) []entities.PendingAction {
	t.Helper()
	actions, err := s.log.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	return actions
}

type fakeSession struct {
	token string
}

func (s *fakeSession) Token() string { return s.token }
func (s *fakeSession) Valid() bool   { return s.token != "" }

type remoteCall struct {
	op        string
	id        string
	sectionID string
	noteID    string
	title     string
}

// fakeRemote records every call and fails with the queued errors for an operation
type fakeRemote struct {
	mu     sync.Mutex
	calls  []remoteCall
	errs   map[string][]error
	onCall func(op string)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{errs: make(map[string][]error)}
}

func (f *fakeRemote) failNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = append(f.errs[op], errs...)
}

func (f *fakeRemote) record(c remoteCall) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	var err error
	if q := f.errs[c.op]; len(q) > 0 {
		err = q[0]
		f.errs[c.op] = q[1:]
	}
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(c.op)
	}
	return err
}

func (f *fakeRemote) recorded() []remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]remoteCall(nil), f.calls...)
}

func (f *fakeRemote) CreateSection(ctx context.Context, token, id string, fields entities.TaskFields) (*entities.Task, error) {
	if err := f.record(remoteCall{op: "create_section", id: id, title: fields.Title}); err != nil {
		return nil, err
	}
	return &entities.Task{ID: id, TaskFields: fields}, nil
}

func (f *fakeRemote) ListSections(ctx context.Context, token string) ([]*entities.Task, error) {
	return nil, f.record(remoteCall{op: "list_sections"})
}

func (f *fakeRemote) GetSection(ctx context.Context, token, id string) (*entities.Task, error) {
	return nil, f.record(remoteCall{op: "get_section", sectionID: id})
}

func (f *fakeRemote) UpdateSection(ctx context.Context, token, id string, fields entities.TaskFields) (*entities.Task, error) {
	if err := f.record(remoteCall{op: "update_section", sectionID: id, title: fields.Title}); err != nil {
		return nil, err
	}
	return &entities.Task{ID: id, TaskFields: fields}, nil
}

func (f *fakeRemote) DeleteSection(ctx context.Context, token, id string) error {
	return f.record(remoteCall{op: "delete_section", sectionID: id})
}

func (f *fakeRemote) CreateNote(ctx context.Context, token, sectionID, id string, fields entities.NoteFields) (*entities.Note, error) {
	if err := f.record(remoteCall{op: "create_note", id: id, sectionID: sectionID, title: fields.Title}); err != nil {
		return nil, err
	}
	return &entities.Note{ID: id, SectionID: sectionID, NoteFields: fields}, nil
}

func (f *fakeRemote) ListNotes(ctx context.Context, token, sectionID string) ([]*entities.Note, error) {
	return nil, f.record(remoteCall{op: "list_notes", sectionID: sectionID})
}

func (f *fakeRemote) GetNote(ctx context.Context, token, sectionID, noteID string) (*entities.Note, error) {
	return nil, f.record(remoteCall{op: "get_note", sectionID: sectionID, noteID: noteID})
}

func (f *fakeRemote) UpdateNote(ctx context.Context, token, sectionID, noteID string, fields entities.NoteFields) (*entities.Note, error) {
	if err := f.record(remoteCall{op: "update_note", sectionID: sectionID, noteID: noteID, title: fields.Title}); err != nil {
		return nil, err
	}
	return &entities.Note{ID: noteID, SectionID: sectionID, NoteFields: fields}, nil
}

func (f *fakeRemote) DeleteNote(ctx context.Context, token, sectionID, noteID string) error {
	return f.record(remoteCall{op: "delete_note", sectionID: sectionID, noteID: noteID})
}

func (f *fakeRemote) Login(ctx context.Context, nickname, password string) (string, error) {
	return testToken, f.record(remoteCall{op: "login"})
}

func (f *fakeRemote) Register(ctx context.Context, nickname, password string) error {
	return f.record(remoteCall{op: "register"})
}
