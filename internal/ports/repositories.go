package ports

import (
	"context"

	"github.com/taskmaster/tasknote/internal/domain/entities"
)

// TaskRepository defines the interface for task data operations.
// An empty id on Create asks the store to generate one.
type TaskRepository interface {
	Create(ctx context.Context, fields entities.TaskFields, id string) (*entities.Task, error)
	GetByID(ctx context.Context, id string) (*entities.Task, error)
	Update(ctx context.Context, id string, fields entities.TaskFields) (*entities.Task, error)
	Delete(ctx context.Context, id string) (int64, error)
	List(ctx context.Context) ([]*entities.Task, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// SubtaskRepository defines the interface for subtask data operations
type SubtaskRepository interface {
	Create(ctx context.Context, taskID string, fields entities.TaskFields, id string) (*entities.Subtask, error)
	GetByID(ctx context.Context, id string) (*entities.Subtask, error)
	Update(ctx context.Context, id string, fields entities.TaskFields) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByTask(ctx context.Context, taskID string) ([]*entities.Subtask, error)
	List(ctx context.Context) ([]*entities.Subtask, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// NoteRepository defines the interface for note data operations.
// Notes are addressed by the pair (id, taskID).
type NoteRepository interface {
	Create(ctx context.Context, taskID string, fields entities.NoteFields, id string) (*entities.Note, error)
	GetByID(ctx context.Context, id, taskID string) (*entities.Note, error)
	Update(ctx context.Context, id, taskID string, fields entities.NoteFields) (*entities.Note, error)
	Delete(ctx context.Context, id, taskID string) (int64, error)
	ListByTask(ctx context.Context, taskID string) ([]*entities.Note, error)
	List(ctx context.Context) ([]*entities.Note, error)
}

// UserRepository stores accounts of the development remote server
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByNickname(ctx context.Context, nickname string) (*entities.User, error)
}
