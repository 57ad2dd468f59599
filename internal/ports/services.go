package ports

import (
	"context"

	"github.com/taskmaster/tasknote/internal/domain/entities"
)

// ActionLog is the durable queue of remote mutations recorded while offline
type ActionLog interface {
	Append(ctx context.Context, action entities.PendingAction) error
	Drain(ctx context.Context) ([]entities.PendingAction, error)
	Remove(ctx context.Context, n int) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	// LockReplay is held for a whole sync run; it fails with
	// entities.ErrSyncInProgress while another run holds it
	LockReplay(ctx context.Context) (release func(), err error)
}

// SectionAPI covers the remote task ("section") endpoints
type SectionAPI interface {
	CreateSection(ctx context.Context, token, id string, fields entities.TaskFields) (*entities.Task, error)
	ListSections(ctx context.Context, token string) ([]*entities.Task, error)
	GetSection(ctx context.Context, token, id string) (*entities.Task, error)
	UpdateSection(ctx context.Context, token, id string, fields entities.TaskFields) (*entities.Task, error)
	DeleteSection(ctx context.Context, token, id string) error
}

// NoteAPI covers the remote note endpoints nested under a section
type NoteAPI interface {
	CreateNote(ctx context.Context, token, sectionID, id string, fields entities.NoteFields) (*entities.Note, error)
	ListNotes(ctx context.Context, token, sectionID string) ([]*entities.Note, error)
	GetNote(ctx context.Context, token, sectionID, noteID string) (*entities.Note, error)
	UpdateNote(ctx context.Context, token, sectionID, noteID string, fields entities.NoteFields) (*entities.Note, error)
	DeleteNote(ctx context.Context, token, sectionID, noteID string) error
}

// AuthAPI covers account endpoints
type AuthAPI interface {
	Login(ctx context.Context, nickname, password string) (string, error)
	Register(ctx context.Context, nickname, password string) error
}

// RemoteAPI is the full remote contract
type RemoteAPI interface {
	SectionAPI
	NoteAPI
	AuthAPI
}

// TokenStore persists the session token between runs
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// SessionProvider exposes the current session to write paths
type SessionProvider interface {
	Token() string
	Valid() bool
}

// Sharer hands an exported file to the user
type Sharer interface {
	Share(ctx context.Context, path string) error
}
