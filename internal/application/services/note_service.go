package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// NoteService handles note mutations
type NoteService struct {
	noteRepo ports.NoteRepository
	remote   ports.NoteAPI
	writer   *dualWriter
	logger   *logger.Logger
}

// NewNoteService creates a new note service
func NewNoteService(noteRepo ports.NoteRepository, remote ports.NoteAPI, session ports.SessionProvider, actionLog ports.ActionLog, log *logger.Logger) *NoteService {
	log = log.WithComponent("notes")
	return &NoteService{
		noteRepo: noteRepo,
		remote:   remote,
		writer:   &dualWriter{session: session, log: actionLog, logger: log},
		logger:   log,
	}
}

// CreateNote adds a note to taskID. Nothing is sent or queued when the
// task does not exist locally.
func (s *NoteService) CreateNote(ctx context.Context, taskID string, fields entities.NoteFields) (*entities.Note, WriteOutcome, error) {
	if err := entities.ValidateFields(fields); err != nil {
		return nil, WriteOutcome{}, fmt.Errorf("invalid note: %w", err)
	}

	note, err := s.noteRepo.Create(ctx, taskID, fields, uuid.NewString())
	if err != nil {
		s.logger.Errorw("Failed to store note", "task_id", taskID, "error", err)
		return nil, WriteOutcome{}, err
	}

	outcome := s.writer.dispatch(ctx,
		func(token string) error {
			_, err := s.remote.CreateNote(ctx, token, taskID, note.ID, fields)
			return err
		},
		func() (entities.PendingAction, error) {
			return entities.NewCreateNoteAction(taskID, note.ID, fields)
		},
	)

	s.logger.Infow("Note created", "note_id", note.ID, "task_id", taskID, "remote", outcome.Remote, "queued", outcome.Queued)
	return note, outcome, nil
}

// UpdateNote replaces all fields of the note (id, taskID)
func (s *NoteService) UpdateNote(ctx context.Context, id, taskID string, fields entities.NoteFields) (*entities.Note, WriteOutcome, error) {
	if err := entities.ValidateFields(fields); err != nil {
		return nil, WriteOutcome{}, fmt.Errorf("invalid note: %w", err)
	}

	note, err := s.noteRepo.Update(ctx, id, taskID, fields)
	if err != nil {
		s.logger.Errorw("Failed to update note", "note_id", id, "error", err)
		return nil, WriteOutcome{}, err
	}

	outcome := s.writer.dispatch(ctx,
		func(token string) error {
			_, err := s.remote.UpdateNote(ctx, token, taskID, id, fields)
			return err
		},
		func() (entities.PendingAction, error) {
			return entities.NewUpdateNoteAction(taskID, id, fields)
		},
	)

	return note, outcome, nil
}

// DeleteNote removes the note (id, taskID) and returns the local row count
func (s *NoteService) DeleteNote(ctx context.Context, id, taskID string) (int64, WriteOutcome, error) {
	n, err := s.noteRepo.Delete(ctx, id, taskID)
	if err != nil {
		s.logger.Errorw("Failed to delete note", "note_id", id, "error", err)
		return 0, WriteOutcome{}, err
	}
	if n == 0 {
		return 0, WriteOutcome{}, nil
	}

	outcome := s.writer.dispatch(ctx,
		func(token string) error {
			return s.remote.DeleteNote(ctx, token, taskID, id)
		},
		func() (entities.PendingAction, error) {
			return entities.NewDeleteNoteAction(taskID, id), nil
		},
	)

	return n, outcome, nil
}

// GetNote returns the note (id, taskID)
func (s *NoteService) GetNote(ctx context.Context, id, taskID string) (*entities.Note, error) {
	return s.noteRepo.GetByID(ctx, id, taskID)
}

// ListNotes returns the notes of taskID
func (s *NoteService) ListNotes(ctx context.Context, taskID string) ([]*entities.Note, error) {
	return s.noteRepo.ListByTask(ctx, taskID)
}
