package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/database"
	"github.com/taskmaster/tasknote/internal/ports"
)

const noteColumns = `id, section_id, title, subtitle, content, map`

// NoteRepositoryImpl implements the NoteRepository interface
type NoteRepositoryImpl struct {
	db *database.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *database.DB) ports.NoteRepository {
	return &NoteRepositoryImpl{db: db}
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, taskID string, fields entities.NoteFields, id string) (*entities.Note, error) {
	if id == "" {
		id = uuid.NewString()
	}
	note := &entities.Note{ID: id, SectionID: taskID, NoteFields: normalizeMap(fields)}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notes (id, section_id, title, subtitle, content, map)
			VALUES (?, ?, ?, ?, ?, ?)`,
			note.ID, note.SectionID, note.Title, note.Subtitle, note.Content, note.Map,
		)
		switch {
		case isMissingParent(err):
			return entities.ErrTaskNotFound
		case isDuplicateKey(err):
			return entities.ErrNoteExists
		}
		return err
	})
	if err != nil {
		return nil, storageError("create note", err)
	}

	return note, nil
}

func (r *NoteRepositoryImpl) GetByID(ctx context.Context, id, taskID string) (*entities.Note, error) {
	var note entities.Note
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &note,
			`SELECT `+noteColumns+` FROM notes WHERE id = ? AND section_id = ?`, id, taskID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrNoteNotFound
		}
		return nil, storageError("get note", err)
	}

	return &note, nil
}

func (r *NoteRepositoryImpl) Update(ctx context.Context, id, taskID string, fields entities.NoteFields) (*entities.Note, error) {
	fields = normalizeMap(fields)
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE notes
			SET title = ?, subtitle = ?, content = ?, map = ?
			WHERE id = ? AND section_id = ?`,
			fields.Title, fields.Subtitle, fields.Content, fields.Map, id, taskID,
		)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return entities.ErrNoteNotFound
		}
		return nil
	})
	if err != nil {
		return nil, storageError("update note", err)
	}

	return &entities.Note{ID: id, SectionID: taskID, NoteFields: fields}, nil
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id, taskID string) (int64, error) {
	var rowsAffected int64
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND section_id = ?`, id, taskID)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, storageError("delete note", err)
	}

	return rowsAffected, nil
}

func (r *NoteRepositoryImpl) ListByTask(ctx context.Context, taskID string) ([]*entities.Note, error) {
	var notes []*entities.Note
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &notes,
			`SELECT `+noteColumns+` FROM notes WHERE section_id = ? ORDER BY rowid`, taskID)
	})
	if err != nil {
		return nil, storageError("list notes", err)
	}

	return notes, nil
}

func (r *NoteRepositoryImpl) List(ctx context.Context) ([]*entities.Note, error) {
	var notes []*entities.Note
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &notes, `SELECT `+noteColumns+` FROM notes ORDER BY rowid`)
	})
	if err != nil {
		return nil, storageError("list all notes", err)
	}

	return notes, nil
}

// normalizeMap drops an empty map so it reads back as absent
func normalizeMap(fields entities.NoteFields) entities.NoteFields {
	if fields.Map != nil && fields.Map.IsZero() {
		fields.Map = nil
	}
	return fields
}
