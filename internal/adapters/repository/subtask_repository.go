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

const subtaskColumns = `id, section_id, title, description, datetime, priority, complexity`

// SubtaskRepositoryImpl implements the SubtaskRepository interface
type SubtaskRepositoryImpl struct {
	db *database.DB
}

// NewSubtaskRepository creates a new subtask repository
func NewSubtaskRepository(db *database.DB) ports.SubtaskRepository {
	return &SubtaskRepositoryImpl{db: db}
}

func (r *SubtaskRepositoryImpl) Create(ctx context.Context, taskID string, fields entities.TaskFields, id string) (*entities.Subtask, error) {
	if id == "" {
		id = uuid.NewString()
	}
	subtask := &entities.Subtask{ID: id, SectionID: taskID, TaskFields: fields}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO subtasks (id, section_id, title, description, datetime, priority, complexity)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			subtask.ID, subtask.SectionID, subtask.Title, subtask.Description,
			subtask.Datetime, subtask.Priority, subtask.Complexity,
		)
		switch {
		case isMissingParent(err):
			return entities.ErrTaskNotFound
		case isDuplicateKey(err):
			return entities.ErrAlreadyExists
		}
		return err
	})
	if err != nil {
		return nil, storageError("create subtask", err)
	}

	return subtask, nil
}

func (r *SubtaskRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Subtask, error) {
	var subtask entities.Subtask
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &subtask, `SELECT `+subtaskColumns+` FROM subtasks WHERE id = ?`, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrSubtaskNotFound
		}
		return nil, storageError("get subtask", err)
	}

	return &subtask, nil
}

// Update replaces the subtask fields and reports whether a row matched
func (r *SubtaskRepositoryImpl) Update(ctx context.Context, id string, fields entities.TaskFields) (bool, error) {
	var rowsAffected int64
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE subtasks
			SET title = ?, description = ?, datetime = ?, priority = ?, complexity = ?
			WHERE id = ?`,
			fields.Title, fields.Description, fields.Datetime, fields.Priority, fields.Complexity, id,
		)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, storageError("update subtask", err)
	}

	return rowsAffected > 0, nil
}

// Delete removes the subtask and reports whether a row matched
func (r *SubtaskRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	var rowsAffected int64
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM subtasks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, storageError("delete subtask", err)
	}

	return rowsAffected > 0, nil
}

func (r *SubtaskRepositoryImpl) ListByTask(ctx context.Context, taskID string) ([]*entities.Subtask, error) {
	var subtasks []*entities.Subtask
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &subtasks,
			`SELECT `+subtaskColumns+` FROM subtasks WHERE section_id = ? ORDER BY rowid`, taskID)
	})
	if err != nil {
		return nil, storageError("list subtasks", err)
	}

	return subtasks, nil
}

// List returns every subtask in storage order
func (r *SubtaskRepositoryImpl) List(ctx context.Context) ([]*entities.Subtask, error) {
	var subtasks []*entities.Subtask
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &subtasks, `SELECT `+subtaskColumns+` FROM subtasks ORDER BY rowid`)
	})
	if err != nil {
		return nil, storageError("list all subtasks", err)
	}

	return subtasks, nil
}

func (r *SubtaskRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	var rowsAffected int64
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM subtasks`)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, storageError("delete all subtasks", err)
	}

	return rowsAffected, nil
}
