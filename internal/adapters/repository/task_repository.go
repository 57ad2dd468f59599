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

const taskColumns = `id, title, description, datetime, priority, complexity`

// TaskRepositoryImpl implements the TaskRepository interface on the sections table
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, fields entities.TaskFields, id string) (*entities.Task, error) {
	if id == "" {
		id = uuid.NewString()
	}
	task := &entities.Task{ID: id, TaskFields: fields}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sections (id, title, description, datetime, priority, complexity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			task.ID, task.Title, task.Description, task.Datetime, task.Priority, task.Complexity,
		)
		if isDuplicateKey(err) {
			return entities.ErrTaskExists
		}
		return err
	})
	if err != nil {
		return nil, storageError("create task", err)
	}

	return task, nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	var task entities.Task
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM sections WHERE id = ?`, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, storageError("get task", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, id string, fields entities.TaskFields) (*entities.Task, error) {
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE sections
			SET title = ?, description = ?, datetime = ?, priority = ?, complexity = ?
			WHERE id = ?`,
			fields.Title, fields.Description, fields.Datetime, fields.Priority, fields.Complexity, id,
		)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return entities.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return nil, storageError("update task", err)
	}

	return &entities.Task{ID: id, TaskFields: fields}, nil
}

// Delete removes the task together with its subtasks and notes and returns
// the number of tasks removed
func (r *TaskRepositoryImpl) Delete(ctx context.Context, id string) (int64, error) {
	var rowsAffected int64
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, storageError("delete task", err)
	}

	return rowsAffected, nil
}

// List returns all tasks in storage order
func (r *TaskRepositoryImpl) List(ctx context.Context) ([]*entities.Task, error) {
	var tasks []*entities.Task
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &tasks, `SELECT `+taskColumns+` FROM sections ORDER BY rowid`)
	})
	if err != nil {
		return nil, storageError("list tasks", err)
	}

	return tasks, nil
}

// DeleteAll removes every task; subtasks and notes follow through the cascade
func (r *TaskRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	var rowsAffected int64
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM sections`)
		if err != nil {
			return err
		}
		rowsAffected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, storageError("delete all tasks", err)
	}

	return rowsAffected, nil
}
