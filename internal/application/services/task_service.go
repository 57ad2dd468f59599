package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// TaskService handles task and subtask mutations
type TaskService struct {
	taskRepo    ports.TaskRepository
	subtaskRepo ports.SubtaskRepository
	remote      ports.SectionAPI
	writer      *dualWriter
	logger      *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, subtaskRepo ports.SubtaskRepository, remote ports.SectionAPI, session ports.SessionProvider, actionLog ports.ActionLog, log *logger.Logger) *TaskService {
	log = log.WithComponent("tasks")
	return &TaskService{
		taskRepo:    taskRepo,
		subtaskRepo: subtaskRepo,
		remote:      remote,
		writer:      &dualWriter{session: session, log: actionLog, logger: log},
		logger:      log,
	}
}

// CreateTask stores the task under a fresh id, then sends or queues the creation
func (s *TaskService) CreateTask(ctx context.Context, fields entities.TaskFields) (*entities.Task, WriteOutcome, error) {
	if err := entities.ValidateFields(fields); err != nil {
		return nil, WriteOutcome{}, fmt.Errorf("invalid task: %w", err)
	}

	task, err := s.taskRepo.Create(ctx, fields, uuid.NewString())
	if err != nil {
		s.logger.Errorw("Failed to store task", "error", err)
		return nil, WriteOutcome{}, err
	}

	outcome := s.writer.dispatch(ctx,
		func(token string) error {
			_, err := s.remote.CreateSection(ctx, token, task.ID, fields)
			return err
		},
		func() (entities.PendingAction, error) {
			return entities.NewCreateSectionAction(task.ID, fields)
		},
	)

	s.logger.Infow("Task created", "task_id", task.ID, "remote", outcome.Remote, "queued", outcome.Queued)
	return task, outcome, nil
}

// UpdateTask replaces all fields of a task. A task missing locally is
// neither sent nor queued.
func (s *TaskService) UpdateTask(ctx context.Context, id string, fields entities.TaskFields) (*entities.Task, WriteOutcome, error) {
	if err := entities.ValidateFields(fields); err != nil {
		return nil, WriteOutcome{}, fmt.Errorf("invalid task: %w", err)
	}

	task, err := s.taskRepo.Update(ctx, id, fields)
	if err != nil {
		s.logger.Errorw("Failed to update task", "task_id", id, "error", err)
		return nil, WriteOutcome{}, err
	}

	outcome := s.writer.dispatch(ctx,
		func(token string) error {
			_, err := s.remote.UpdateSection(ctx, token, id, fields)
			return err
		},
		func() (entities.PendingAction, error) {
			return entities.NewUpdateSectionAction(id, fields)
		},
	)

	return task, outcome, nil
}

// DeleteTask removes a task with its subtasks and notes and returns the
// number of tasks removed locally. Nothing is sent when no row matched.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (int64, WriteOutcome, error) {
	n, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Errorw("Failed to delete task", "task_id", id, "error", err)
		return 0, WriteOutcome{}, err
	}
	if n == 0 {
		return 0, WriteOutcome{}, nil
	}

	outcome := s.writer.dispatch(ctx,
		func(token string) error {
			return s.remote.DeleteSection(ctx, token, id)
		},
		func() (entities.PendingAction, error) {
			return entities.NewDeleteSectionAction(id), nil
		},
	)

	return n, outcome, nil
}

// GetTask returns a task from the local store
func (s *TaskService) GetTask(ctx context.Context, id string) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// ListTasks returns all tasks in storage order
func (s *TaskService) ListTasks(ctx context.Context) ([]*entities.Task, error) {
	return s.taskRepo.List(ctx)
}

// Subtasks exist only on the device: the remote contract has no subtask
// resources, so these calls never touch the network or the action log.

// CreateSubtask adds a subtask under taskID
func (s *TaskService) CreateSubtask(ctx context.Context, taskID string, fields entities.TaskFields) (*entities.Subtask, error) {
	if err := entities.ValidateFields(fields); err != nil {
		return nil, fmt.Errorf("invalid subtask: %w", err)
	}

	subtask, err := s.subtaskRepo.Create(ctx, taskID, fields, "")
	if err != nil {
		s.logger.Errorw("Failed to store subtask", "task_id", taskID, "error", err)
		return nil, err
	}
	return subtask, nil
}

// UpdateSubtask replaces all fields of a subtask and reports whether it existed
func (s *TaskService) UpdateSubtask(ctx context.Context, id string, fields entities.TaskFields) (bool, error) {
	if err := entities.ValidateFields(fields); err != nil {
		return false, fmt.Errorf("invalid subtask: %w", err)
	}
	return s.subtaskRepo.Update(ctx, id, fields)
}

// DeleteSubtask removes a subtask and reports whether it existed
func (s *TaskService) DeleteSubtask(ctx context.Context, id string) (bool, error) {
	return s.subtaskRepo.Delete(ctx, id)
}

// GetSubtask returns a subtask from the local store
func (s *TaskService) GetSubtask(ctx context.Context, id string) (*entities.Subtask, error) {
	return s.subtaskRepo.GetByID(ctx, id)
}

// ListSubtasks returns the subtasks of taskID in storage order
func (s *TaskService) ListSubtasks(ctx context.Context, taskID string) ([]*entities.Subtask, error) {
	return s.subtaskRepo.ListByTask(ctx, taskID)
}
