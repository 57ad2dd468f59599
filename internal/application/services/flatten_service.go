package services

import (
	"context"
	"strings"
	"time"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// datetimeLayouts are tried in order when reading a stored deadline
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FlattenService projects the task/subtask hierarchy into one ordered sequence
type FlattenService struct {
	taskRepo    ports.TaskRepository
	subtaskRepo ports.SubtaskRepository
	location    *time.Location
	logger      *logger.Logger
}

// NewFlattenService creates a new flatten service. loc defines the calendar
// used for day comparisons; nil means time.Local.
func NewFlattenService(taskRepo ports.TaskRepository, subtaskRepo ports.SubtaskRepository, loc *time.Location, log *logger.Logger) *FlattenService {
	if loc == nil {
		loc = time.Local
	}
	return &FlattenService{
		taskRepo:    taskRepo,
		subtaskRepo: subtaskRepo,
		location:    loc,
		logger:      log.WithComponent("flatten"),
	}
}

// FlatList returns every task in storage order, each immediately followed by its subtasks
func (s *FlattenService) FlatList(ctx context.Context) ([]entities.FlatItem, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	subtasks, err := s.subtaskRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	children := make(map[string][]*entities.Subtask, len(tasks))
	for _, sub := range subtasks {
		children[sub.SectionID] = append(children[sub.SectionID], sub)
	}

	items := make([]entities.FlatItem, 0, len(tasks)+len(subtasks))
	for _, task := range tasks {
		items = append(items, entities.FlatFromTask(task))
		for _, sub := range children[task.ID] {
			items = append(items, entities.FlatFromSubtask(sub))
		}
	}

	return items, nil
}

// TasksOnDate returns the tasks whose deadline falls on the same calendar day
// as date. Subtasks and tasks without a parseable deadline are never included.
func (s *FlattenService) TasksOnDate(ctx context.Context, date time.Time) ([]entities.FlatItem, error) {
	items, err := s.FlatList(ctx)
	if err != nil {
		return nil, err
	}

	day := date.In(s.location)
	y, m, d := day.Date()

	result := make([]entities.FlatItem, 0)
	for _, item := range items {
		if item.Type != entities.ItemTypeTask || item.Datetime == nil {
			continue
		}
		at, ok := ParseDatetime(*item.Datetime, s.location)
		if !ok {
			s.logger.Debugw("Skipping task with unparseable datetime", "task_id", item.ID, "datetime", *item.Datetime)
			continue
		}
		iy, im, id := at.Date()
		if iy == y && im == m && id == d {
			result = append(result, item)
		}
	}

	return result, nil
}

// Search applies q to the flat list
func (s *FlattenService) Search(ctx context.Context, q Query) ([]entities.FlatItem, error) {
	items, err := s.FlatList(ctx)
	if err != nil {
		return nil, err
	}
	return q.Apply(items, s.location), nil
}

// Location returns the calendar used for day comparisons
func (s *FlattenService) Location() *time.Location {
	return s.location
}

// ParseDatetime reads a stored deadline and converts it to loc. Values
// without a zone are interpreted in loc.
func ParseDatetime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), true
	}
	for _, layout := range datetimeLayouts[1:] {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
