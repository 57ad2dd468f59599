package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

//go:embed schema/export.schema.json
var exportSchemaJSON []byte

const exportSchemaURL = "tasknote://export.schema.json"

// ImportReport summarizes a bulk import
type ImportReport struct {
	TasksDeleted     int64
	SubtasksDeleted  int64
	TasksImported    int
	SubtasksImported int
	// Skipped counts subtasks whose owning task could not be resolved
	Skipped int
	// Failed counts rows the store rejected
	Failed int
}

// BackupService exports the flat list to a JSON file and restores it
type BackupService struct {
	taskRepo    ports.TaskRepository
	subtaskRepo ports.SubtaskRepository
	flatten     *FlattenService
	sharer      ports.Sharer
	exportPath  string
	schema      *jsonschema.Schema
	logger      *logger.Logger
}

// NewBackupService creates a new backup service writing to exportPath
func NewBackupService(taskRepo ports.TaskRepository, subtaskRepo ports.SubtaskRepository, flatten *FlattenService, sharer ports.Sharer, exportPath string, log *logger.Logger) (*BackupService, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(exportSchemaURL, bytes.NewReader(exportSchemaJSON)); err != nil {
		return nil, fmt.Errorf("load export schema: %w", err)
	}
	schema, err := compiler.Compile(exportSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile export schema: %w", err)
	}

	return &BackupService{
		taskRepo:    taskRepo,
		subtaskRepo: subtaskRepo,
		flatten:     flatten,
		sharer:      sharer,
		exportPath:  exportPath,
		schema:      schema,
		logger:      log.WithComponent("backup"),
	}, nil
}

// ExportPath returns the fixed export location
func (s *BackupService) ExportPath() string {
	return s.exportPath
}

// ExportAll writes the flat list as pretty-printed JSON to the export path
// and hands the file to the sharer
func (s *BackupService) ExportAll(ctx context.Context) (string, error) {
	items, err := s.flatten.FlatList(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.exportPath), 0o755); err != nil {
		return "", &entities.StorageError{Op: "create export directory", Err: err}
	}
	if err := os.WriteFile(s.exportPath, data, 0o644); err != nil {
		return "", &entities.StorageError{Op: "write export", Err: err}
	}

	s.logger.Infow("Exported flat list", "path", s.exportPath, "items", len(items))

	if s.sharer != nil {
		if err := s.sharer.Share(ctx, s.exportPath); err != nil {
			return s.exportPath, fmt.Errorf("share export: %w", err)
		}
	}

	return s.exportPath, nil
}

// ImportFile reads a document from path and imports it
func (s *BackupService) ImportFile(ctx context.Context, path string) (*ImportReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &entities.StorageError{Op: "read import", Err: err}
	}
	return s.ImportAll(ctx, data)
}

// ImportAll replaces all tasks and subtasks with the document content.
// The document is fully parsed and validated before anything is deleted.
// Notes belong to tasks and are removed with them.
func (s *BackupService) ImportAll(ctx context.Context, document []byte) (*ImportReport, error) {
	items, err := s.parse(document)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}

	report.SubtasksDeleted, err = s.subtaskRepo.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("clear subtasks: %w", err)
	}
	report.TasksDeleted, err = s.taskRepo.DeleteAll(ctx)
	if err != nil {
		return report, fmt.Errorf("clear tasks: %w", err)
	}

	imported := make(map[string]bool)
	for _, item := range items {
		if item.Type != entities.ItemTypeTask {
			continue
		}
		if _, err := s.taskRepo.Create(ctx, item.TaskFields, item.ID); err != nil {
			report.Failed++
			s.logger.Warnw("Failed to import task", "task_id", item.ID, "error", err)
			continue
		}
		imported[item.ID] = true
		report.TasksImported++
	}

	for _, item := range items {
		if item.Type != entities.ItemTypeSubtask {
			continue
		}
		owner := subtaskOwner(item)
		if owner == "" || !imported[owner] {
			report.Skipped++
			s.logger.Warnw("Skipping subtask without a known parent", "subtask_id", item.ID, "parent_id", owner)
			continue
		}
		if _, err := s.subtaskRepo.Create(ctx, owner, item.TaskFields, item.ID); err != nil {
			report.Failed++
			s.logger.Warnw("Failed to import subtask", "subtask_id", item.ID, "error", err)
			continue
		}
		report.SubtasksImported++
	}

	s.logger.Infow("Import complete",
		"tasks", report.TasksImported,
		"subtasks", report.SubtasksImported,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)

	return report, nil
}

// subtaskOwner prefers section_id and falls back to the flat-list parentId
func subtaskOwner(item entities.FlatItem) string {
	if item.SectionID != nil && *item.SectionID != "" {
		return *item.SectionID
	}
	if item.ParentID != nil {
		return *item.ParentID
	}
	return ""
}

func (s *BackupService) parse(document []byte) ([]entities.FlatItem, error) {
	var raw interface{}
	if err := json.Unmarshal(document, &raw); err != nil {
		return nil, &entities.ParseError{Source: "import document", Err: err}
	}

	if err := s.schema.Validate(raw); err != nil {
		return nil, &entities.ParseError{Source: "import document", Err: schemaError(err)}
	}

	var items []entities.FlatItem
	if err := json.Unmarshal(document, &items); err != nil {
		return nil, &entities.ParseError{Source: "import document", Err: err}
	}
	return items, nil
}

// schemaError flattens the validation tree into one message per failing location
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	var msgs []string
	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.InstanceLocation, e.Message))
			return
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(ve)

	return errors.New(strings.Join(msgs, "; "))
}
