package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ActionOperation names a deferred remote mutation
type ActionOperation string

const (
	OpCreateSection ActionOperation = "createSection"
	OpUpdateSection ActionOperation = "updateSection"
	OpDeleteSection ActionOperation = "deleteSection"
	OpCreateNote    ActionOperation = "createNote"
	OpUpdateNote    ActionOperation = "updateNote"
	OpDeleteNote    ActionOperation = "deleteNote"
)

// Known reports whether op is one of the operations the remote API understands
func (op ActionOperation) Known() bool {
	switch op {
	case OpCreateSection, OpUpdateSection, OpDeleteSection,
		OpCreateNote, OpUpdateNote, OpDeleteNote:
		return true
	}
	return false
}

// IsCreate reports whether op creates a remote resource
func (op ActionOperation) IsCreate() bool {
	return op == OpCreateSection || op == OpCreateNote
}

// IsDelete reports whether op removes a remote resource
func (op ActionOperation) IsDelete() bool {
	return op == OpDeleteSection || op == OpDeleteNote
}

// PendingAction is a remote mutation recorded while no session was available.
// Payload holds TaskFields for section operations and NoteFields for note operations.
type PendingAction struct {
	Operation ActionOperation `json:"operation" validate:"required,oneof=createNote updateNote deleteNote createSection updateSection deleteSection"`
	ID        string          `json:"id,omitempty"`
	SectionID string          `json:"sectionId,omitempty"`
	NoteID    string          `json:"noteId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	QueuedAt  time.Time       `json:"queuedAt"`
}

var validate = validator.New()

func init() {
	validate.RegisterStructValidation(pendingActionStructLevel, PendingAction{})
}

// pendingActionStructLevel enforces the fields each operation requires
func pendingActionStructLevel(sl validator.StructLevel) {
	a := sl.Current().Interface().(PendingAction)

	needSection := a.Operation != OpCreateSection
	needNote := a.Operation == OpUpdateNote || a.Operation == OpDeleteNote
	needPayload := !a.Operation.IsDelete()

	if needSection && a.SectionID == "" {
		sl.ReportError(a.SectionID, "SectionID", "sectionId", "required", "")
	}
	if needNote && a.NoteID == "" {
		sl.ReportError(a.NoteID, "NoteID", "noteId", "required", "")
	}
	if needPayload && len(a.Payload) == 0 {
		sl.ReportError(a.Payload, "Payload", "payload", "required", "")
	}
}

// Validate checks the operation tag and its per-operation required fields
func (a PendingAction) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	if len(a.Payload) == 0 {
		return nil
	}
	var title struct {
		Title string `json:"title" validate:"required"`
	}
	if err := json.Unmarshal(a.Payload, &title); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrInvalidAction, err)
	}
	if err := validate.Struct(title); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrInvalidAction, err)
	}
	return nil
}

// ValidateFields checks the struct tags of task or note fields
func ValidateFields(fields interface{}) error {
	return validate.Struct(fields)
}

// TaskFields decodes the payload of a section operation
func (a PendingAction) TaskFields() (TaskFields, error) {
	var f TaskFields
	if err := json.Unmarshal(a.Payload, &f); err != nil {
		return f, &ParseError{Source: string(a.Operation) + " payload", Err: err}
	}
	return f, nil
}

// NoteFields decodes the payload of a note operation
func (a PendingAction) NoteFields() (NoteFields, error) {
	var f NoteFields
	if err := json.Unmarshal(a.Payload, &f); err != nil {
		return f, &ParseError{Source: string(a.Operation) + " payload", Err: err}
	}
	return f, nil
}

func newAction(op ActionOperation, payload interface{}) (PendingAction, error) {
	a := PendingAction{Operation: op, QueuedAt: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return a, fmt.Errorf("encode %s payload: %w", op, err)
		}
		a.Payload = raw
	}
	return a, nil
}

// NewCreateSectionAction records a task creation. id may be empty.
func NewCreateSectionAction(id string, fields TaskFields) (PendingAction, error) {
	a, err := newAction(OpCreateSection, fields)
	a.ID = id
	return a, err
}

// NewUpdateSectionAction records a full replace of a task
func NewUpdateSectionAction(sectionID string, fields TaskFields) (PendingAction, error) {
	a, err := newAction(OpUpdateSection, fields)
	a.SectionID = sectionID
	return a, err
}

// NewDeleteSectionAction records a task deletion
func NewDeleteSectionAction(sectionID string) PendingAction {
	a, _ := newAction(OpDeleteSection, nil)
	a.SectionID = sectionID
	return a
}

// NewCreateNoteAction records a note creation. id may be empty.
func NewCreateNoteAction(sectionID, id string, fields NoteFields) (PendingAction, error) {
	a, err := newAction(OpCreateNote, fields)
	a.SectionID = sectionID
	a.ID = id
	return a, err
}

// NewUpdateNoteAction records a full replace of a note
func NewUpdateNoteAction(sectionID, noteID string, fields NoteFields) (PendingAction, error) {
	a, err := newAction(OpUpdateNote, fields)
	a.SectionID = sectionID
	a.NoteID = noteID
	return a, err
}

// NewDeleteNoteAction records a note deletion
func NewDeleteNoteAction(sectionID, noteID string) PendingAction {
	a, _ := newAction(OpDeleteNote, nil)
	a.SectionID = sectionID
	a.NoteID = noteID
	return a
}
