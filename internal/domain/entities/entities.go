package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ItemType tags a flat item as a top-level task or a nested subtask
type ItemType string

const (
	ItemTypeTask    ItemType = "task"
	ItemTypeSubtask ItemType = "subtask"
)

// TaskFields holds the editable attributes shared by tasks and subtasks.
// Optional fields are nil when absent, which is distinct from zero.
type TaskFields struct {
	Title       string  `json:"title" db:"title" validate:"required"`
	Description *string `json:"description" db:"description"`
	Datetime    *string `json:"datetime" db:"datetime"`
	Priority    *int    `json:"priority" db:"priority"`
	Complexity  *int    `json:"complexity" db:"complexity"`
}

// Task represents a top-level task (a "section" on the remote API)
type Task struct {
	ID string `json:"id" db:"id"`
	TaskFields
}

// Subtask represents a task nested one level below a Task
type Subtask struct {
	ID        string `json:"id" db:"id"`
	SectionID string `json:"section_id" db:"section_id"`
	TaskFields
}

// NoteFields holds the editable attributes of a note
type NoteFields struct {
	Title    string   `json:"title" db:"title" validate:"required"`
	Subtitle *string  `json:"subtitle" db:"subtitle"`
	Content  *string  `json:"content" db:"content"`
	Map      *MapData `json:"map" db:"map"`
}

// Note is a free-form note owned by a Task
type Note struct {
	ID        string `json:"id" db:"id"`
	SectionID string `json:"section_id" db:"section_id"`
	NoteFields
}

// Coordinate is a point on the map
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Region is the visible map viewport around a point
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// MapData is the location attached to a note. It is persisted as JSON text.
type MapData struct {
	Address   string      `json:"address,omitempty"`
	Location  *Coordinate `json:"location,omitempty"`
	MapRegion *Region     `json:"mapRegion,omitempty"`
}

// IsZero reports whether the map carries no information at all
func (m MapData) IsZero() bool {
	return m.Address == "" && m.Location == nil && m.MapRegion == nil
}

// Value stores an empty map as NULL
func (m MapData) Value() (driver.Value, error) {
	if m.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode map: %w", err)
	}
	return string(b), nil
}

// Scan decodes the JSON text column
func (m *MapData) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = MapData{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan map: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*m = MapData{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// FlatItem is the single-sequence projection of tasks and their subtasks.
// ParentID and SectionID are set for subtasks only.
type FlatItem struct {
	ID        string   `json:"id"`
	Type      ItemType `json:"type"`
	ParentID  *string  `json:"parentId,omitempty"`
	SectionID *string  `json:"section_id,omitempty"`
	TaskFields
}

// FlatFromTask projects a task into a flat item
func FlatFromTask(t *Task) FlatItem {
	return FlatItem{ID: t.ID, Type: ItemTypeTask, TaskFields: t.TaskFields}
}

// FlatFromSubtask projects a subtask into a flat item
func FlatFromSubtask(s *Subtask) FlatItem {
	parent := s.SectionID
	section := s.SectionID
	return FlatItem{
		ID:         s.ID,
		Type:       ItemTypeSubtask,
		ParentID:   &parent,
		SectionID:  &section,
		TaskFields: s.TaskFields,
	}
}

// User is an account on the development remote server
type User struct {
	ID           string    `json:"id" db:"id"`
	Nickname     string    `json:"nickname" db:"nickname"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}
