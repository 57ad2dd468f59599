package entities

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPendingAction_Validate(t *testing.T) {
	fields := TaskFields{Title: "Groceries"}
	createSection, err := NewCreateSectionAction("", fields)
	if err != nil {
		t.Fatalf("NewCreateSectionAction() error = %v", err)
	}
	updateNote, err := NewUpdateNoteAction("s1", "n1", NoteFields{Title: "Shop"})
	if err != nil {
		t.Fatalf("NewUpdateNoteAction() error = %v", err)
	}

	tests := []struct {
		name    string
		action  PendingAction
		wantErr bool
	}{
		{name: "create section without id", action: createSection},
		{name: "update note", action: updateNote},
		{name: "delete section", action: NewDeleteSectionAction("s1")},
		{name: "delete note", action: NewDeleteNoteAction("s1", "n1")},
		{name: "unknown operation", action: PendingAction{Operation: "archiveSection", SectionID: "s1"}, wantErr: true},
		{name: "update section missing id", action: PendingAction{Operation: OpUpdateSection, Payload: json.RawMessage(`{"title":"x"}`)}, wantErr: true},
		{name: "delete note missing note id", action: PendingAction{Operation: OpDeleteNote, SectionID: "s1"}, wantErr: true},
		{name: "create note missing payload", action: PendingAction{Operation: OpCreateNote, SectionID: "s1"}, wantErr: true},
		{name: "payload without title", action: PendingAction{Operation: OpCreateSection, Payload: json.RawMessage(`{"priority":2}`)}, wantErr: true},
		{name: "payload not an object", action: PendingAction{Operation: OpCreateSection, Payload: json.RawMessage(`[1]`)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAction) {
				t.Fatalf("Validate() error = %v, want ErrInvalidAction", err)
			}
		})
	}
}

func TestPendingAction_JSONKeys(t *testing.T) {
	a, err := NewCreateNoteAction("s1", "n1", NoteFields{Title: "Visit"})
	if err != nil {
		t.Fatalf("NewCreateNoteAction() error = %v", err)
	}

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"operation", "id", "sectionId", "payload", "queuedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	if _, ok := m["noteId"]; ok {
		t.Errorf("unexpected noteId in %s", raw)
	}

	fields, err := a.NoteFields()
	if err != nil || fields.Title != "Visit" {
		t.Fatalf("NoteFields() = %+v, %v", fields, err)
	}
}

func TestMapData_ValueAndScan(t *testing.T) {
	empty := MapData{}
	v, err := empty.Value()
	if err != nil || v != nil {
		t.Fatalf("empty Value() = %v, %v; want nil", v, err)
	}

	m := MapData{
		Address:   "Main St 1",
		Location:  &Coordinate{Latitude: 52.5, Longitude: 13.4},
		MapRegion: &Region{Latitude: 52.5, Longitude: 13.4, LatitudeDelta: 0.01, LongitudeDelta: 0.02},
	}
	v, err = m.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var got MapData
	if err := got.Scan(v); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got.Address != m.Address || got.Location == nil || got.Location.Longitude != 13.4 || got.MapRegion.LongitudeDelta != 0.02 {
		t.Fatalf("Scan() = %+v", got)
	}

	if err := got.Scan(nil); err != nil || !got.IsZero() {
		t.Fatalf("Scan(nil) = %+v, %v", got, err)
	}
	if err := got.Scan(42); err == nil {
		t.Fatal("Scan(int) expected error")
	}
}

func TestFlatFromSubtask(t *testing.T) {
	s := &Subtask{ID: "c1", SectionID: "p1", TaskFields: TaskFields{Title: "child"}}
	item := FlatFromSubtask(s)
	if item.Type != ItemTypeSubtask || item.ParentID == nil || *item.ParentID != "p1" {
		t.Fatalf("FlatFromSubtask() = %+v", item)
	}
	if FlatFromTask(&Task{ID: "p1"}).ParentID != nil {
		t.Fatal("task item must not carry a parent")
	}
}

func TestNetworkError(t *testing.T) {
	err := error(&NetworkError{Op: "create section", StatusCode: 409, Body: "exists"})
	if !HasStatus(err, 409) || HasStatus(err, 404) {
		t.Fatalf("HasStatus() mismatch for %v", err)
	}
	if (&NetworkError{Op: "x", Err: errors.New("dial")}).Transient() != true {
		t.Fatal("transport failure should be transient")
	}
	if (&NetworkError{Op: "x", StatusCode: 400}).Transient() {
		t.Fatal("400 should not be transient")
	}
	if !errors.Is(ErrTaskNotFound, ErrNotFound) {
		t.Fatal("ErrTaskNotFound should wrap ErrNotFound")
	}
}
