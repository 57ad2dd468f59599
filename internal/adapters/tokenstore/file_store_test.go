package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "cfg", "session"))

	token, err := store.Load()
	if err != nil || token != "" {
		t.Fatalf("Load() on empty store = %q, %v", token, err)
	}

	if err := store.Save("abc.def.ghi"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	token, err = store.Load()
	if err != nil || token != "abc.def.ghi" {
		t.Fatalf("Load() = %q, %v", token, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
	if token, _ := store.Load(); token != "" {
		t.Fatalf("Load() after Clear = %q", token)
	}
}
