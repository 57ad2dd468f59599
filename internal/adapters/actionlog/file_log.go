package actionlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

const lockRetryDelay = 25 * time.Millisecond

// FileLog stores pending actions as a JSON array in a single file.
// Every mutation is a read-modify-write under an in-process mutex and an
// advisory file lock, so concurrent appenders never lose entries.
type FileLog struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	logger *logger.Logger

	replayLock *flock.Flock
	replayMu   sync.Mutex
	replaying  bool
}

// New creates a log backed by path. The file is created on first append.
func New(path string, log *logger.Logger) *FileLog {
	return &FileLog{
		path:       path,
		lock:       flock.New(path + ".lock"),
		logger:     log.WithComponent("actionlog"),
		replayLock: flock.New(path + ".sync.lock"),
	}
}

var _ ports.ActionLog = (*FileLog)(nil)

// Path returns the location of the log file
func (l *FileLog) Path() string {
	return l.path
}

// Append validates the action and adds it to the end of the log
func (l *FileLog) Append(ctx context.Context, action entities.PendingAction) error {
	if action.QueuedAt.IsZero() {
		action.QueuedAt = time.Now().UTC()
	}
	if err := action.Validate(); err != nil {
		return err
	}

	return l.withLock(ctx, func() error {
		actions, err := l.read()
		if err != nil {
			return err
		}
		actions = append(actions, action)
		if err := l.write(actions); err != nil {
			return err
		}
		l.logger.Debugw("Queued pending action",
			"operation", action.Operation,
			"section_id", action.SectionID,
			"pending", len(actions),
		)
		return nil
	})
}

// LockReplay takes the sync lock, a separate lock file that stays held from
// Drain to Remove so two runs never remove each other's entries. Appends are
// not blocked by it. A second holder, in this process or another, gets
// entities.ErrSyncInProgress.
func (l *FileLog) LockReplay(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.replayMu.Lock()
	defer l.replayMu.Unlock()

	if l.replaying {
		return nil, entities.ErrSyncInProgress
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, &entities.StorageError{Op: "prepare sync lock", Err: err}
	}

	locked, err := l.replayLock.TryLock()
	if err != nil {
		return nil, &entities.StorageError{Op: "acquire sync lock", Err: err}
	}
	if !locked {
		return nil, entities.ErrSyncInProgress
	}
	l.replaying = true

	return func() {
		l.replayMu.Lock()
		defer l.replayMu.Unlock()
		if err := l.replayLock.Unlock(); err != nil {
			l.logger.Warnw("Failed to release sync lock", "error", err)
		}
		l.replaying = false
	}, nil
}

// Drain returns every queued action in append order without removing them
func (l *FileLog) Drain(ctx context.Context) ([]entities.PendingAction, error) {
	var actions []entities.PendingAction
	err := l.withLock(ctx, func() error {
		var err error
		actions, err = l.read()
		return err
	})
	return actions, err
}

// Remove drops the first n entries. Entries appended after a Drain survive.
func (l *FileLog) Remove(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	return l.withLock(ctx, func() error {
		actions, err := l.read()
		if err != nil {
			return err
		}
		if n > len(actions) {
			n = len(actions)
		}
		return l.write(actions[n:])
	})
}

// Clear empties the log
func (l *FileLog) Clear(ctx context.Context) error {
	return l.withLock(ctx, func() error {
		return l.write([]entities.PendingAction{})
	})
}

// Len returns the number of queued actions
func (l *FileLog) Len(ctx context.Context) (int, error) {
	actions, err := l.Drain(ctx)
	return len(actions), err
}

func (l *FileLog) withLock(ctx context.Context, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return &entities.StorageError{Op: "prepare action log", Err: err}
	}

	locked, err := l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return &entities.StorageError{Op: "lock action log", Err: err}
	}
	if !locked {
		return &entities.StorageError{Op: "lock action log", Err: errors.New("lock not acquired")}
	}
	defer func() {
		if err := l.lock.Unlock(); err != nil {
			l.logger.Warnw("Failed to release action log lock", "error", err)
		}
	}()

	return fn()
}

// read loads the log; a missing file is an empty log
func (l *FileLog) read() ([]entities.PendingAction, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []entities.PendingAction{}, nil
	}
	if err != nil {
		return nil, &entities.StorageError{Op: "read action log", Err: err}
	}
	if len(data) == 0 {
		return []entities.PendingAction{}, nil
	}

	var actions []entities.PendingAction
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, &entities.ParseError{Source: l.path, Err: err}
	}
	if actions == nil {
		actions = []entities.PendingAction{}
	}
	return actions, nil
}

// write replaces the log atomically through a temp file in the same directory
func (l *FileLog) write(actions []entities.PendingAction) error {
	data, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode action log: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return &entities.StorageError{Op: "write action log", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &entities.StorageError{Op: "write action log", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &entities.StorageError{Op: "write action log", Err: err}
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return &entities.StorageError{Op: "replace action log", Err: err}
	}

	return nil
}
