package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/taskmaster/tasknote/internal/application/session"
	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

var (
	errUnknownOperation = errors.New("unknown operation")
	errMalformedAction  = errors.New("malformed action")
)

// ActionFailure describes an action that stopped a sync run or was rejected
type ActionFailure struct {
	Index  int
	Action entities.PendingAction
	Err    error
}

func (f *ActionFailure) Error() string {
	return fmt.Sprintf("replay %s (#%d): %v", f.Action.Operation, f.Index, f.Err)
}

func (f *ActionFailure) Unwrap() error { return f.Err }

// SyncResult summarizes one reconciler run
type SyncResult struct {
	// Skipped is true when no usable token was supplied and nothing was done
	Skipped bool
	// InProgress is true when another run held the sync lock and nothing was done
	InProgress bool
	// Total is the number of actions read from the log
	Total int
	// Applied counts actions the remote accepted
	Applied int
	// AlreadyApplied counts replays whose effect was already present remotely
	AlreadyApplied int
	// Ignored counts unknown or malformed actions that were dropped
	Ignored int
	// Rejected lists actions the remote refused with a client error. They are
	// moved to the rejected log and no longer block the queue.
	Rejected []ActionFailure
	// Failure is set when the run stopped early; the log is then left untouched
	Failure *ActionFailure
	// Remaining is the number of actions in the log after the run
	Remaining int
}

// SyncService replays the pending-action log against the remote API
type SyncService struct {
	log      ports.ActionLog
	rejected ports.ActionLog
	remote   ports.RemoteAPI
	metrics  *SyncMetrics
	logger   *logger.Logger
	now      func() time.Time
	mu       sync.Mutex
}

// NewSyncService creates a new reconciler. Actions the remote rejects are
// appended to rejected. metrics and rejected may be nil.
func NewSyncService(actionLog, rejected ports.ActionLog, remote ports.RemoteAPI, metrics *SyncMetrics, log *logger.Logger) *SyncService {
	return &SyncService{
		log:      actionLog,
		rejected: rejected,
		remote:   remote,
		metrics:  metrics,
		logger:   log.WithComponent("sync"),
		now:      time.Now,
	}
}

// Sync replays every queued action in append order. It returns immediately
// without touching the log when token is empty or expired, or when another
// run holds the sync lock. On the first failing action the run stops and the
// whole log is kept; replays are idempotent by id, so the next run resumes
// safely. Actions the remote rejects with a client error are moved to the
// rejected log and the run continues. Only after a full pass are the replayed
// entries removed.
func (s *SyncService) Sync(ctx context.Context, token string) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !session.TokenUsable(token, s.now()) {
		s.logger.Debugw("Skipping sync without a usable session")
		s.metrics.observeRun("skipped")
		return &SyncResult{Skipped: true}, nil
	}

	release, err := s.log.LockReplay(ctx)
	if errors.Is(err, entities.ErrSyncInProgress) {
		s.logger.Infow("Another sync is in progress, skipping")
		s.metrics.observeRun("busy")
		return &SyncResult{InProgress: true}, nil
	}
	if err != nil {
		s.metrics.observeRun("error")
		return nil, fmt.Errorf("lock action log: %w", err)
	}
	defer release()

	actions, err := s.log.Drain(ctx)
	if err != nil {
		s.metrics.observeRun("error")
		return nil, fmt.Errorf("drain action log: %w", err)
	}

	result := &SyncResult{Total: len(actions)}
	if len(actions) == 0 {
		s.metrics.observeRun("empty")
		s.metrics.setPending(0)
		return result, nil
	}

	s.logger.Infow("Replaying pending actions", "count", len(actions))

	for i, action := range actions {
		err := s.replay(ctx, token, action)
		switch {
		case err == nil:
			result.Applied++
			s.metrics.observeAction(action.Operation, "applied")
			continue

		case alreadyApplied(action, err):
			result.AlreadyApplied++
			s.metrics.observeAction(action.Operation, "already_applied")
			s.logger.Infow("Action already applied remotely", "operation", action.Operation, "index", i)
			continue

		case errors.Is(err, errUnknownOperation), errors.Is(err, errMalformedAction):
			result.Ignored++
			s.metrics.observeAction(action.Operation, "ignored")
			s.logger.Warnw("Dropping pending action", "operation", action.Operation, "index", i, "error", err)
			continue

		case rejected(err):
			qErr := s.quarantine(ctx, action)
			if qErr == nil {
				result.Rejected = append(result.Rejected, ActionFailure{Index: i, Action: action, Err: err})
				s.metrics.observeAction(action.Operation, "rejected")
				s.logger.Warnw("Remote rejected pending action, moved to rejected log",
					"operation", action.Operation,
					"index", i,
					"error", err,
				)
				continue
			}
			err = fmt.Errorf("%w (quarantine failed: %v)", err, qErr)
		}

		result.Failure = &ActionFailure{Index: i, Action: action, Err: err}
		result.Remaining = len(actions)
		s.metrics.observeAction(action.Operation, "failed")
		s.metrics.observeRun("failed")
		s.metrics.setPending(len(actions))
		s.logger.Errorw("Sync aborted, pending actions kept",
			"operation", action.Operation,
			"index", i,
			"pending", len(actions),
			"error", err,
		)
		return result, result.Failure
	}

	if err := s.log.Remove(ctx, len(actions)); err != nil {
		s.metrics.observeRun("error")
		return result, fmt.Errorf("trim action log: %w", err)
	}

	if rest, err := s.log.Len(ctx); err == nil {
		result.Remaining = rest
	}

	s.metrics.observeRun("success")
	s.metrics.setPending(result.Remaining)
	s.logger.Infow("Sync complete",
		"applied", result.Applied,
		"already_applied", result.AlreadyApplied,
		"ignored", result.Ignored,
		"rejected", len(result.Rejected),
		"remaining", result.Remaining,
	)

	return result, nil
}

// quarantine keeps a rejected action for inspection. Without a rejected log
// the action is only reported.
func (s *SyncService) quarantine(ctx context.Context, action entities.PendingAction) error {
	if s.rejected == nil {
		return nil
	}
	err := s.rejected.Append(ctx, action)
	if errors.Is(err, entities.ErrInvalidAction) {
		s.logger.Warnw("Rejected action is invalid, not kept", "operation", action.Operation, "error", err)
		return nil
	}
	return err
}

func rejected(err error) bool {
	var netErr *entities.NetworkError
	return errors.As(err, &netErr) && netErr.Rejected()
}

// alreadyApplied recognizes replays of creates and deletes that the remote
// has already seen
func alreadyApplied(action entities.PendingAction, err error) bool {
	if action.Operation.IsCreate() && entities.HasStatus(err, http.StatusConflict) {
		return true
	}
	return action.Operation.IsDelete() && entities.HasStatus(err, http.StatusNotFound)
}

func (s *SyncService) replay(ctx context.Context, token string, action entities.PendingAction) error {
	var err error

	switch action.Operation {
	case entities.OpCreateSection:
		fields, decodeErr := action.TaskFields()
		if decodeErr != nil {
			return fmt.Errorf("%w: %v", errMalformedAction, decodeErr)
		}
		_, err = s.remote.CreateSection(ctx, token, action.ID, fields)

	case entities.OpUpdateSection:
		fields, decodeErr := action.TaskFields()
		if decodeErr != nil {
			return fmt.Errorf("%w: %v", errMalformedAction, decodeErr)
		}
		_, err = s.remote.UpdateSection(ctx, token, action.SectionID, fields)

	case entities.OpDeleteSection:
		err = s.remote.DeleteSection(ctx, token, action.SectionID)

	case entities.OpCreateNote:
		fields, decodeErr := action.NoteFields()
		if decodeErr != nil {
			return fmt.Errorf("%w: %v", errMalformedAction, decodeErr)
		}
		_, err = s.remote.CreateNote(ctx, token, action.SectionID, action.ID, fields)

	case entities.OpUpdateNote:
		fields, decodeErr := action.NoteFields()
		if decodeErr != nil {
			return fmt.Errorf("%w: %v", errMalformedAction, decodeErr)
		}
		_, err = s.remote.UpdateNote(ctx, token, action.SectionID, action.NoteID, fields)

	case entities.OpDeleteNote:
		err = s.remote.DeleteNote(ctx, token, action.SectionID, action.NoteID)

	default:
		return fmt.Errorf("%w %q", errUnknownOperation, action.Operation)
	}

	// A 2xx with an unreadable body still means the remote accepted the call
	var parseErr *entities.ParseError
	if errors.As(err, &parseErr) {
		s.logger.Warnw("Ignoring unreadable remote response", "operation", action.Operation, "error", err)
		return nil
	}

	return err
}
