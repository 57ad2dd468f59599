package services

import (
	"context"
	"errors"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// WriteOutcome reports what happened on the remote side of a dual write.
// The local write has always been attempted when an outcome is returned.
type WriteOutcome struct {
	// Remote is true when the mutation was sent to the remote API successfully
	Remote bool
	// Queued is true when the mutation was appended to the pending-action log
	Queued bool
	// RemoteErr holds the failure of the remote call, if any
	RemoteErr error
	// QueueErr holds the failure of the log append, if any
	QueueErr error
}

// dualWriter routes a mutation to the remote API when a session is available
// and to the pending-action log otherwise
type dualWriter struct {
	session ports.SessionProvider
	log     ports.ActionLog
	logger  *logger.Logger
}

// dispatch runs remote when the session is valid and nothing is waiting in
// the log; otherwise the mutation is queued behind the pending actions so the
// remote sees writes in local order. A transient remote failure also falls
// back to queueing. Callers dispatch only after the local write succeeded.
func (w *dualWriter) dispatch(ctx context.Context, remote func(token string) error, queue func() (entities.PendingAction, error)) WriteOutcome {
	var outcome WriteOutcome

	if w.session.Valid() && w.logEmpty(ctx) {
		err := remote(w.session.Token())
		if err == nil {
			outcome.Remote = true
			return outcome
		}

		outcome.RemoteErr = err
		w.logger.Warnw("Remote write failed", "error", err)

		var netErr *entities.NetworkError
		if !errors.As(err, &netErr) || !netErr.Transient() {
			return outcome
		}
	}

	action, err := queue()
	if err == nil {
		err = w.log.Append(ctx, action)
	}
	if err != nil {
		outcome.QueueErr = err
		w.logger.Errorw("Failed to queue pending action", "error", err)
		return outcome
	}

	outcome.Queued = true
	return outcome
}

// logEmpty reports whether no action is waiting for replay. An unreadable
// log counts as non-empty.
func (w *dualWriter) logEmpty(ctx context.Context) bool {
	n, err := w.log.Len(ctx)
	if err != nil {
		w.logger.Warnw("Failed to read pending actions, queueing write", "error", err)
		return false
	}
	if n > 0 {
		w.logger.Debugw("Queueing write behind pending actions", "pending", n)
		return false
	}
	return true
}
