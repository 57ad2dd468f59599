package entities

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidAction = errors.New("invalid pending action")
	ErrUnauthorized  = errors.New("unauthorized")

	ErrSyncInProgress = errors.New("another sync is in progress")

	ErrTaskNotFound    = fmt.Errorf("task %w", ErrNotFound)
	ErrSubtaskNotFound = fmt.Errorf("subtask %w", ErrNotFound)
	ErrNoteNotFound    = fmt.Errorf("note %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrTaskExists = fmt.Errorf("task %w", ErrAlreadyExists)
	ErrNoteExists = fmt.Errorf("note %w", ErrAlreadyExists)
	ErrUserExists = fmt.Errorf("user %w", ErrAlreadyExists)
)

// StorageError reports a failure of the local store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NetworkError reports a failed call to the remote API.
// StatusCode is 0 when the request never produced a response.
type NetworkError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Transient reports whether the remote was unreachable rather than rejecting the call
func (e *NetworkError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
}

// Rejected reports a client error that will repeat for the same request.
// Auth, timeout and throttling statuses are not rejections.
func (e *NetworkError) Rejected() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

// ParseError reports a malformed document or log file
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// HasStatus reports whether err is a NetworkError carrying the given HTTP status
func HasStatus(err error, status int) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.StatusCode == status
}
