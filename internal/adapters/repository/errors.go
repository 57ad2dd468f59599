package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/taskmaster/tasknote/internal/domain/entities"
)

// isDuplicateKey reports a primary key or unique constraint violation
func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// isMissingParent reports a foreign key violation
func isMissingParent(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// storageError classifies a driver error. Sentinel errors pass through unchanged.
func storageError(op string, err error) error {
	if errors.Is(err, entities.ErrNotFound) || errors.Is(err, entities.ErrAlreadyExists) {
		return err
	}
	return &entities.StorageError{Op: op, Err: err}
}
