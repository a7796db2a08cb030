package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an identifier does not match a stored row.
	ErrNotFound = errors.New("not found")
	// ErrStorageFailure matches every error raised by the storage layer
	// itself (I/O, serialization, database errors).
	ErrStorageFailure = errors.New("storage failure")

	errNotLoaded = errors.New("storage not loaded")
)

// Error wraps a storage-layer failure with the operation that triggered it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrStorageFailure
}

// Failure wraps err as a storage failure. Errors that already carry
// ErrNotFound or ErrStorageFailure are returned unchanged.
func Failure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorageFailure) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// NotFound builds an ErrNotFound error naming the entity and identifier.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %w: %s", entity, ErrNotFound, id)
}

// NotLoaded is returned by backends used before Init or Load.
func NotLoaded(op string) error {
	return &Error{Op: op, Err: errNotLoaded}
}
