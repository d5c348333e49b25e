package store

import (
	"errors"
	"fmt"
)

var (
	ErrBackend  = errors.New("backend error")
	ErrNotFound = errors.New("record not found")
)

// BackendError wraps any failure returned by the database driver.
type BackendError struct {
	Op         string
	Collection string
	Err        error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

type NotFoundError struct {
	Collection string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collection, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
