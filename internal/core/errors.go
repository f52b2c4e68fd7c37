package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for resource operations.
var (
	// ErrNotFound indicates the referenced resource id does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidResource indicates a create request with an empty url, login or password.
	ErrInvalidResource = errors.New("invalid resource: url, login and password are required")

	// ErrEncoding indicates an import payload that is not valid UTF-8.
	ErrEncoding = errors.New("encoding error")

	// ErrStorage indicates the underlying store is unavailable or a write failed.
	ErrStorage = errors.New("storage failure")
)

// EncodingError reports the first invalid byte of an import payload.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error: invalid UTF-8 at byte %d", e.Offset)
}

func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// StorageError wraps a failure of the underlying store.
// It matches ErrStorage with errors.Is and exposes the cause via Unwrap.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err as a storage failure of op. Returns nil if err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
