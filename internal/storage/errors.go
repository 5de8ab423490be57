package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrUnknownSortKey is returned for a Sort the backend cannot order by.
var ErrUnknownSortKey = errors.New("unknown sort key")

// FetchError reports a failed retrieval (corrupted store, schema mismatch, ...).
type FetchError struct {
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SaveError reports a failed commit.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save changes: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is, or wraps, a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsSaveError reports whether err is, or wraps, a *SaveError.
func IsSaveError(err error) bool {
	var se *SaveError
	return errors.As(err, &se)
}
