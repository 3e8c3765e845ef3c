package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user or item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for empty keys, non-finite values and malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupported is returned by read-only models for mutations and by iterators for Remove.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrBackend matches every *BackendError.
	ErrBackend = errors.New("backend error")
	// ErrExhausted is returned by Next once an iterator has nothing left to produce.
	ErrExhausted = errors.New("iterator exhausted")
)

// BackendError wraps an I/O, connectivity or query failure of a backing store.
//
// The original cause can be accessed via errors.Unwrap.
type BackendError struct {
	// Op names the operation that failed, e.g. "get user".
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports ErrBackend as a match so callers can test with errors.Is.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// NewBackendError wraps err unless it is nil or already classified.
func NewBackendError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrBackend) {
		return err
	}
	return &BackendError{Op: op, Err: err}
}

// ParseError identifies a malformed line or record in an input source.
type ParseError struct {
	// Source is the file or object name.
	Source string
	// Line is 1-based; zero when the error is not tied to a line.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ErrInvalidArgument as a match.
func (e *ParseError) Is(target error) bool { return target == ErrInvalidArgument }
