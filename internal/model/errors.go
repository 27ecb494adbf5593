package model

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the error taxonomy used to classify failures.
type ErrorKind int

const (
	// NoError is returned by Classify for a nil error.
	NoError ErrorKind = iota

	// InvalidRoot aborts a batch before any file is touched.
	InvalidRoot

	// MalformedContainer marks a file whose structure cannot be trusted.
	MalformedContainer

	// IOFailure covers read, write, permission and disk-full problems.
	IOFailure

	// Interrupted is a user-requested cancellation.
	Interrupted
)

// String returns a human-readable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "none"
	case InvalidRoot:
		return "invalid root"
	case MalformedContainer:
		return "malformed container"
	case IOFailure:
		return "I/O failure"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// ErrInterrupted is returned when a batch stops because of a cancellation request.
var ErrInterrupted = errors.New("interrupted by user")

// InvalidRootError is returned when the batch root is missing or not a directory.
type InvalidRootError struct {
	Path   string
	Reason string
}

func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("%s: not a valid directory: %s", e.Path, e.Reason)
}

// MalformedContainerError is returned when a container's structure is invalid.
type MalformedContainerError struct {
	Path   string
	Kind   ContainerKind
	Offset int64
	Reason string
}

func (e *MalformedContainerError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed %s container at offset %d: %s", e.Kind, e.Offset, e.Reason)
	}
	return fmt.Sprintf("%s: malformed %s container at offset %d: %s", e.Path, e.Kind, e.Offset, e.Reason)
}

// IOError wraps a filesystem error with the operation that failed.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Classify maps err onto the error taxonomy.
//
// Errors that match none of the typed errors are treated as IOFailure, since
// every remaining failure path of the pipeline is a filesystem operation.
func Classify(err error) ErrorKind {
	if err == nil {
		return NoError
	}

	var rootErr *InvalidRootError
	var malformed *MalformedContainerError

	switch {
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled):
		return Interrupted
	case errors.As(err, &rootErr):
		return InvalidRoot
	case errors.As(err, &malformed):
		return MalformedContainer
	default:
		return IOFailure
	}
}
