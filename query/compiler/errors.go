package compiler

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNilGraph is returned when a terminal operation runs with no graph.
	ErrNilGraph = errors.New("query graph is nil")

	// ErrInvalidMetadata is returned when entity metadata is missing or
	// carries derivation errors.
	ErrInvalidMetadata = errors.New("invalid entity metadata")

	// ErrUnsupportedOperator is returned when the graph contains an operator
	// the target engine rejects.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrTimeout marks a caller-specified streaming timeout. It is distinct
	// from plain cancellation, which terminates silently.
	ErrTimeout = errors.New("streaming timeout exceeded")
)

// CompileError reports that translating the graph to query text failed.
// Compilation never partially succeeds: no text is produced alongside one.
type CompileError struct {
	Stage string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile failed at %s: %v", e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ValidationError reports a pre- or post-flight check failure. Pre-flight
// failures are raised before any collaborator call.
type ValidationError struct {
	Operator string // set when a named operator was rejected
	Reason   string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Operator != "" {
		return fmt.Sprintf("validation failed: operator %s: %s", e.Operator, e.Reason)
	}
	return "validation failed: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ExecutionError wraps a collaborator failure, annotated with the operation,
// target stream, and entity type so it is distinguishable from a compiler
// failure.
type ExecutionError struct {
	Operation string
	Stream    string
	Entity    string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s on stream %s (entity %s): %v", e.Operation, e.Stream, e.Entity, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TimeoutError reports that a caller-specified streaming timeout fired.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("streaming timed out after %s", e.Limit)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }
