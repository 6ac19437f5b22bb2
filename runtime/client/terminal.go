package client

import (
	"context"
	"errors"
	"time"

	"github.com/streamq-io/streamq/diagnostics"
	"github.com/streamq-io/streamq/query/compiler"
	"github.com/streamq-io/streamq/query/validate"
)

// Terminal-state names recorded into diagnostics. A facade value itself
// never changes state; the lifecycle belongs to the terminal operation
// executing over it.
const (
	stateUnmaterialized = "Unmaterialized"
	stateCompiling      = "Compiling"
	stateExecuting      = "Executing"
	stateMaterialized   = "Materialized"
	stateStreaming      = "Streaming"
)

// compile runs pre-flight and compilation, storing the recorder so
// Diagnostics can report on it afterwards.
func (s *Stream[T]) compile(isPull bool) (*compiler.Compiled, *diagnostics.Recorder, error) {
	rec := diagnostics.NewRecorder()
	rec.Step("state", stateUnmaterialized)
	defer s.diag.store(rec)

	if err := validate.PreFlight(s.root, s.meta, s.client.strict, rec); err != nil {
		rec.Stepf("validate", "pre-flight failed: %v", err)
		rec.Finish()
		return nil, rec, err
	}
	rec.Step("validate", "pre-flight passed")
	rec.Step("state", stateCompiling)

	compiled, err := compiler.Compile(s.root, s.meta, isPull, rec)
	if err != nil {
		rec.Finish()
		return nil, rec, err
	}
	return compiled, rec, nil
}

// ToList compiles in pull mode, executes, and materializes the bounded
// snapshot.
func (s *Stream[T]) ToList() ([]T, error) {
	compiled, rec, err := s.compile(true)
	if err != nil {
		return nil, err
	}

	rec.Step("state", stateExecuting)
	rows, err := s.client.svc.ExecutePull(compiled.Text, s.meta)
	if err != nil {
		return nil, s.execError("ToList", err)
	}
	return s.materialize(rows, rec)
}

// ToListAsync is ToList honoring ctx cancellation at the execution boundary.
func (s *Stream[T]) ToListAsync(ctx context.Context) ([]T, error) {
	compiled, rec, err := s.compile(true)
	if err != nil {
		return nil, err
	}

	rec.Step("state", stateExecuting)
	rows, err := s.client.svc.ExecutePullAsync(ctx, compiled.Text, s.meta)
	if err != nil {
		return nil, s.execError("ToListAsync", err)
	}
	return s.materialize(rows, rec)
}

func (s *Stream[T]) materialize(rows []Row, rec *diagnostics.Recorder) ([]T, error) {
	results, err := decodeRows[T](rows)
	if err != nil {
		return nil, s.execError("materialize", err)
	}
	if err := validate.PostFlight(results, s.meta, s.client.strict); err != nil {
		return nil, err
	}
	rec.Step("state", stateMaterialized)
	return results, nil
}

// Subscribe compiles in push mode and delivers rows continuously until the
// caller cancels, the collaborator's stream ends, or onRow fails. Plain
// caller cancellation terminates silently.
func (s *Stream[T]) Subscribe(ctx context.Context, onRow func(T) error) error {
	return s.stream(ctx, onRow, "Subscribe")
}

// ForEachWithTimeout is Subscribe bounded by a timeout. The timeout composes
// a linked cancellation with the caller's own context, so both causes stay
// independently observable: the timeout surfaces a TimeoutError, while the
// caller's own cancellation stays silent.
func (s *Stream[T]) ForEachWithTimeout(ctx context.Context, timeout time.Duration, onRow func(T) error) error {
	linked, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.stream(linked, onRow, "ForEachWithTimeout")
	if linked.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return &compiler.TimeoutError{Limit: timeout}
	}
	return err
}

func (s *Stream[T]) stream(ctx context.Context, onRow func(T) error, operation string) error {
	compiled, rec, err := s.compile(false)
	if err != nil {
		return err
	}

	rec.Step("state", stateStreaming)
	err = s.client.svc.ExecuteStream(ctx, compiled.Text, s.meta, func(row Row) error {
		value, decodeErr := decodeRow[T](row)
		if decodeErr != nil {
			return decodeErr
		}
		return onRow(value)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The linked context distinguishes timeout from cancellation in the
		// caller above; here both mean the stream ended on request.
		return nil
	default:
		return s.execError(operation, err)
	}
}

// ToQueryText compiles the accumulated graph for inspection. It never
// fails: an internal compile error is returned as an inline comment instead.
func (s *Stream[T]) ToQueryText(isPullQuery bool) string {
	compiled, _, err := s.compile(isPullQuery)
	if err != nil {
		return "-- compile error: " + err.Error()
	}
	return compiled.Text
}

// Diagnostics returns the human-readable report of the most recent compile.
func (s *Stream[T]) Diagnostics() string {
	return s.diag.report()
}

func (s *Stream[T]) execError(operation string, err error) error {
	return &compiler.ExecutionError{
		Operation: operation,
		Stream:    s.meta.Stream,
		Entity:    s.meta.Entity,
		Err:       err,
	}
}
