package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches every *NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrUnknownTable is returned when a table key is not registered.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownView is returned when a view name is not registered.
	ErrUnknownView = errors.New("unknown view")

	// ErrCascadeDepth marks dependents left in place because the cascade
	// depth limit was reached.
	ErrCascadeDepth = errors.New("cascade depth limit reached")
)

// NotFoundError reports that no live row matched a lookup.
type NotFoundError struct {
	Table string
	Field string
	Value string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: row not found (%s = %q)", e.Table, e.Field, e.Value)
}

// Is makes errors.Is(err, ErrNotFound) true for any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SchemaError reports a tab whose header row is missing or unusable.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema error: %s", e.Table, e.Reason)
}

// ValidationError reports required fields that are absent or empty.
type ValidationError struct {
	Table  string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: required field missing: %s", e.Table, strings.Join(e.Fields, ", "))
}

// RemoteIOError wraps a failure of the remote table or folder store
// (network, authorization, quota).
type RemoteIOError struct {
	Op    string
	Table string
	Err   error
}

func (e *RemoteIOError) Error() string {
	return fmt.Sprintf("%s %s: remote error: %v", e.Op, e.Table, e.Err)
}

func (e *RemoteIOError) Unwrap() error { return e.Err }

// CascadeFailure records one dependent delete that failed during a cascade.
type CascadeFailure struct {
	Table string `json:"table"`
	Field string `json:"field"`
	Err   error  `json:"-"`
}

// PartialCascadeError reports a cascade whose parent row was deleted while
// one or more dependent deletes failed. Dependents that did fail may still
// reference the deleted parent.
type PartialCascadeError struct {
	Table    string
	ID       string
	Failures []CascadeFailure
}

func (e *PartialCascadeError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s.%s: %v", f.Table, f.Field, f.Err)
	}
	return fmt.Sprintf("partial cascade for %s %s: %d dependent delete(s) failed: %s",
		e.Table, e.ID, len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the individual dependent failures.
func (e *PartialCascadeError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// remoteErr wraps err as a RemoteIOError unless it already carries a more
// specific classification.
func remoteErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var rio *RemoteIOError
	if errors.As(err, &rio) {
		return err
	}
	return &RemoteIOError{Op: op, Table: table, Err: err}
}
