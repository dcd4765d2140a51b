// Package scan extracts record fields from scanned documents.
//
// Extraction is delegated to an ordered list of strategies sharing one
// contract. A [Chain] tries each strategy in turn and returns the first
// successful result; every failure is reported as a *[Error].
package scan

import (
	"context"
	"errors"
	"fmt"
)

// Fields are extracted values keyed by column name. They are ordinary
// record input: callers pass them to the table service unchanged.
type Fields map[string]string

// Scanner is one extraction strategy.
type Scanner interface {
	// Name identifies the strategy in logs and errors.
	Name() string
	// Scan extracts fields of the given document kind from data.
	Scan(ctx context.Context, data []byte, kind string) (Fields, error)
}

var (
	// ErrUnsupported is returned by a strategy that cannot handle the
	// document. A chain moves on to the next strategy without logging it
	// as a failure.
	ErrUnsupported = errors.New("document not supported")

	// ErrNoScanner is returned by an empty chain.
	ErrNoScanner = errors.New("no scanner configured")

	// ErrEmptyDocument is returned for zero-length input.
	ErrEmptyDocument = errors.New("empty document")
)

// Error reports a failed extraction.
type Error struct {
	Scanner string
	Kind    string
	Err     error
}

func (e *Error) Error() string {
	if e.Scanner == "" {
		return fmt.Sprintf("scan %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("scan %s with %s: %v", e.Kind, e.Scanner, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap returns err as a *Error attributed to s unless it already is one.
func wrap(s Scanner, kind string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Scanner: s.Name(), Kind: kind, Err: err}
}
