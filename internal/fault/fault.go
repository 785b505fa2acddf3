package fault

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure by the pipeline step that produced it.
type Kind string

const (
	ConfigError     Kind = "config"
	CredentialError Kind = "credential"
	BrowserError    Kind = "browser"
	PageLoadTimeout Kind = "page_load_timeout"
	ElementNotFound Kind = "element_not_found"
	MalformedRow    Kind = "malformed_row"
	SheetWriteError Kind = "sheet_write"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with a kind and the operation that failed.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Result is the outcome of one pipeline step.
type Result struct {
	Step     string
	Err      error
	Duration time.Duration
}

func (r Result) OK() bool {
	return r.Err == nil
}
