package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error returned by this package matches exactly one
// of them with errors.Is.
var (
	ErrFile       = errors.New("file error")
	ErrParse      = errors.New("parse error")
	ErrValidation = errors.New("validation error")
	ErrStore      = errors.New("store error")
)

// FileError reports a file that could not be opened, read or written.
type FileError struct {
	Path string
	Op   string // "open", "read", "write"
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file error: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the category and the underlying cause, so
// errors.Is(err, ErrFile) and errors.Is(err, fs.ErrNotExist) both hold.
func (e *FileError) Unwrap() []error {
	return []error{ErrFile, e.Err}
}

// ParseError reports malformed CSV input or a missing required column.
// Line is 1-indexed and zero when the error is not tied to a row.
type ParseError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.File != "" {
		b.WriteString(": ")
		b.WriteString(e.File)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// ErrFileTooLarge is wrapped by FileError when input exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// Causes wrapped by ParseError.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyFile     = errors.New("empty file")
	ErrNoHeader      = errors.New("header row is blank")
)

// ValidationError represents a single invalid field value.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Line    int    // CSV line, zero for form input
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (got %q)", e.Value)
	}
	return b.String()
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors collects per-field failures for one input.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "validation error: " + strings.Join(msgs, "; ")
}

func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// ByField returns the message for each failing field, for form rendering.
func (e ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(e))
	for _, ve := range e {
		if _, seen := out[ve.Field]; !seen {
			out[ve.Field] = ve.Message
		}
	}
	return out
}

// StoreError wraps a failure from the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

// storeErr wraps err as a StoreError unless it already carries a category.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, cat := range []error{ErrFile, ErrParse, ErrValidation, ErrStore} {
		if errors.Is(err, cat) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}
