package errors

import (
	"fmt"
	"strings"
)

// CompileError is a structured rejection of a guest program. It carries the
// closed-set error code plus enough source context to render a useful
// message.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Filename    string
	Line        int
	Column      int
	SourceLine  string
	Suggestions []Suggestion
	Note        string
}

// New builds a CompileError for the given code, using the code's standard
// description as the message.
func New(code ErrorCode, loc SourceLocation) *CompileError {
	return &CompileError{
		Code:       code,
		Message:    code.Description(),
		Filename:   loc.Filename,
		Line:       loc.Line,
		Column:     loc.Column,
		SourceLine: loc.Source,
	}
}

// Newf builds a CompileError with a formatted message.
func Newf(code ErrorCode, loc SourceLocation, format string, args ...any) *CompileError {
	e := New(code, loc)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile error: ")
	b.WriteString(e.Message)
	if e.Filename != "" || e.Line > 0 {
		b.WriteString(" (")
		if e.Filename != "" {
			b.WriteString(e.Filename)
			b.WriteString(":")
		}
		fmt.Fprintf(&b, "%d:%d", e.Line, e.Column)
		b.WriteString(")")
	}
	return b.String()
}

// FriendlyErrorMessage returns a multi-line rendering with source context.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e)
}

// CompileErrors collects multiple compile errors from one run.
type CompileErrors struct {
	Errors []*CompileError
}

// Error implements the error interface.
func (e *CompileErrors) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// FriendlyErrorMessage renders all collected errors.
func (e *CompileErrors) FriendlyErrorMessage() string {
	if len(e.Errors) == 0 {
		return ""
	}
	f := NewFormatter(false)
	var parts []string
	for _, err := range e.Errors {
		parts = append(parts, f.Format(err))
	}
	return strings.Join(parts, "\n")
}

// Add appends a compile error to the collection.
func (e *CompileErrors) Add(err *CompileError) {
	e.Errors = append(e.Errors, err)
}

// Count returns the number of collected errors.
func (e *CompileErrors) Count() int {
	return len(e.Errors)
}

// ToError returns the collection as a single error, or nil when empty.
func (e *CompileErrors) ToError() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}
