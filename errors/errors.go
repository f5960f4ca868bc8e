// Package errors defines the structured compile errors produced when a
// guest program is rejected, along with formatting helpers for display.
package errors

import "fmt"

// SourceLocation is a position in guest source code.
type SourceLocation struct {
	Filename string
	Line     int // 1-based
	Column   int // 1-based
	Source   string
}

func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero reports whether the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// FriendlyError is implemented by errors that carry a human-friendly
// rendering in addition to the plain Error string.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}
