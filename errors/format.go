package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders compile errors in a rustc-like layout, optionally with
// ANSI colors.
type Formatter struct {
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

var (
	colorHeader   = color.New(color.FgRed, color.Bold)
	colorCode     = color.New(color.FgHiBlack)
	colorLocation = color.New(color.FgCyan)
	colorGutter   = color.New(color.FgHiBlack)
	colorCaret    = color.New(color.FgHiRed)
	colorHint     = color.New(color.FgHiYellow)
	colorNote     = color.New(color.FgHiBlue)
)

// Format renders one error:
//
//	error[E2001]: 'break' outside loop
//	 --> main.py:10:5
//	  |
//	10| break
//	  | ^
func (f *Formatter) Format(e *CompileError) string {
	var b strings.Builder

	f.write(&b, colorHeader, "error")
	if e.Code != "" {
		f.write(&b, colorCode, fmt.Sprintf("[%s]", e.Code))
	}
	f.write(&b, colorHeader, ": ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	gutterWidth := len(fmt.Sprintf("%d", e.Line))
	if gutterWidth < 2 {
		gutterWidth = 2
	}
	pad := strings.Repeat(" ", gutterWidth)

	if e.Filename != "" || e.Line > 0 {
		b.WriteString(pad)
		f.write(&b, colorLocation, fmt.Sprintf("--> %s\n", SourceLocation{
			Filename: e.Filename, Line: e.Line, Column: e.Column,
		}))
	}

	if e.SourceLine != "" {
		f.write(&b, colorGutter, pad+" |\n")
		f.write(&b, colorGutter, fmt.Sprintf("%*d | ", gutterWidth, e.Line))
		b.WriteString(e.SourceLine)
		b.WriteString("\n")
		f.write(&b, colorGutter, pad+" | ")
		if e.Column > 0 {
			b.WriteString(strings.Repeat(" ", e.Column-1))
		}
		f.write(&b, colorCaret, "^\n")
	}

	if hint := FormatSuggestions(e.Suggestions); hint != "" {
		f.write(&b, colorHint, pad+" = hint: "+hint+"\n")
	}
	if e.Note != "" {
		f.write(&b, colorNote, pad+" = note: "+e.Note+"\n")
	}
	return b.String()
}

func (f *Formatter) write(b *strings.Builder, c *color.Color, s string) {
	if f.UseColor {
		b.WriteString(c.Sprint(s))
	} else {
		b.WriteString(s)
	}
}
