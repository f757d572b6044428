// Package diag defines the uniform diagnostic type produced by the lexer,
// parser and evaluator: a message, an optional source position, and a
// caret-annotated Format for terminal output.
package diag

import (
	"fmt"
	"strings"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/token"
)

// Kind classifies a Diagnostic by the stage that produced it and whether it
// is fatal to the whole pipeline (Lex, Parse, Setup) or soft and scoped to a
// single row (Runtime).
type Kind int

const (
	KindLex Kind = iota
	KindParse
	KindRuntime
	KindSetup
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindParse:
		return "parse error"
	case KindRuntime:
		return "runtime warning"
	case KindSetup:
		return "setup error"
	default:
		return "error"
	}
}

// Diagnostic is the single error/warning type shared by every stage of the
// pipeline. Lex and Parse diagnostics are fatal and abort the pipeline.
// Runtime diagnostics are soft: the evaluator hands them to a Warn sink and
// continues with the next row (see internal/eval).
type Diagnostic struct {
	Kind    Kind
	Message string
	Pos     *token.Position // nil for a KindSetup diagnostic raised before parsing
	RowIndex int            // valid only for KindRuntime; 0-based index into the table
}

// Error implements the error interface so lex/parse callers can use ordinary
// Go error handling (`if err := ...; err != nil`).
func (d *Diagnostic) Error() string {
	if d.Pos == nil {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Pos, d.Message)
}

// Format renders the diagnostic with a source-context line and a caret
// pointing at the offending column, for terminal output.
func (d *Diagnostic) Format(source string) string {
	var sb strings.Builder
	sb.WriteString(d.Error())

	if d.Pos == nil || source == "" {
		return sb.String()
	}

	lines := strings.Split(source, "\n")
	if d.Pos.Line < 1 || d.Pos.Line > len(lines) {
		return sb.String()
	}
	line := lines[d.Pos.Line-1]

	sb.WriteString("\n")
	sb.WriteString(line)
	sb.WriteString("\n")
	col := d.Pos.Column
	if col < 1 {
		col = 1
	}
	sb.WriteString(strings.Repeat(" ", col-1))
	sb.WriteString("^")
	return sb.String()
}

// Lex builds a fatal lex-stage diagnostic.
func Lex(msg string, pos token.Position) *Diagnostic {
	return &Diagnostic{Kind: KindLex, Message: msg, Pos: &pos}
}

// Parse builds a fatal parse-stage diagnostic.
func Parse(msg string, pos token.Position) *Diagnostic {
	return &Diagnostic{Kind: KindParse, Message: msg, Pos: &pos}
}

// Setup builds a fatal setup diagnostic with no source position.
func Setup(msg string) *Diagnostic {
	return &Diagnostic{Kind: KindSetup, Message: msg}
}

// Runtime builds a soft, per-row runtime diagnostic.
func Runtime(msg string, pos token.Position, rowIndex int) *Diagnostic {
	return &Diagnostic{Kind: KindRuntime, Message: msg, Pos: &pos, RowIndex: rowIndex}
}
