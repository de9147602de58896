// Package parser wraps the participle-generated grammar parser, turning
// its errors into a SyntaxError carrying line, column, and message. The
// package owns only tokenizing/parsing; lowering the resulting parse tree
// into a typed AST is a separate stage (internal/ast).
package parser

import (
	"errors"

	"github.com/alecthomas/participle/v2"

	"github.com/cyphergraph/pgcypher/internal/grammar"
)

// SyntaxError is a parse failure with position information attached.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return e.Message
}

// Parse tokenizes and parses text into a concrete parse tree, or fails
// with *SyntaxError. Pure: no side effects, no shared state across calls.
func Parse(text string) (*grammar.Script, error) {
	script, err := grammar.Parse(text)
	if err == nil {
		return script, nil
	}
	return nil, toSyntaxError(text, err)
}

func toSyntaxError(text string, err error) *SyntaxError {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &SyntaxError{
			Line:    pos.Line,
			Column:  pos.Column,
			Message: perr.Message(),
		}
	}

	return &SyntaxError{
		Line:    1,
		Column:  1,
		Message: err.Error(),
	}
}
