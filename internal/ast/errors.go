package ast

import "fmt"

// TranslationError reports a semantic problem found while converting a
// parse tree into the AST — an unsupported combination the grammar
// accepts syntactically but the translator does not implement, or an
// invariant violation. Kind is a short, stable tag (e.g.
// "empty-clause", "bad-label-set") callers can switch on; Message
// is the human-readable detail.
type TranslationError struct {
	Clause  string
	Kind    string
	Message string
}

func (e *TranslationError) Error() string {
	if e.Clause == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Clause, e.Kind, e.Message)
}
