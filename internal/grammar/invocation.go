package grammar

import "strings"

// String joins a possibly namespaced function name (e.g. apoc.text.join)
// back into dotted form. Grounded on hemanta212-scaf's
// dialects/cypher/grammar/parser.go (InvocationName.String).
func (n *InvocationName) String() string {
	if n == nil {
		return ""
	}
	return strings.Join(n.Parts, ".")
}
