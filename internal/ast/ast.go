// Package ast defines the typed, tagged-variant AST the generator walks
// and the builder that produces it from a grammar parse tree.
// Clause-level and pattern-level nodes use a closed union of optional
// pointer fields (one struct, one nilable field per clause kind);
// expression nodes use a sealed interface instead (see expr.go) because
// the expression grammar is deep and recursive enough that a type switch
// reads better than twenty mutually exclusive struct fields.
package ast

// Query is a top-level statement: an ordered list of clauses, plus any
// UNION branches.
type Query struct {
	Clauses  []Clause
	Unions   []*Query // each branch is itself a Query with no further Unions
	UnionAll bool     // true preserves duplicates (UNION ALL)
}

// Clause dispatches on exactly one of its fields being non-nil.
type Clause struct {
	Match  *MatchClause
	Unwind *UnwindClause
	Call   *CallClause
	Create *CreateClause
	Merge  *MergeClause
	Delete *DeleteClause
	Set    *SetClause
	Remove *RemoveClause
	With   *WithClause
	Return *ReturnClause
}

// MatchClause is [OPTIONAL] MATCH patterns [WHERE predicate].
type MatchClause struct {
	Optional bool
	Patterns []*Pattern
	Where    Expr // nil if absent
}

// UnwindClause is UNWIND expr AS variable.
type UnwindClause struct {
	Expr     Expr
	Variable string
}

// CallClause is CALL procedure(args) [YIELD items].
type CallClause struct {
	Procedure string
	Args      []Expr
	Yield     []string
}

// ReturnClause is RETURN/the shared WITH body.
type ReturnClause struct {
	Star        bool // RETURN *
	Projections []*Projection
	Distinct    bool
	OrderBy     []*SortItem
	Skip        Expr // nil if absent
	Limit       Expr // nil if absent
}

// WithClause is WITH body [WHERE predicate] (predicate becomes HAVING).
type WithClause struct {
	Return *ReturnClause
	Where  Expr // nil if absent
}

// Projection is expr [AS alias].
type Projection struct {
	Expr  Expr
	Alias string // empty if absent
}

// SortItem is an ORDER BY key.
type SortItem struct {
	Expr Expr
	Desc bool
}

// CreateClause is CREATE pattern, pattern, ...
type CreateClause struct {
	Patterns []*Pattern
}

// MergeClause is MERGE pattern [ON MATCH SET ...] [ON CREATE SET ...].
type MergeClause struct {
	Pattern  *Pattern
	OnMatch  []*SetItem
	OnCreate []*SetItem
}

// DeleteClause is [DETACH] DELETE expr, expr, ...
type DeleteClause struct {
	Detach      bool
	Expressions []Expr
}

// SetClause is SET item, item, ...
type SetClause struct {
	Items []*SetItem
}

// SetItem covers the three SET forms: property assignment
// (Property set, Value the new value), a whole-variable merge/replace
// (Property empty, Value the map/expression, MergeProperties true for
// `+=`), or a label assignment (Label set, Value nil).
type SetItem struct {
	Variable        string
	Property        string // non-empty for `v.k = e`
	Label           string // non-empty for `v:Label`
	Value           Expr   // nil for label-only
	MergeProperties bool   // true for `v += e`
}

// RemoveClause is REMOVE item, item, ...
type RemoveClause struct {
	Items []*RemoveItem
}

// RemoveItem is v.k (property removal) or v:Label (label removal).
type RemoveItem struct {
	Variable string
	Property string // non-empty for property removal
	Label    string // non-empty for label removal
}

// Pattern is a single comma-separated pattern with its optional path
// variable and the chain(s) that make it up.
type Pattern struct {
	Variable string // path variable, empty if unbound
	Elements []*PatternElement
}

// PatternElement is an alternating chain of N node patterns and N-1
// relationship patterns (invariant: len(Nodes) == len(Relationships)+1).
type PatternElement struct {
	Nodes         []*NodePattern
	Relationships []*RelationshipPattern
}

// NodePattern is (variable? :Label* {props}?).
type NodePattern struct {
	Variable   string
	Labels     []string
	Properties Expr // MapLiteral or Param, nil if absent
}

// Direction of a relationship pattern, resolved from arrow heads.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Undirected
)

// RelationshipPattern is -[var? :TYPE|TYPE* min..max {props}?]->.
type RelationshipPattern struct {
	Variable   string
	Types      []string
	Properties Expr
	Direction  Direction

	// VariableLength is true when a hop range (possibly empty, `*`) was
	// present in the source text; MinHops/MaxHops are meaningless unless
	// this is true. MaxHops == nil with VariableLength true means
	// unbounded (collapsed to the TranslatorConfig's MaxHops at generation
	// time).
	VariableLength bool
	MinHops        int
	MaxHops        *int
}
