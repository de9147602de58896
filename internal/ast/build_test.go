package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cyphergraph/pgcypher/internal/grammar"
)

// Exercises the AST builder's disambiguation responsibilities: hop-range
// collapsing, direction resolution, postfix-null-check detection, and
// left-associative merging of chained logical expressions.

func parseAndBuild(t *testing.T, query string) *Query {
	t.Helper()
	script, err := grammar.Parse(query)
	if err != nil {
		t.Fatalf("grammar.Parse(%q) failed: %v", query, err)
	}
	q, err := Build(script)
	if err != nil {
		t.Fatalf("Build(%q) failed: %v", query, err)
	}
	return q
}

func TestBuild_MatchReturn(t *testing.T) {
	q := parseAndBuild(t, "MATCH (n:Entity) RETURN n")
	if len(q.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(q.Clauses))
	}
	m := q.Clauses[0].Match
	if m == nil {
		t.Fatal("expected a MatchClause")
	}
	if len(m.Patterns) != 1 || len(m.Patterns[0].Elements) != 1 {
		t.Fatal("expected a single pattern with one element")
	}
	elem := m.Patterns[0].Elements[0]
	if len(elem.Nodes) != 1 || len(elem.Relationships) != 0 {
		t.Fatalf("expected 1 node, 0 relationships, got %d nodes, %d rels", len(elem.Nodes), len(elem.Relationships))
	}
	if elem.Nodes[0].Variable != "n" || len(elem.Nodes[0].Labels) != 1 || elem.Nodes[0].Labels[0] != "Entity" {
		t.Errorf("unexpected node pattern: %+v", elem.Nodes[0])
	}

	ret := q.Clauses[1].Return
	if ret == nil {
		t.Fatal("expected a ReturnClause")
	}
	if len(ret.Projections) != 1 {
		t.Fatalf("expected 1 projection, got %d", len(ret.Projections))
	}
	v, ok := ret.Projections[0].Expr.(Variable)
	if !ok || v.Name != "n" {
		t.Errorf("expected projection Variable{n}, got %#v", ret.Projections[0].Expr)
	}
}

// Invariant: in a PatternElement with N nodes there are exactly N-1
// relationships.
func TestBuild_PatternElementNodeRelationshipInvariant(t *testing.T) {
	q := parseAndBuild(t, "MATCH (a)-[:KNOWS]->(b)-[:LIKES]->(c) RETURN a, b, c")
	elem := q.Clauses[0].Match.Patterns[0].Elements[0]
	if len(elem.Nodes) != len(elem.Relationships)+1 {
		t.Fatalf("invariant violated: %d nodes, %d relationships", len(elem.Nodes), len(elem.Relationships))
	}
	if len(elem.Nodes) != 3 || len(elem.Relationships) != 2 {
		t.Fatalf("expected 3 nodes / 2 relationships, got %d/%d", len(elem.Nodes), len(elem.Relationships))
	}
}

func TestBuild_Direction(t *testing.T) {
	tests := []struct {
		query string
		want  Direction
	}{
		{"MATCH (a)-[:R]->(b) RETURN a, b", Outgoing},
		{"MATCH (a)<-[:R]-(b) RETURN a, b", Incoming},
		{"MATCH (a)-[:R]-(b) RETURN a, b", Undirected},
	}
	for _, tt := range tests {
		q := parseAndBuild(t, tt.query)
		rel := q.Clauses[0].Match.Patterns[0].Elements[0].Relationships[0]
		if rel.Direction != tt.want {
			t.Errorf("%q: expected direction %d, got %d", tt.query, tt.want, rel.Direction)
		}
	}
}

// Hop-range collapsing across its five surface forms: bare *, exact *N,
// min-only *N.., max-only *..N, and bounded *N..M.
func TestBuild_HopRangeCollapsing(t *testing.T) {
	tests := []struct {
		query   string
		minHops int
		maxHops *int // nil means unbounded
	}{
		{"MATCH (a)-[:R*]->(b) RETURN a, b", 1, nil},
		{"MATCH (a)-[:R*3]->(b) RETURN a, b", 3, intp(3)},
		{"MATCH (a)-[:R*2..]->(b) RETURN a, b", 2, nil},
		{"MATCH (a)-[:R*..4]->(b) RETURN a, b", 1, intp(4)},
		{"MATCH (a)-[:R*2..4]->(b) RETURN a, b", 2, intp(4)},
	}
	for _, tt := range tests {
		q := parseAndBuild(t, tt.query)
		rel := q.Clauses[0].Match.Patterns[0].Elements[0].Relationships[0]
		if !rel.VariableLength {
			t.Fatalf("%q: expected VariableLength true", tt.query)
		}
		if rel.MinHops != tt.minHops {
			t.Errorf("%q: expected MinHops %d, got %d", tt.query, tt.minHops, rel.MinHops)
		}
		if (rel.MaxHops == nil) != (tt.maxHops == nil) {
			t.Fatalf("%q: MaxHops nilness mismatch: got %v, want %v", tt.query, rel.MaxHops, tt.maxHops)
		}
		if rel.MaxHops != nil && *rel.MaxHops != *tt.maxHops {
			t.Errorf("%q: expected MaxHops %d, got %d", tt.query, *tt.maxHops, *rel.MaxHops)
		}
	}
}

func intp(n int) *int { return &n }

// A relationship with no hop range is a single hop, not variable-length.
func TestBuild_NoHopRangeIsSingleHop(t *testing.T) {
	q := parseAndBuild(t, "MATCH (a)-[:R]->(b) RETURN a, b")
	rel := q.Clauses[0].Match.Patterns[0].Elements[0].Relationships[0]
	if rel.VariableLength {
		t.Error("expected VariableLength false for a bare relationship")
	}
}

// Postfix null checks are arity-1 ComparisonOp nodes with no right
// operand, distinguished from binary comparisons.
func TestBuild_PostfixNullCheck(t *testing.T) {
	q := parseAndBuild(t, "MATCH (n:Entity) WHERE n.email IS NOT NULL RETURN n")
	cmp, ok := q.Clauses[0].Match.Where.(ComparisonOp)
	if !ok {
		t.Fatalf("expected ComparisonOp, got %#v", q.Clauses[0].Match.Where)
	}
	if cmp.Op != "IS NOT NULL" {
		t.Errorf("expected op IS NOT NULL, got %q", cmp.Op)
	}
	if cmp.Right != nil {
		t.Errorf("expected nil Right operand for a postfix check, got %#v", cmp.Right)
	}
}

func TestBuild_BinaryComparisonHasRightOperand(t *testing.T) {
	q := parseAndBuild(t, "MATCH (n:Entity) WHERE n.age > 30 RETURN n")
	cmp, ok := q.Clauses[0].Match.Where.(ComparisonOp)
	if !ok {
		t.Fatalf("expected ComparisonOp, got %#v", q.Clauses[0].Match.Where)
	}
	if cmp.Op != ">" {
		t.Errorf("expected op >, got %q", cmp.Op)
	}
	if cmp.Right == nil {
		t.Error("expected a non-nil Right operand for a binary comparison")
	}
}

// Multi-child logical expressions merge into a left-associative binary tree.
func TestBuild_LeftAssociativeLogicalChain(t *testing.T) {
	q := parseAndBuild(t, "RETURN true AND false AND true")
	top, ok := q.Clauses[0].Return.Projections[0].Expr.(BinaryOp)
	if !ok {
		t.Fatalf("expected BinaryOp at top, got %#v", q.Clauses[0].Return.Projections[0].Expr)
	}
	if top.Op != "AND" {
		t.Fatalf("expected top-level AND, got %q", top.Op)
	}
	left, ok := top.Left.(BinaryOp)
	if !ok || left.Op != "AND" {
		t.Fatalf("expected left subtree to itself be an AND (left-associative), got %#v", top.Left)
	}
	if _, ok := left.Left.(BoolLiteral); !ok {
		t.Errorf("expected innermost left leaf to be a bool literal, got %#v", left.Left)
	}
}

func TestBuild_StringEscapes(t *testing.T) {
	q := parseAndBuild(t, `RETURN "line\nbreak", 'it\'s here'`)
	s1 := q.Clauses[0].Return.Projections[0].Expr.(StringLiteral)
	if s1.Value != "line\nbreak" {
		t.Errorf("expected escaped newline, got %q", s1.Value)
	}
	s2 := q.Clauses[0].Return.Projections[1].Expr.(StringLiteral)
	if s2.Value != "it's here" {
		t.Errorf("expected unescaped quote, got %q", s2.Value)
	}
}

func TestBuild_SetItemForms(t *testing.T) {
	q := parseAndBuild(t, "MATCH (u:Entity) SET u.name = $name, u += $props, u:Admin RETURN u")
	items := q.Clauses[1].Set.Items
	if len(items) != 3 {
		t.Fatalf("expected 3 SET items, got %d", len(items))
	}
	if items[0].Property != "name" || items[0].Label != "" {
		t.Errorf("expected property assignment, got %+v", items[0])
	}
	if !items[1].MergeProperties || items[1].Property != "" {
		t.Errorf("expected merge-properties form, got %+v", items[1])
	}
	if items[2].Label != "Admin" || items[2].Value != nil {
		t.Errorf("expected label-only form, got %+v", items[2])
	}
}

func TestBuild_UnionAllFlag(t *testing.T) {
	q := parseAndBuild(t, "MATCH (n:Entity) RETURN n UNION ALL MATCH (n:Entity) RETURN n")
	if len(q.Unions) != 1 {
		t.Fatalf("expected 1 union branch, got %d", len(q.Unions))
	}
	if !q.UnionAll {
		t.Error("expected UnionAll true for UNION ALL")
	}
}

func TestBuild_UnionWithoutAll(t *testing.T) {
	q := parseAndBuild(t, "MATCH (n:Entity) RETURN n UNION MATCH (n:Entity) RETURN n")
	if q.UnionAll {
		t.Error("expected UnionAll false for bare UNION")
	}
}

// Build must be deterministic: parsing and lowering the same text twice
// yields structurally identical trees. Grounded on hemanta212-scaf's
// testutil_test.go use of cmp.Diff to compare parsed ASTs field-by-field
// rather than spot-checking individual nodes.
func TestBuild_Deterministic(t *testing.T) {
	const query = `MATCH (a:Entity {name: "Alice"})-[:KNOWS*1..3]->(b:Entity) WHERE a.age > 30 WITH a, count(b) AS c RETURN a, c ORDER BY c DESC SKIP 1 LIMIT 5`
	q1 := parseAndBuild(t, query)
	q2 := parseAndBuild(t, query)
	if diff := cmp.Diff(q1, q2); diff != "" {
		t.Errorf("Build(%q) not deterministic (-first +second):\n%s", query, diff)
	}
}
