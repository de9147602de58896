package parser

import "testing"

// Grounded on hemanta212-scaf's cyphergrammar.Parse table-driven smoke
// test: every shape the supported subset names should
// parse without error.
func TestParse_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"simple match return", "MATCH (n:Entity) RETURN n"},
		{"match with label and property", `MATCH (u:Entity {name: "Alice"}) RETURN u`},
		{"match with parameter property", "MATCH (u:Entity {id: $userId}) RETURN u"},
		{"property access", "MATCH (u:Entity) RETURN u.name"},
		{"function call", "MATCH (u:Entity) RETURN count(u)"},
		{"namespaced function", `RETURN apoc.text.join(["a", "b"], ",")`},
		{"list comprehension", "MATCH (u:Entity) RETURN [x IN u.tags | toUpper(x)]"},
		{"list comprehension filter", "MATCH (u:Entity) RETURN [x IN u.tags WHERE size(x) > 3]"},
		{"arithmetic", "RETURN 1 + 2 * 3"},
		{"comparison", "RETURN 1 < 2"},
		{"boolean logic", "RETURN TRUE AND FALSE OR NOT TRUE"},
		{"case simple", "RETURN CASE x WHEN 1 THEN 'one' ELSE 'other' END"},
		{"case searched", "RETURN CASE WHEN x > 0 THEN 'positive' ELSE 'non-positive' END"},
		{"order by", "MATCH (u:Entity) RETURN u.name ORDER BY u.name"},
		{"skip limit", "MATCH (u:Entity) RETURN u SKIP 10 LIMIT 5"},
		{"with clause", "MATCH (u:Entity) WITH u.name AS name RETURN name"},
		{"with having", "MATCH (u:Entity) WITH u.city AS city, count(u) AS c WHERE c > 1 RETURN city"},
		{"create", "CREATE (n:Entity {name: 'Alice'})"},
		{"relationship pattern", "MATCH (a)-[:KNOWS]->(b) RETURN a, b"},
		{"relationship type alternation", "MATCH (a)-[:KNOWS|LIKES]->(b) RETURN a, b"},
		{"optional match", "OPTIONAL MATCH (u:Entity) RETURN u"},
		{"unwind", "UNWIND [1, 2, 3] AS x RETURN x"},
		{"is null", "MATCH (u:Entity) WHERE u.email IS NULL RETURN u"},
		{"is not null", "MATCH (u:Entity) WHERE u.email IS NOT NULL RETURN u"},
		{"in list", "RETURN 1 IN [1, 2, 3]"},
		{"starts with", `RETURN "hello" STARTS WITH "he"`},
		{"contains", `RETURN "hello" CONTAINS "ll"`},
		{"ends with", `RETURN "hello" ENDS WITH "lo"`},
		{"regex match", `RETURN "hello" =~ "h.*o"`},
		{"return distinct", "MATCH (u:Entity) RETURN DISTINCT u.name"},
		{"count star", "MATCH (u:Entity) RETURN count(*)"},
		{"set property", "MATCH (u:Entity) SET u.name = $name RETURN u"},
		{"set merge", "MATCH (u:Entity) SET u += $props RETURN u"},
		{"set label", "MATCH (u) SET u:Admin RETURN u"},
		{"remove property", "MATCH (u:Entity) REMOVE u.name RETURN u"},
		{"remove label", "MATCH (u:Entity) REMOVE u:Admin RETURN u"},
		{"merge with actions", "MERGE (u:Entity {id: $id}) ON CREATE SET u.name = $name ON MATCH SET u.updated = $updated RETURN u"},
		{"delete", "MATCH (u:Entity) DELETE u"},
		{"detach delete", "MATCH (u:Entity) DETACH DELETE u"},
		{"variable length star", "MATCH (a)-[:REL*]->(b) RETURN a, b"},
		{"variable length bounded", "MATCH (a)-[:REL*2..4]->(b) RETURN a, b"},
		{"variable length min only", "MATCH (a)-[:REL*2..]->(b) RETURN a, b"},
		{"variable length max only", "MATCH (a)-[:REL*..4]->(b) RETURN a, b"},
		{"variable length exact", "MATCH (a)-[:REL*3]->(b) RETURN a, b"},
		{"union", "MATCH (n:Entity) RETURN n UNION MATCH (n:Entity) RETURN n"},
		{"union all", "MATCH (n:Entity) RETURN n UNION ALL MATCH (n:Entity) RETURN n"},
		{"call yield", "CALL myproc($x) YIELD a, b RETURN a, b"},
		{"pattern comprehension", "RETURN [(n:Entity)-[:KNOWS]->(m) | m.name]"},
		{"quantifier any", "MATCH (n:Entity) WHERE ANY(x IN n.tags WHERE x = 'a') RETURN n"},
		{"incoming direction", "MATCH (a)<-[:KNOWS]-(b) RETURN a, b"},
		{"undirected", "MATCH (a)-[:KNOWS]-(b) RETURN a, b"},
		{"index access", "RETURN [1,2,3][0]"},
		{"negative number", "RETURN -1"},
		{"power operator", "RETURN 2^10"},
		{"map literal return", `RETURN {name: "a", age: 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := Parse(tt.query)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.query, err)
			}
			if script == nil {
				t.Fatalf("Parse(%q) returned nil script", tt.query)
			}
		})
	}
}

func TestParse_SyntaxErrorHasPosition(t *testing.T) {
	_, err := Parse("MATCH (n RETURN n")
	if err == nil {
		t.Fatal("expected a syntax error for an unclosed node pattern")
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if se.Line == 0 {
		t.Error("expected a non-zero line number on a syntax error")
	}
}

func TestParse_RejectsEmptyInput(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("expected empty input to fail to parse")
	}
}
