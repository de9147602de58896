package pgcypher_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cyphergraph/pgcypher"
	"github.com/cyphergraph/pgcypher/internal/config"
)

// Structural assertions over Translate's output: one test function with a
// require-heavy assertion block per scenario, exercising the public facade
// end to end.

func translate(t *testing.T, tenant, query string, bindings map[string]any) (string, []any) {
	t.Helper()
	tr := pgcypher.New(tenant)
	sql, params, err := tr.Translate(query, bindings)
	require.NoError(t, err, "query: %s", query)
	return sql, params
}

func TestTranslate_SimpleMatchReturn(t *testing.T) {
	sql, params := translate(t, "tenant-1", "MATCH (n:Entity) RETURN n", nil)
	require.Contains(t, sql, "FROM graph_nodes n1")
	require.Contains(t, sql, "n1.node_type = $1")
	require.Contains(t, sql, "n1.group_id = $2")
	require.Contains(t, sql, "row_to_json(n1.*)")
	require.Equal(t, []any{"entity", "tenant-1"}, params)
}

func TestTranslate_RelationshipJoin(t *testing.T) {
	sql, _ := translate(t, "tenant-1", "MATCH (a:Entity)-[r:KNOWS]->(b:Entity) RETURN a, b", nil)
	require.Contains(t, sql, "FROM graph_nodes n1")
	require.Contains(t, sql, "JOIN graph_edges e2 ON e2.source_node_uuid = n1.uuid")
	require.Contains(t, sql, "JOIN graph_nodes n3 ON e2.target_node_uuid = n3.uuid")
	require.Contains(t, sql, "relation_type = $")
}

func TestTranslate_VariableLengthRecursiveCTE(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (a)-[:REL*2..4]->(b) RETURN a, b", nil)
	require.Contains(t, sql, "WITH RECURSIVE path_1 AS")
	require.Contains(t, sql, "1 AS depth")
	require.Contains(t, sql, "depth < 4")
	require.Contains(t, sql, "depth >= 2")
	require.Contains(t, sql, "path_edges")
}

// Property predicate numeric coercion and JSONB projection naming.
func TestTranslate_NumericCoercionAndJSONBProjection(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (n:Entity) WHERE n.age > 30 RETURN n.name AS name", nil)
	require.Contains(t, sql, "(n1.properties->'age')::numeric > 30")
	require.Contains(t, sql, "n1.properties->>'name' AS name")
}

// Aggregation with grouping.
func TestTranslate_AggregationGroupBy(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (n:Entity) RETURN n.city AS city, count(n) AS c ORDER BY c DESC", nil)
	require.Contains(t, sql, "COUNT(n1.uuid) AS c")
	require.Contains(t, sql, "n1.properties->>'city' AS city")
	require.Contains(t, sql, "GROUP BY n1.properties->>'city'")
	require.Contains(t, sql, "ORDER BY c DESC")
}

// UNION ALL wraps branches and concatenates parameters in order.
func TestTranslate_UnionAll(t *testing.T) {
	sql, params := translate(t, "tenant-x", "MATCH (n:Entity) RETURN n UNION ALL MATCH (n:Entity) RETURN n", nil)
	require.Equal(t, 1, strings.Count(sql, "UNION ALL"))
	require.Equal(t, 2, strings.Count(sql, "row_to_json(n1.*)"))
	require.Equal(t, []any{"entity", "tenant-x", "entity", "tenant-x"}, params)
}

// Placeholder consistency: the highest $n used equals len(params), no gaps.
func TestTranslate_PlaceholderConsistency(t *testing.T) {
	queries := []string{
		"MATCH (n:Entity) RETURN n",
		`MATCH (a:Entity {name: "Alice"})-[:KNOWS]->(b:Entity) WHERE b.age > 10 RETURN a, b.name`,
		"MATCH (n:Entity) RETURN n UNION ALL MATCH (n:Entity) RETURN n",
		"CREATE (n:Entity {name: 'Bob'}) RETURN n",
	}
	for _, q := range queries {
		sql, params := translate(t, "t1", q, nil)
		highest := 0
		for i := 1; i <= len(params)+5; i++ {
			if strings.Contains(sql, "$"+itoa(i)) {
				highest = i
			}
		}
		require.Equal(t, len(params), highest, "query: %s\nsql: %s", q, sql)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

// Tenant scoping on every SELECT/UPDATE/DELETE touching the base tables,
// or via a CTE that already scoped it.
func TestTranslate_TenantScoping(t *testing.T) {
	sql, params := translate(t, "tenant-abc", "MATCH (n:Entity) RETURN n", nil)
	require.Contains(t, sql, "group_id = $2")
	require.Equal(t, "tenant-abc", params[1])
}

func TestTranslate_TenantScopingThroughCTE(t *testing.T) {
	sql, _ := translate(t, "tenant-abc", "MATCH (n:Entity) WITH n.name AS name RETURN name", nil)
	require.Contains(t, sql, "cte_1 AS")
	require.Contains(t, sql, "group_id = $2")
	// the outer SELECT addresses the CTE, not graph_nodes directly
	require.Contains(t, sql, "FROM cte_1 w")
}

// Alias stability: two references to the same variable resolve to the
// same alias.
func TestTranslate_AliasStability(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (n:Entity) WHERE n.age > 1 MATCH (n:Entity) WHERE n.age < 100 RETURN n", nil)
	require.Equal(t, 1, strings.Count(sql, "FROM graph_nodes"), "variable n must reuse its alias across two MATCH clauses")
}

// Direction fidelity: an outgoing pattern and its mirrored incoming form
// swap source/target columns symmetrically.
func TestTranslate_DirectionFidelity(t *testing.T) {
	outSQL, _ := translate(t, "t", "MATCH (a)-[:R]->(b) RETURN a, b", nil)
	require.Contains(t, outSQL, "e1.source_node_uuid = n1.uuid")
	require.Contains(t, outSQL, "e1.target_node_uuid = n2.uuid")

	inSQL, _ := translate(t, "t", "MATCH (a)<-[:R]-(b) RETURN a, b", nil)
	require.Contains(t, inSQL, "e1.target_node_uuid = n1.uuid")
	require.Contains(t, inSQL, "e1.source_node_uuid = n2.uuid")
}

// Round-trip of literals: numbers and booleans compile inline, strings
// bind as parameters.
func TestTranslate_LiteralRoundTrip(t *testing.T) {
	sql, params := translate(t, "t", `MATCH (n:Entity {name: "Alice", age: 30, active: true}) RETURN n`, nil)
	require.Contains(t, sql, "30") // numeric literal verbatim
	require.Contains(t, sql, "TRUE")
	require.Contains(t, params, "Alice") // string literal bound
}

// HAVING alias expansion — SQL's HAVING can't see SELECT list aliases,
// so an aggregate alias expands back to its full expression.
func TestTranslate_HavingAliasExpansion(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (n:Entity) WITH n.city AS city, count(n) AS c WHERE c > 5 RETURN city", nil)
	require.Contains(t, sql, "HAVING COUNT(n1.uuid) > 5")
	require.NotContains(t, sql, "HAVING c >")
}

// Determinism: repeated calls on fresh translators produce identical
// output.
func TestTranslate_Determinism(t *testing.T) {
	sql1, params1 := translate(t, "t", "MATCH (n:Entity) WHERE n.age > 5 RETURN n.name", nil)
	sql2, params2 := translate(t, "t", "MATCH (n:Entity) WHERE n.age > 5 RETURN n.name", nil)
	require.Equal(t, sql1, sql2)
	require.Equal(t, params1, params2)
}

func TestTranslate_BindingDefaultsToNull(t *testing.T) {
	sql, params := translate(t, "t", "MATCH (n:Entity {id: $missing}) RETURN n", nil)
	require.Contains(t, sql, "NULL")
	_ = params
}

func TestTranslate_StrictBindingsErrors(t *testing.T) {
	tr := pgcypher.New("t", pgcypher.WithConfig(strictConfig()))
	_, _, err := tr.Translate("MATCH (n:Entity {id: $missing}) RETURN n", nil)
	require.Error(t, err)
}

func TestTranslate_SyntaxErrorSurfaced(t *testing.T) {
	tr := pgcypher.New("t")
	_, _, err := tr.Translate("MATCH (n RETURN n", nil)
	require.Error(t, err)
}

func TestTranslate_DeleteAndDetachDelete(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (n:Entity) DETACH DELETE n", nil)
	require.Contains(t, sql, "del_edges AS")
	require.Contains(t, sql, "DELETE FROM graph_edges")
	require.Contains(t, sql, "DELETE FROM graph_nodes")
}

func TestTranslate_SetProperty(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (n:Entity) SET n.name = $name", map[string]any{"name": "Bob"})
	require.Contains(t, sql, "jsonb_set(properties, '{name}'")
	require.Contains(t, sql, "UPDATE graph_nodes")
}

func TestTranslate_CreateNode(t *testing.T) {
	sql, params := translate(t, "t", "CREATE (n:Entity {name: 'Carol'}) RETURN n", nil)
	require.Contains(t, sql, "INSERT INTO graph_nodes")
	require.Contains(t, sql, "gen_random_uuid()")
	require.Contains(t, sql, "RETURNING *")
	require.Contains(t, params, "entity")
}

func TestTranslate_Merge(t *testing.T) {
	sql, _ := translate(t, "t", "MERGE (n:Entity {id: $id}) ON CREATE SET n.name = $name RETURN n", map[string]any{"id": "abc", "name": "Dave"})
	require.Contains(t, sql, "ON CONFLICT (uuid) DO UPDATE SET")
}

// Each comma-separated pattern in a single MATCH mints its own anchor, and
// since there's no join condition tying disjoint patterns' tenancy
// together, each anchor needs its own group_id predicate.
func TestTranslate_TenantScopingAcrossDisjointPatterns(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (a:Entity), (b:Entity) RETURN a, b", nil)
	require.Equal(t, 2, strings.Count(sql, "group_id = $"))
}

// ORDER BY can reference a RETURN projection's own alias even when that
// alias isn't a graph variable bound anywhere (an aggregate result here).
func TestTranslate_OrderByProjectionAlias(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (n:Entity) RETURN n.city AS city, count(n) AS total ORDER BY total", nil)
	require.Contains(t, sql, "ORDER BY total ASC")
}

// ORDER BY referencing a bound node variable still sorts by its identity
// rather than the literal projected alias name.
func TestTranslate_OrderByBoundVariableUsesIdentity(t *testing.T) {
	sql, _ := translate(t, "t", "MATCH (n:Entity) RETURN n ORDER BY n", nil)
	require.Contains(t, sql, "ORDER BY n1.uuid ASC")
}

// The delete-by-uuid fast path must enforce a reserved-label constraint
// the same way the fetch-by-uuid fast path does, not silently drop it.
func TestTranslate_FastPathDeleteByUUIDHonorsLabel(t *testing.T) {
	sql, params := translate(t, "t", "MATCH (n:Entity {uuid: $id}) DELETE n", map[string]any{"id": "abc"})
	require.Contains(t, sql, "node_type = $1")
	require.Contains(t, sql, "DELETE FROM graph_nodes WHERE uuid = $2 AND group_id = $3 AND node_type = $1")
	require.Equal(t, []any{"entity", "abc", "t"}, params)
}

func strictConfig() config.TranslatorConfig {
	cfg := config.Default()
	cfg.StrictBindings = true
	return cfg
}
