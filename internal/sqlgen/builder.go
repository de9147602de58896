// Package sqlgen walks the typed AST (internal/ast) and emits PostgreSQL
// text plus parameters into an internal/sqlctx.Context: MATCH→FROM/JOIN/
// WHERE, variable-length relationships via recursive CTE, RETURN→SELECT
// with aggregation grouping, WITH→CTE with HAVING alias-expansion, the
// expression translation and function-mapping tables, the four mutation
// clauses, and UNION wrapping.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
	"github.com/cyphergraph/pgcypher/internal/config"
	"github.com/cyphergraph/pgcypher/internal/sqlctx"
)

// cteColumn records how a variable projected out of a WITH clause's CTE
// is addressed by clauses that follow it.
type cteColumn struct {
	Column string // the CTE's output column name
	JSON   bool   // true for a bare node variable (row_to_json value)
}

// builder accumulates the FROM/JOIN/WHERE state for one linear run of
// reading clauses (the MATCH/WHERE/WITH/UNWIND/CALL clauses preceding a
// RETURN or mutation). A WITH clause closes the current builder into a
// CTE and starts a fresh one sourced from it (see withClause in with.go).
type builder struct {
	ctx *sqlctx.Context
	cfg config.TranslatorConfig

	fromClause string // "graph_nodes n1" or "cte_1" — the first FROM source
	joins      []string
	where      []string

	preambleCTEs []string // WITH-list entries emitted before the final statement
	anyRecursive bool

	varKind   map[string]string    // variable -> "node" | "edge", for pre-WITH PropertyAccess resolution
	cteCols   map[string]cteColumn // variable -> CTE column, once a WITH has run
	localVars map[string]string    // comprehension-bound variable -> raw SQL identifier
}

func newBuilder(ctx *sqlctx.Context, cfg config.TranslatorConfig) *builder {
	return &builder{
		ctx:       ctx,
		cfg:       cfg,
		varKind:   make(map[string]string),
		cteCols:   make(map[string]cteColumn),
		localVars: make(map[string]string),
	}
}

// addWhere ANDs a non-empty predicate into the accumulator.
func (b *builder) addWhere(pred string) {
	if pred != "" {
		b.where = append(b.where, pred)
	}
}

// applyTenantFilter adds the `alias.group_id = $k` predicate for a freshly
// introduced anchor node. Anything reached by joining off that anchor
// shares its tenant transitively (an edge only ever connects nodes of the
// same group_id), but a MATCH with several comma-separated, unconnected
// patterns mints a new anchor per pattern, and each one needs its own
// filter — there is no join condition tying their tenancy together.
func (b *builder) applyTenantFilter(alias string) {
	ph := b.ctx.Placeholder(b.ctx.TenantID)
	b.addWhere(fmt.Sprintf("%s.group_id = %s", alias, ph))
}

// fromSQL renders the FROM clause, preferring the base table unless a
// WITH clause has redirected this builder to select from a CTE.
func (b *builder) fromSQL() string {
	return "FROM " + b.fromClause
}

// joinSQL renders the accumulated JOIN fragments, one per line.
func (b *builder) joinSQL() string {
	if len(b.joins) == 0 {
		return ""
	}
	return "\n" + strings.Join(b.joins, "\n")
}

// whereSQL renders the accumulated WHERE predicates, AND-joined.
func (b *builder) whereSQL() string {
	if len(b.where) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(b.where, "\n  AND ")
}

// preamble renders the WITH [RECURSIVE] list collected so far, or "" if
// empty.
func (b *builder) preamble() string {
	if len(b.preambleCTEs) == 0 {
		return ""
	}
	kw := "WITH"
	if b.anyRecursive {
		kw = "WITH RECURSIVE"
	}
	return kw + " " + strings.Join(b.preambleCTEs, ",\n") + "\n"
}

// isBoundVariable reports whether name resolves through one of
// translateVariable's own lookup paths (comprehension-local, CTE column,
// or a MATCH/CREATE-bound alias).
func (b *builder) isBoundVariable(name string) bool {
	if _, ok := b.localVars[name]; ok {
		return true
	}
	if _, ok := b.cteCols[name]; ok {
		return true
	}
	_, ok := b.ctx.LookupAlias(name)
	return ok
}

// knownColumn reports whether key is a known column for the given kind
// ("node" or "edge").
func (b *builder) knownColumn(kind, key string) bool {
	if kind == "edge" {
		return b.cfg.IsKnownEdgeColumn(key)
	}
	return b.cfg.IsKnownNodeColumn(key)
}
