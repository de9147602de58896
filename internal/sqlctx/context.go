// Package sqlctx holds the per-translate-call mutable state: the tenant
// id, the ordered parameter buffer, the variable-to-alias map, and the
// alias/CTE minting counters. A Context is scoped to exactly one
// Translate call and is never reused or shared across goroutines.
package sqlctx

import (
	"fmt"

	"github.com/cyphergraph/pgcypher/internal/telemetry"
)

// Context is never shared across goroutines; the facade constructs one
// per Translate call.
type Context struct {
	TenantID string

	params   []any
	aliases  map[string]string
	bindings map[string]any
	logger   telemetry.Logger

	aliasCounter int
	cteCounter   int
}

// New constructs a fresh Context. bindings may be nil (treated as empty);
// a nil logger defaults to telemetry.NewNop().
func New(tenantID string, bindings map[string]any, logger telemetry.Logger) *Context {
	if logger == nil {
		logger = telemetry.NewNop()
	}
	return &Context{
		TenantID: tenantID,
		aliases:  make(map[string]string),
		bindings: bindings,
		logger:   logger,
	}
}

// Bind appends v to the parameter vector and returns its 1-based
// placeholder index.
func (c *Context) Bind(v any) int {
	c.params = append(c.params, v)
	return len(c.params)
}

// Placeholder is shorthand for Bind followed by PostgreSQL's `$n` syntax.
func (c *Context) Placeholder(v any) string {
	return fmt.Sprintf("$%d", c.Bind(v))
}

// Params returns the ordered parameter vector accumulated so far. The
// caller (the facade) reads this once generation completes.
func (c *Context) Params() []any {
	return c.params
}

// LookupBinding returns the caller-supplied value for a $name parameter
// and whether it was present.
func (c *Context) LookupBinding(name string) (any, bool) {
	if c.bindings == nil {
		return nil, false
	}
	v, ok := c.bindings[name]
	return v, ok
}

// Logger returns the injected telemetry logger, never nil.
func (c *Context) Logger() telemetry.Logger {
	return c.logger
}

// AssignAlias returns the table alias bound to variable, minting one if
// this is the first reference. First-seen wins: a second MATCH
// referencing the same variable reuses its alias instead of allocating a
// new FROM entry. prefix is "n" for graph_nodes or "e" for graph_edges —
// both backing tables begin with "graph_", so this uses the noun
// (node/edge) rather than a literal first-letter-of-table-name scheme to
// keep aliases visually distinguishable. An empty variable name mints a
// fresh anonymous alias on every call (anonymous patterns are never
// reused).
func (c *Context) AssignAlias(variable, prefix string) string {
	if variable != "" {
		if alias, ok := c.aliases[variable]; ok {
			return alias
		}
	}

	c.aliasCounter++
	alias := fmt.Sprintf("%s%d", prefix, c.aliasCounter)
	if variable != "" {
		c.aliases[variable] = alias
	}
	return alias
}

// LookupAlias reports the alias already bound to variable, if any.
func (c *Context) LookupAlias(variable string) (string, bool) {
	alias, ok := c.aliases[variable]
	return alias, ok
}

// BindAlias registers alias as the table/CTE reference for variable,
// without mint ing a new one — used by CREATE/MERGE to expose a
// freshly inserted row's CTE name under the pattern's variable the same
// way AssignAlias exposes a MATCH-bound table alias.
func (c *Context) BindAlias(variable, alias string) {
	if variable == "" {
		return
	}
	c.aliases[variable] = alias
}

// NextCTEName mints the next `cte_<k>` identifier.
func (c *Context) NextCTEName() string {
	c.cteCounter++
	return fmt.Sprintf("cte_%d", c.cteCounter)
}

// NextInsertCTEName mints the next `ins_<k>` identifier for a
// data-modifying CTE backing CREATE/MERGE.
func (c *Context) NextInsertCTEName() string {
	c.cteCounter++
	return fmt.Sprintf("ins_%d", c.cteCounter)
}

// NextPathCTEName mints the next `path_<k>` identifier used for a
// variable-length relationship's recursive CTE.
func (c *Context) NextPathCTEName() string {
	c.cteCounter++
	return fmt.Sprintf("path_%d", c.cteCounter)
}
