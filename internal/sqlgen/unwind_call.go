package sqlgen

import (
	"fmt"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
)

// applyUnwind lowers `UNWIND expr AS x` to a lateral jsonb_array_elements
// join. to_jsonb wraps the source so both a native Postgres ARRAY[...]
// (a list literal or comprehension result) and an already-JSONB value (a
// property path or bound parameter) unnest the same way; x is then a
// jsonb scalar, addressed through the same localVars mechanism
// comprehension-bound variables use.
func (b *builder) applyUnwind(u *ast.UnwindClause) error {
	source, err := b.translateExpr(u.Expr)
	if err != nil {
		return err
	}
	alias := b.ctx.AssignAlias(u.Variable, "u")
	frag := fmt.Sprintf("CROSS JOIN LATERAL jsonb_array_elements(to_jsonb(%s)) AS %s", source, alias)
	if b.fromClause == "" {
		// UNWIND with nothing preceding it still needs a FROM to join against.
		b.fromClause = "(SELECT 1) AS unwind_seed"
	}
	b.joins = append(b.joins, frag)
	b.localVars[u.Variable] = alias
	return nil
}

// applyCall lowers `CALL proc(args) YIELD a, b` to a set-returning
// function call in the FROM list, aliasing its output columns to the
// YIELD names. The translator has no procedure registry of its own — it
// trusts proc to exist in the target database and simply plumbs
// arguments and column names through.
func (b *builder) applyCall(c *ast.CallClause) error {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		sql, err := b.translateExpr(a)
		if err != nil {
			return err
		}
		args[i] = sql
	}
	alias := b.ctx.AssignAlias("", "p")
	frag := fmt.Sprintf("%s(%s) AS %s(%s)", c.Procedure, strings.Join(args, ", "), alias, strings.Join(c.Yield, ", "))
	if b.fromClause == "" {
		b.fromClause = frag
	} else {
		b.joins = append(b.joins, "CROSS JOIN "+frag)
	}
	for _, y := range c.Yield {
		b.localVars[y] = alias + "." + y
	}
	return nil
}
