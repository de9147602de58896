package sqlgen

import (
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
	"github.com/cyphergraph/pgcypher/internal/config"
	"github.com/cyphergraph/pgcypher/internal/sqlctx"
)

// Generate walks q's clauses in order and emits one parameterized SQL
// statement, recursing into q.Unions and joining branches with
// UNION/UNION ALL. All branches share ctx, so parameters from
// every branch land in one contiguous, correctly ordered $n sequence.
func Generate(q *ast.Query, cfg config.TranslatorConfig, ctx *sqlctx.Context) (string, error) {
	sql, err := generateBranch(q, cfg, ctx)
	if err != nil {
		return "", err
	}
	if len(q.Unions) == 0 {
		return sql, nil
	}

	kw := "UNION"
	if q.UnionAll {
		kw = "UNION ALL"
	}
	parts := []string{"(" + sql + ")"}
	for _, u := range q.Unions {
		usql, err := generateBranch(u, cfg, ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, kw, "("+usql+")")
	}
	return strings.Join(parts, "\n"), nil
}

// generateBranch lowers one Query's Clauses against a single linear chain
// of builders, swapping in closeIntoCTE's fresh builder whenever a WITH
// clause closes the one before it.
func generateBranch(q *ast.Query, cfg config.TranslatorConfig, ctx *sqlctx.Context) (string, error) {
	b := newBuilder(ctx, cfg)
	var finalSQL string
	produced := false

	for _, cl := range q.Clauses {
		switch {
		case cl.Match != nil:
			if err := b.applyMatch(cl.Match); err != nil {
				return "", err
			}
		case cl.Unwind != nil:
			if err := b.applyUnwind(cl.Unwind); err != nil {
				return "", err
			}
		case cl.Call != nil:
			if err := b.applyCall(cl.Call); err != nil {
				return "", err
			}
		case cl.With != nil:
			next, err := b.closeIntoCTE(cl.With)
			if err != nil {
				return "", err
			}
			b = next
		case cl.Create != nil:
			if err := b.applyCreate(cl.Create); err != nil {
				return "", err
			}
		case cl.Merge != nil:
			if err := b.applyMerge(cl.Merge); err != nil {
				return "", err
			}
		case cl.Delete != nil:
			sql, err := b.buildDelete(cl.Delete)
			if err != nil {
				return "", err
			}
			finalSQL, produced = sql, true
		case cl.Set != nil:
			sql, err := b.buildSet(cl.Set)
			if err != nil {
				return "", err
			}
			finalSQL, produced = sql, true
		case cl.Remove != nil:
			sql, err := b.buildRemove(cl.Remove)
			if err != nil {
				return "", err
			}
			finalSQL, produced = sql, true
		case cl.Return != nil:
			body, err := b.buildReturn(cl.Return)
			if err != nil {
				return "", err
			}
			finalSQL, produced = b.preamble()+body, true
		default:
			return "", &ast.TranslationError{Kind: "empty-clause", Message: "clause has no recognized body"}
		}
	}

	if produced {
		return finalSQL, nil
	}

	// A query ending in CREATE/MERGE with no trailing RETURN still needs a
	// single non-WITH top-level statement for Postgres to accept, and for
	// every data-modifying CTE above to be guaranteed to run — reuse the
	// FROM/JOIN list the CREATE/MERGE calls already built (it already
	// cross-joins every inserted row) as a plain projection of it.
	if b.fromClause == "" {
		return "", &ast.TranslationError{Kind: "no-terminal-clause", Message: "query has no RETURN, DELETE, SET, REMOVE, CREATE, or MERGE to terminate it"}
	}
	return b.preamble() + "SELECT * " + b.fromSQL() + b.joinSQL(), nil
}
