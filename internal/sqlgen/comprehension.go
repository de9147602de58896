package sqlgen

import (
	"fmt"

	"github.com/cyphergraph/pgcypher/internal/ast"
)

// withLocalVar binds name to a raw SQL identifier for the duration of fn,
// restoring (or clearing) any prior binding afterward. Used by list/
// pattern comprehensions and quantifiers, whose bound variable is a SQL
// identifier from `unnest(...)`, not a MATCH-bound table alias.
func (b *builder) withLocalVar(name, sql string, fn func() (access, error)) (access, error) {
	prev, had := b.localVars[name]
	b.localVars[name] = sql
	result, err := fn()
	if had {
		b.localVars[name] = prev
	} else {
		delete(b.localVars, name)
	}
	return result, err
}

// translateListComprehension lowers [x IN xs WHERE p | e] to
// `ARRAY(SELECT e FROM unnest(xs) AS x WHERE p)` — a direct Postgres
// idiom for the same set-builder semantics.
func (b *builder) translateListComprehension(v ast.ListComprehension) (access, error) {
	source, err := b.translateExpr(v.Source)
	if err != nil {
		return access{}, err
	}

	return b.withLocalVar(v.Variable, v.Variable, func() (access, error) {
		mapping := v.Variable
		if v.Mapping != nil {
			m, err := b.translateExpr(v.Mapping)
			if err != nil {
				return access{}, err
			}
			mapping = m
		}

		sql := fmt.Sprintf("ARRAY(SELECT %s FROM unnest(%s) AS %s", mapping, source, v.Variable)
		if v.Where != nil {
			where, err := b.translateExpr(v.Where)
			if err != nil {
				return access{}, err
			}
			sql += " WHERE " + where
		}
		sql += ")"
		return access{sql: sql}, nil
	})
}

// translateQuantifier lowers ALL/ANY/NONE/SINGLE(x IN xs WHERE p) to an
// EXISTS/COUNT subquery over `unnest(xs)`.
func (b *builder) translateQuantifier(v ast.Quantifier) (access, error) {
	source, err := b.translateExpr(v.Source)
	if err != nil {
		return access{}, err
	}

	return b.withLocalVar(v.Variable, v.Variable, func() (access, error) {
		where := "TRUE"
		if v.Where != nil {
			w, err := b.translateExpr(v.Where)
			if err != nil {
				return access{}, err
			}
			where = w
		}

		from := fmt.Sprintf("unnest(%s) AS %s", source, v.Variable)
		switch v.Kind {
		case "ANY":
			return access{sql: fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)", from, where)}, nil
		case "NONE":
			return access{sql: fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s WHERE %s)", from, where)}, nil
		case "ALL":
			return access{sql: fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s WHERE NOT (%s))", from, where)}, nil
		default: // SINGLE
			return access{sql: fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s) = 1", from, where)}, nil
		}
	})
}

// translatePatternComprehension lowers [pattern WHERE p | e] to a
// correlated ARRAY(SELECT ...) over the same FROM/JOIN machinery a MATCH
// pattern uses, scoped to a throwaway builder so its FROM/JOIN/WHERE
// fragments never leak into the enclosing query's. Variables the pattern
// introduces are still registered in the shared alias map.
func (b *builder) translatePatternComprehension(v ast.PatternComprehension) (access, error) {
	sub := newBuilder(b.ctx, b.cfg)
	// Share alias/CTE state with the parent so an anchor node already
	// bound in the outer query (a correlated reference) reuses its alias
	// instead of re-matching it.
	sub.varKind = b.varKind
	sub.cteCols = b.cteCols

	pattern := &ast.Pattern{Elements: []*ast.PatternElement{v.Pattern}}
	if err := sub.applyPattern(pattern, false); err != nil {
		return access{}, err
	}
	if sub.fromClause == "" {
		// A correlated anchor adds no FROM entry of its own; the joins
		// still need one to attach to.
		sub.fromClause = "(SELECT 1) AS pc_seed"
	}

	if v.Where != nil {
		cond, err := sub.translateExpr(v.Where)
		if err != nil {
			return access{}, err
		}
		sub.addWhere(cond)
	}

	mapping, err := sub.translateExpr(v.Mapping)
	if err != nil {
		return access{}, err
	}

	sql := fmt.Sprintf("ARRAY(SELECT %s %s%s%s)", mapping, sub.fromSQL(), sub.joinSQL(), sub.whereSQL())
	return access{sql: sql}, nil
}
