package sqlgen

import (
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
)

// closeIntoCTE compiles everything accumulated on b into a named CTE
// and returns a fresh builder sourced from it, to which
// subsequent clauses apply. The fresh builder always addresses the CTE
// through the fixed alias "w" (one CTE is active as the current FROM
// source at a time, so the name never needs to vary).
func (b *builder) closeIntoCTE(w *ast.WithClause) (*builder, error) {
	body := w.Return
	if body.Star {
		return nil, &ast.TranslationError{Clause: "WITH", Kind: "unsupported-with-star", Message: "WITH * is not supported"}
	}

	items, err := b.buildProjectionList(body)
	if err != nil {
		return nil, err
	}

	hasAgg := false
	rawByName := make(map[string]string, len(items)) // item name -> SQL without " AS name"
	selectSQL := make([]string, len(items))
	var nonAgg []string
	for i, it := range items {
		selectSQL[i] = it.SQL
		raw := strings.TrimSuffix(it.SQL, " AS "+it.Name)
		rawByName[it.Name] = raw
		if it.IsAggregate {
			hasAgg = true
		} else {
			nonAgg = append(nonAgg, raw)
		}
	}

	var inner strings.Builder
	inner.WriteString("SELECT ")
	if body.Distinct {
		inner.WriteString("DISTINCT ")
	}
	inner.WriteString(strings.Join(selectSQL, ", "))
	inner.WriteString("\n  ")
	inner.WriteString(b.fromSQL())
	inner.WriteString(b.joinSQL())
	inner.WriteString(b.whereSQL())

	if hasAgg && len(nonAgg) > 0 {
		inner.WriteString("\n  GROUP BY " + strings.Join(nonAgg, ", "))
	}

	if w.Where != nil {
		having, err := b.translateHaving(w.Where, rawByName)
		if err != nil {
			return nil, err
		}
		inner.WriteString("\n  HAVING " + having)
	}

	if err := b.appendOrderSkipLimit(&inner, body, projectionNames(items)); err != nil {
		return nil, err
	}

	cteName := b.ctx.NextCTEName()
	b.preambleCTEs = append(b.preambleCTEs, cteName+" AS (\n  "+inner.String()+"\n)")

	next := newBuilder(b.ctx, b.cfg)
	next.preambleCTEs = b.preambleCTEs
	next.anyRecursive = b.anyRecursive
	// The CTE's own WHERE already enforced the tenant filter for
	// everything selected into it; "w" itself never goes through
	// ensureAnchorNode, so nothing here re-applies group_id against it.
	next.fromClause = cteName + " w"
	for _, it := range items {
		next.cteCols[it.Name] = cteColumn{Column: it.Name, JSON: it.IsNodeJSON}
	}
	return next, nil
}

// translateHaving translates a WITH clause's trailing predicate,
// expanding any reference to a projected alias back to its full
// expression — SQL's HAVING clause cannot see SELECT list aliases.
func (b *builder) translateHaving(where ast.Expr, rawByName map[string]string) (string, error) {
	type saved struct {
		value string
		had   bool
	}
	prior := make(map[string]saved, len(rawByName))
	for name, raw := range rawByName {
		prev, had := b.localVars[name]
		prior[name] = saved{value: prev, had: had}
		b.localVars[name] = raw
	}

	sql, err := b.translateExpr(where)

	for name, s := range prior {
		if s.had {
			b.localVars[name] = s.value
		} else {
			delete(b.localVars, name)
		}
	}

	return sql, err
}
