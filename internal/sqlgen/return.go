package sqlgen

import (
	"fmt"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
)

// projectionItem is one resolved SELECT list entry, carrying enough
// metadata (Name, IsAggregate, IsNodeJSON) for both the GROUP BY rule
// and WITH's CTE-column bookkeeping.
type projectionItem struct {
	SQL         string
	Name        string
	IsAggregate bool
	IsNodeJSON  bool
}

// buildProjectionList resolves a ReturnClause's projections into SQL,
// inferring a column name for each (explicit alias, else the variable or
// property name, else a synthetic name) so later clauses can address it.
func (b *builder) buildProjectionList(r *ast.ReturnClause) ([]projectionItem, error) {
	items := make([]projectionItem, 0, len(r.Projections))
	for i, p := range r.Projections {
		item, err := b.buildProjectionItem(p, i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (b *builder) buildProjectionItem(p *ast.Projection, index int) (projectionItem, error) {
	name := p.Alias
	isAgg := containsAggregate(p.Expr)

	if v, ok := p.Expr.(ast.Variable); ok {
		if name == "" {
			name = v.Name
		}
		if col, ok := b.cteCols[v.Name]; ok {
			sql := "w." + col.Column
			return projectionItem{SQL: withAlias(sql, name), Name: name, IsAggregate: isAgg, IsNodeJSON: col.JSON}, nil
		}
		if kind, ok := b.varKind[v.Name]; ok && kind == "node" {
			alias, _ := b.ctx.LookupAlias(v.Name)
			sql := fmt.Sprintf("row_to_json(%s.*)", alias)
			return projectionItem{SQL: withAlias(sql, name), Name: name, IsAggregate: false, IsNodeJSON: true}, nil
		}
	}

	if pa, ok := p.Expr.(ast.PropertyAccess); ok && name == "" {
		name = pa.Key
	}
	if name == "" {
		name = fmt.Sprintf("expr_%d", index+1)
	}

	sql, err := b.translateExpr(p.Expr)
	if err != nil {
		return projectionItem{}, err
	}
	return projectionItem{SQL: withAlias(sql, name), Name: name, IsAggregate: isAgg, IsNodeJSON: false}, nil
}

func withAlias(sql, name string) string {
	return sql + " AS " + name
}

// containsAggregate reports whether e contains a call to one of the five
// aggregate functions anywhere in its tree.
func containsAggregate(e ast.Expr) bool {
	switch v := e.(type) {
	case ast.FunctionCall:
		if isAggregateFunction(v.Name) {
			return true
		}
		for _, a := range v.Args {
			if containsAggregate(a) {
				return true
			}
		}
	case ast.BinaryOp:
		return containsAggregate(v.Left) || containsAggregate(v.Right)
	case ast.UnaryOp:
		return containsAggregate(v.Expr)
	case ast.ComparisonOp:
		if containsAggregate(v.Left) {
			return true
		}
		return v.Right != nil && containsAggregate(v.Right)
	case ast.CaseExpression:
		if v.Test != nil && containsAggregate(v.Test) {
			return true
		}
		for _, w := range v.Whens {
			if containsAggregate(w.When) || containsAggregate(w.Then) {
				return true
			}
		}
		return v.Else != nil && containsAggregate(v.Else)
	}
	return false
}

// buildReturn renders a ReturnClause (or a WITH's shared body) into a full
// SELECT statement body (no leading CTE preamble — the caller prepends
// that).
func (b *builder) buildReturn(r *ast.ReturnClause) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if r.Distinct {
		sb.WriteString("DISTINCT ")
	}

	if r.Star {
		sb.WriteString("*")
	} else {
		items, err := b.buildProjectionList(r)
		if err != nil {
			return "", err
		}

		selectSQL := make([]string, len(items))
		var nonAgg []string
		hasAgg := false
		for i, it := range items {
			selectSQL[i] = it.SQL
			if it.IsAggregate {
				hasAgg = true
			}
		}
		for _, it := range items {
			if !it.IsAggregate {
				// Strip the trailing " AS name" for GROUP BY purposes —
				// PostgreSQL groups by the underlying expression.
				nonAgg = append(nonAgg, strings.TrimSuffix(it.SQL, " AS "+it.Name))
			}
		}

		sb.WriteString(strings.Join(selectSQL, ", "))
		sb.WriteString("\n")
		sb.WriteString(b.fromSQL())
		sb.WriteString(b.joinSQL())
		sb.WriteString(b.whereSQL())

		if hasAgg && len(nonAgg) > 0 {
			sb.WriteString("\nGROUP BY " + strings.Join(nonAgg, ", "))
		}

		if err := b.appendOrderSkipLimit(&sb, r, projectionNames(items)); err != nil {
			return "", err
		}
		return sb.String(), nil
	}

	sb.WriteString("\n")
	sb.WriteString(b.fromSQL())
	sb.WriteString(b.joinSQL())
	sb.WriteString(b.whereSQL())
	if err := b.appendOrderSkipLimit(&sb, r, nil); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// projectionNames collects the output column names a SELECT list exposes,
// so appendOrderSkipLimit can tell a bare ORDER BY reference to one of
// them apart from a reference to a bound graph variable of the same name.
func projectionNames(items []projectionItem) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	names := make(map[string]bool, len(items))
	for _, it := range items {
		names[it.Name] = true
	}
	return names
}

func (b *builder) appendOrderSkipLimit(sb *strings.Builder, r *ast.ReturnClause, names map[string]bool) error {
	if len(r.OrderBy) > 0 {
		parts := make([]string, len(r.OrderBy))
		for i, s := range r.OrderBy {
			var sql string
			if v, ok := s.Expr.(ast.Variable); ok && names[v.Name] && !b.isBoundVariable(v.Name) {
				// PostgreSQL lets ORDER BY address a SELECT list output
				// column by name directly. Only take this path when the
				// name isn't itself a bound graph variable, so ordering
				// by a matched node still sorts on its identity rather
				// than its projected JSON column.
				sql = v.Name
			} else {
				var err error
				sql, err = b.translateExpr(s.Expr)
				if err != nil {
					return err
				}
			}
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			parts[i] = sql + " " + dir
		}
		sb.WriteString("\nORDER BY " + strings.Join(parts, ", "))
	}
	if r.Skip != nil {
		sql, err := b.translateExpr(r.Skip)
		if err != nil {
			return err
		}
		sb.WriteString("\nOFFSET " + sql)
	}
	if r.Limit != nil {
		sql, err := b.translateExpr(r.Limit)
		if err != nil {
			return err
		}
		sb.WriteString("\nLIMIT " + sql)
	}
	return nil
}
