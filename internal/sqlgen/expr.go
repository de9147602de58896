package sqlgen

import (
	"fmt"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
)

// access is the result of resolving an expression used as a property
// base: the SQL to reach it, and whether that SQL is an untyped JSONB
// text access (`->>`) eligible for the numeric-coercion rule.
type access struct {
	sql       string
	jsonbText bool
}

// translateExpr lowers one AST expression to a SQL fragment, binding
// parameters into b.ctx as it goes.
func (b *builder) translateExpr(e ast.Expr) (string, error) {
	a, err := b.translate(e)
	if err != nil {
		return "", err
	}
	return a.sql, nil
}

func (b *builder) translate(e ast.Expr) (access, error) {
	switch v := e.(type) {
	case ast.Variable:
		return b.translateVariable(v)
	case ast.Param:
		return b.translateParam(v)
	case ast.IntLiteral:
		return access{sql: fmt.Sprintf("%d", v.Value)}, nil
	case ast.FloatLiteral:
		return access{sql: fmt.Sprintf("%v", v.Value)}, nil
	case ast.StringLiteral:
		return access{sql: b.ctx.Placeholder(v.Value)}, nil
	case ast.BoolLiteral:
		if v.Value {
			return access{sql: "TRUE"}, nil
		}
		return access{sql: "FALSE"}, nil
	case ast.NullLiteral:
		return access{sql: "NULL"}, nil
	case ast.ListLiteral:
		return b.translateListLiteral(v)
	case ast.MapLiteral:
		return b.translateMapLiteral(v)
	case ast.PropertyAccess:
		return b.translatePropertyAccess(v)
	case ast.IndexAccess:
		return b.translateIndexAccess(v)
	case ast.FunctionCall:
		return b.translateFunctionCall(v)
	case ast.BinaryOp:
		return b.translateBinaryOp(v)
	case ast.UnaryOp:
		return b.translateUnaryOp(v)
	case ast.ComparisonOp:
		return b.translateComparisonOp(v)
	case ast.CaseExpression:
		return b.translateCaseExpression(v)
	case ast.ListComprehension:
		return b.translateListComprehension(v)
	case ast.PatternComprehension:
		return b.translatePatternComprehension(v)
	case ast.Quantifier:
		return b.translateQuantifier(v)
	default:
		return access{}, &ast.TranslationError{Kind: "unsupported-expr", Message: fmt.Sprintf("%T", e)}
	}
}

// translateVariable resolves a bare variable reference. Bound to a node
// or relationship alias, it emits `alias.uuid`; projected out of a WITH
// clause's CTE it emits the CTE column directly.
func (b *builder) translateVariable(v ast.Variable) (access, error) {
	if sql, ok := b.localVars[v.Name]; ok {
		return access{sql: sql}, nil
	}
	if col, ok := b.cteCols[v.Name]; ok {
		return access{sql: "w." + col.Column}, nil
	}
	if alias, ok := b.ctx.LookupAlias(v.Name); ok {
		return access{sql: alias + ".uuid"}, nil
	}
	return access{}, &ast.TranslationError{Kind: "unbound-variable", Message: fmt.Sprintf("variable %q is not bound by a preceding MATCH/WITH/UNWIND", v.Name)}
}

// translateBaseAlias resolves an expression used as a PropertyAccess base
// to the bare table alias (or CTE reference) it addresses, as opposed to
// translateVariable's `alias.uuid` form (: "unless used as a
// PropertyAccess base, then alias").
func (b *builder) translateBaseAlias(e ast.Expr) (alias string, kind string, isCTE bool, cteCol cteColumn, err error) {
	v, ok := e.(ast.Variable)
	if !ok {
		return "", "", false, cteColumn{}, nil
	}
	if col, ok := b.cteCols[v.Name]; ok {
		return "", "", true, col, nil
	}
	a, ok := b.ctx.LookupAlias(v.Name)
	if !ok {
		return "", "", false, cteColumn{}, &ast.TranslationError{Kind: "unbound-variable", Message: fmt.Sprintf("variable %q is not bound by a preceding MATCH/WITH/UNWIND", v.Name)}
	}
	return a, b.varKind[v.Name], false, cteColumn{}, nil
}

func (b *builder) translateParam(p ast.Param) (access, error) {
	v, ok := b.ctx.LookupBinding(p.Name)
	if !ok {
		if b.cfg.StrictBindings {
			return access{}, &BindingError{Param: p.Name, Message: "no value supplied for parameter"}
		}
		return access{sql: "NULL"}, nil
	}
	return access{sql: b.ctx.Placeholder(v)}, nil
}

func (b *builder) translateListLiteral(v ast.ListLiteral) (access, error) {
	items := make([]string, 0, len(v.Items))
	for _, it := range v.Items {
		s, err := b.translateExpr(it)
		if err != nil {
			return access{}, err
		}
		items = append(items, s)
	}
	return access{sql: "ARRAY[" + strings.Join(items, ", ") + "]"}, nil
}

func (b *builder) translateMapLiteral(v ast.MapLiteral) (access, error) {
	// A map literal is bound as a single parameter; numeric/string/bool/
	// null values translate through the same literal rules, and the pairs
	// are collected into a Go map that is bound as-is (the map itself,
	// not a JSON string of it, is what Params returns).
	m := make(map[string]any, len(v.Pairs))
	for _, pair := range v.Pairs {
		val, err := literalGoValue(pair.Value)
		if err != nil {
			return access{}, err
		}
		m[pair.Key] = val
	}
	return access{sql: b.ctx.Placeholder(m)}, nil
}

// literalGoValue converts a constant expression (the values a map
// literal may legally hold) into a plain Go value for JSON
// serialization at bind time.
func literalGoValue(e ast.Expr) (any, error) {
	switch v := e.(type) {
	case ast.IntLiteral:
		return v.Value, nil
	case ast.FloatLiteral:
		return v.Value, nil
	case ast.StringLiteral:
		return v.Value, nil
	case ast.BoolLiteral:
		return v.Value, nil
	case ast.NullLiteral:
		return nil, nil
	case ast.ListLiteral:
		items := make([]any, 0, len(v.Items))
		for _, it := range v.Items {
			val, err := literalGoValue(it)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return items, nil
	case ast.MapLiteral:
		m := make(map[string]any, len(v.Pairs))
		for _, pair := range v.Pairs {
			val, err := literalGoValue(pair.Value)
			if err != nil {
				return nil, err
			}
			m[pair.Key] = val
		}
		return m, nil
	default:
		return nil, &ast.TranslationError{Kind: "non-constant-map-value", Message: "map literal values must be constant expressions"}
	}
}

// translatePropertyAccess resolves a.k to a column reference (known
// column) or a JSONB path access.
func (b *builder) translatePropertyAccess(v ast.PropertyAccess) (access, error) {
	return b.propertyAccessExpr(v.Base, v.Key)
}

func (b *builder) propertyAccessExpr(base ast.Expr, key string) (access, error) {
	if v, ok := base.(ast.Variable); ok {
		if localSQL, ok := b.localVars[v.Name]; ok {
			return access{sql: fmt.Sprintf("%s->>'%s'", localSQL, key), jsonbText: true}, nil
		}
		if col, ok := b.cteCols[v.Name]; ok {
			if col.JSON {
				return access{sql: fmt.Sprintf("w.%s->>'%s'", col.Column, key), jsonbText: true}, nil
			}
			return access{sql: "w." + col.Column}, nil
		}
		if alias, ok := b.ctx.LookupAlias(v.Name); ok {
			return b.propertyAccessSQL(alias, b.varKind[v.Name], key)
		}
		return access{}, &ast.TranslationError{Kind: "unbound-variable", Message: fmt.Sprintf("variable %q is not bound by a preceding MATCH/WITH/UNWIND", v.Name)}
	}

	// base is a general expression (e.g. another PropertyAccess or a
	// parameter): treat it as a JSONB value and index into it.
	baseSQL, err := b.translateExpr(base)
	if err != nil {
		return access{}, err
	}
	return access{sql: fmt.Sprintf("%s->>'%s'", baseSQL, key), jsonbText: true}, nil
}

// propertyAccessSQL builds the column or JSONB-path reference for key on
// alias, given the alias's kind ("node"/"edge").
func (b *builder) propertyAccessSQL(alias, kind, key string) (access, error) {
	if b.knownColumn(kind, key) {
		return access{sql: alias + "." + key}, nil
	}
	return access{sql: fmt.Sprintf("%s.properties->>'%s'", alias, key), jsonbText: true}, nil
}

func (b *builder) translateIndexAccess(v ast.IndexAccess) (access, error) {
	baseSQL, err := b.translateExpr(v.Base)
	if err != nil {
		return access{}, err
	}
	idxSQL, err := b.translateExpr(v.Index)
	if err != nil {
		return access{}, err
	}
	return access{sql: fmt.Sprintf("(%s)[%s]", baseSQL, idxSQL)}, nil
}

func (b *builder) translateBinaryOp(v ast.BinaryOp) (access, error) {
	left, err := b.translateExpr(v.Left)
	if err != nil {
		return access{}, err
	}
	right, err := b.translateExpr(v.Right)
	if err != nil {
		return access{}, err
	}

	op := v.Op
	if op == "^" {
		return access{sql: fmt.Sprintf("(%s ^ %s)", left, right)}, nil
	}
	return access{sql: fmt.Sprintf("(%s %s %s)", left, op, right)}, nil
}

func (b *builder) translateUnaryOp(v ast.UnaryOp) (access, error) {
	inner, err := b.translateExpr(v.Expr)
	if err != nil {
		return access{}, err
	}
	if v.Op == "NOT" {
		return access{sql: fmt.Sprintf("(NOT %s)", inner)}, nil
	}
	return access{sql: fmt.Sprintf("(%s%s)", v.Op, inner)}, nil
}

func (b *builder) translateComparisonOp(v ast.ComparisonOp) (access, error) {
	left, err := b.translate(v.Left)
	if err != nil {
		return access{}, err
	}

	switch v.Op {
	case "IS NULL":
		return access{sql: fmt.Sprintf("%s IS NULL", left.sql)}, nil
	case "IS NOT NULL":
		return access{sql: fmt.Sprintf("%s IS NOT NULL", left.sql)}, nil
	case "CONTAINS":
		right, err := b.translateExpr(v.Right)
		if err != nil {
			return access{}, err
		}
		return access{sql: fmt.Sprintf("%s LIKE '%%' || %s || '%%'", left.sql, right)}, nil
	case "STARTS WITH":
		right, err := b.translateExpr(v.Right)
		if err != nil {
			return access{}, err
		}
		return access{sql: fmt.Sprintf("%s LIKE %s || '%%'", left.sql, right)}, nil
	case "ENDS WITH":
		right, err := b.translateExpr(v.Right)
		if err != nil {
			return access{}, err
		}
		return access{sql: fmt.Sprintf("%s LIKE '%%' || %s", left.sql, right)}, nil
	case "=~":
		right, err := b.translateExpr(v.Right)
		if err != nil {
			return access{}, err
		}
		return access{sql: fmt.Sprintf("%s ~ %s", left.sql, right)}, nil
	case "IN":
		right, err := b.translateExpr(v.Right)
		if err != nil {
			return access{}, err
		}
		leftSQL := left.sql
		if left.jsonbText && listFirstElementNumeric(v.Right) {
			leftSQL = coerceNumeric(leftSQL)
		}
		return access{sql: fmt.Sprintf("%s = ANY(%s)", leftSQL, right)}, nil
	default:
		right, err := b.translate(v.Right)
		if err != nil {
			return access{}, err
		}
		leftSQL := left.sql
		if left.jsonbText && isNumericLiteral(v.Right) {
			leftSQL = coerceNumeric(leftSQL)
		}
		return access{sql: fmt.Sprintf("%s %s %s", leftSQL, v.Op, right.sql)}, nil
	}
}

func (b *builder) translateCaseExpression(v ast.CaseExpression) (access, error) {
	var sb strings.Builder
	sb.WriteString("CASE")
	if v.Test != nil {
		test, err := b.translateExpr(v.Test)
		if err != nil {
			return access{}, err
		}
		sb.WriteString(" " + test)
	}
	for _, w := range v.Whens {
		when, err := b.translateExpr(w.When)
		if err != nil {
			return access{}, err
		}
		then, err := b.translateExpr(w.Then)
		if err != nil {
			return access{}, err
		}
		sb.WriteString(fmt.Sprintf(" WHEN %s THEN %s", when, then))
	}
	if v.Else != nil {
		elseSQL, err := b.translateExpr(v.Else)
		if err != nil {
			return access{}, err
		}
		sb.WriteString(" ELSE " + elseSQL)
	}
	sb.WriteString(" END")
	return access{sql: sb.String()}, nil
}

// translateFunctionCall applies the name mapping table,
// including the inEpisode sugar and the ::numeric coercion for
// aggregate calls over JSONB text accesses.
func (b *builder) translateFunctionCall(v ast.FunctionCall) (access, error) {
	if strings.EqualFold(v.Name, "inEpisode") && len(v.Args) == 2 {
		return b.translateInEpisode(v)
	}

	if strings.EqualFold(v.Name, "count") && len(v.Args) == 1 {
		if vv, ok := v.Args[0].(ast.Variable); ok && vv.Name == "*" {
			return access{sql: "COUNT(*)"}, nil
		}
	}

	args := make([]access, 0, len(v.Args))
	for _, a := range v.Args {
		av, err := b.translate(a)
		if err != nil {
			return access{}, err
		}
		args = append(args, av)
	}

	if isAggregateFunction(v.Name) && !strings.EqualFold(v.Name, "count") && len(args) == 1 && args[0].jsonbText {
		args[0] = access{sql: coerceNumeric(args[0].sql)}
	}

	argSQLs := make([]string, len(args))
	for i, a := range args {
		argSQLs[i] = a.sql
	}

	prefix := ""
	if v.Distinct {
		prefix = "DISTINCT "
	}
	return access{sql: fmt.Sprintf("%s(%s%s)", mapFunctionName(v.Name), prefix, strings.Join(argSQLs, ", "))}, nil
}

// translateInEpisode maps `inEpisode(e, $uuid)` to `$uuid = ANY(alias.episodes)`.
func (b *builder) translateInEpisode(v ast.FunctionCall) (access, error) {
	alias, _, isCTE, _, err := b.translateBaseAlias(v.Args[0])
	if err != nil {
		return access{}, err
	}
	if isCTE || alias == "" {
		return access{}, &ast.TranslationError{Kind: "bad-inepisode", Message: "inEpisode's first argument must be a relationship variable"}
	}
	rhs, err := b.translateExpr(v.Args[1])
	if err != nil {
		return access{}, err
	}
	return access{sql: fmt.Sprintf("%s = ANY(%s.episodes)", rhs, alias)}, nil
}

// isNumericLiteral reports whether e is an int or float literal — the
// trigger for the JSONB-text numeric coercion rule.
func isNumericLiteral(e ast.Expr) bool {
	switch e.(type) {
	case ast.IntLiteral, ast.FloatLiteral:
		return true
	default:
		return false
	}
}

// listFirstElementNumeric reports whether e is a ListLiteral whose first
// element is numeric, the IN-specific variant of the coercion trigger.
func listFirstElementNumeric(e ast.Expr) bool {
	list, ok := e.(ast.ListLiteral)
	if !ok || len(list.Items) == 0 {
		return false
	}
	return isNumericLiteral(list.Items[0])
}

// coerceNumeric rewrites a `->>'k'` text access to `(...->'k')::numeric`
// so a JSONB property can be compared against a number.
func coerceNumeric(sql string) string {
	if i := strings.LastIndex(sql, "->>'"); i >= 0 {
		return "(" + sql[:i] + "->'" + sql[i+4:] + ")::numeric"
	}
	return "(" + sql + ")::numeric"
}
