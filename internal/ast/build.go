package ast

import (
	"strconv"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/grammar"
)

// Build converts a concrete parse tree into the typed AST, resolving the
// grammar's disambiguation groups (direction arrows, hop ranges, the
// ComparisonTerm/SetItem alternations) into the closed shapes sqlgen
// walks.
func Build(script *grammar.Script) (*Query, error) {
	return buildQuery(script.Query)
}

func buildQuery(q *grammar.Query) (*Query, error) {
	clauses, err := buildClauses(q.Single.Clauses)
	if err != nil {
		return nil, err
	}

	result := &Query{Clauses: clauses}
	for _, u := range q.Unions {
		branch, err := buildQuery(&grammar.Query{Single: u.Single})
		if err != nil {
			return nil, err
		}
		if u.All {
			result.UnionAll = true
		}
		result.Unions = append(result.Unions, branch)
	}
	return result, nil
}

func buildClauses(gcs []*grammar.Clause) ([]Clause, error) {
	clauses := make([]Clause, 0, len(gcs))
	for _, gc := range gcs {
		c, err := buildClause(gc)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func buildClause(gc *grammar.Clause) (Clause, error) {
	switch {
	case gc.Match != nil:
		m, err := buildMatchClause(gc.Match)
		return Clause{Match: m}, err
	case gc.Unwind != nil:
		u, err := buildUnwindClause(gc.Unwind)
		return Clause{Unwind: u}, err
	case gc.Call != nil:
		c, err := buildCallClause(gc.Call)
		return Clause{Call: c}, err
	case gc.Create != nil:
		c, err := buildCreateClause(gc.Create)
		return Clause{Create: c}, err
	case gc.Merge != nil:
		m, err := buildMergeClause(gc.Merge)
		return Clause{Merge: m}, err
	case gc.Delete != nil:
		d, err := buildDeleteClause(gc.Delete)
		return Clause{Delete: d}, err
	case gc.Set != nil:
		s, err := buildSetClause(gc.Set)
		return Clause{Set: s}, err
	case gc.Remove != nil:
		r, err := buildRemoveClause(gc.Remove)
		return Clause{Remove: r}, err
	case gc.With != nil:
		w, err := buildWithClause(gc.With)
		return Clause{With: w}, err
	case gc.Return != nil:
		r, err := buildReturnClause(gc.Return)
		return Clause{Return: r}, err
	}
	return Clause{}, &TranslationError{Kind: "empty-clause", Message: "clause has no recognized body"}
}

// ----------------------------------------------------------------------
// Clauses
// ----------------------------------------------------------------------

func buildMatchClause(gm *grammar.MatchClause) (*MatchClause, error) {
	patterns, err := buildPatterns(gm.Patterns)
	if err != nil {
		return nil, err
	}
	m := &MatchClause{Optional: gm.Optional, Patterns: patterns}
	if gm.Where != nil {
		where, err := buildExpression(gm.Where.Expr)
		if err != nil {
			return nil, err
		}
		m.Where = where
	}
	return m, nil
}

func buildUnwindClause(gu *grammar.UnwindClause) (*UnwindClause, error) {
	expr, err := buildExpression(gu.Expr)
	if err != nil {
		return nil, err
	}
	return &UnwindClause{Expr: expr, Variable: gu.As}, nil
}

func buildCallClause(gc *grammar.CallClause) (*CallClause, error) {
	c := &CallClause{Procedure: gc.Procedure.String()}
	if gc.Args != nil {
		args, err := buildExpressionList(gc.Args.Exprs)
		if err != nil {
			return nil, err
		}
		c.Args = args
	}
	for _, y := range gc.Yield {
		c.Yield = append(c.Yield, y.Name)
	}
	return c, nil
}

func buildReturnClause(gr *grammar.ReturnClause) (*ReturnClause, error) {
	return buildProjectionBody(gr.Body)
}

func buildWithClause(gw *grammar.WithClause) (*WithClause, error) {
	body, err := buildProjectionBody(gw.Body)
	if err != nil {
		return nil, err
	}
	w := &WithClause{Return: body}
	if gw.Where != nil {
		where, err := buildExpression(gw.Where.Expr)
		if err != nil {
			return nil, err
		}
		w.Where = where
	}
	return w, nil
}

func buildProjectionBody(gb *grammar.ProjectionBody) (*ReturnClause, error) {
	r := &ReturnClause{Distinct: gb.Distinct}

	if gb.Items.Star {
		r.Star = true
	} else {
		for _, item := range gb.Items.Items {
			expr, err := buildExpression(item.Expr)
			if err != nil {
				return nil, err
			}
			r.Projections = append(r.Projections, &Projection{Expr: expr, Alias: item.Alias})
		}
	}

	if gb.Order != nil {
		for _, item := range gb.Order.Items {
			expr, err := buildExpression(item.Expr)
			if err != nil {
				return nil, err
			}
			r.OrderBy = append(r.OrderBy, &SortItem{Expr: expr, Desc: item.Desc})
		}
	}

	if gb.Skip != nil {
		expr, err := buildExpression(gb.Skip.Expr)
		if err != nil {
			return nil, err
		}
		r.Skip = expr
	}

	if gb.Limit != nil {
		expr, err := buildExpression(gb.Limit.Expr)
		if err != nil {
			return nil, err
		}
		r.Limit = expr
	}

	return r, nil
}

func buildCreateClause(gc *grammar.CreateClause) (*CreateClause, error) {
	patterns, err := buildPatterns(gc.Patterns)
	if err != nil {
		return nil, err
	}
	return &CreateClause{Patterns: patterns}, nil
}

func buildMergeClause(gm *grammar.MergeClause) (*MergeClause, error) {
	pattern, err := buildPattern(gm.Pattern)
	if err != nil {
		return nil, err
	}
	m := &MergeClause{Pattern: pattern}
	for _, action := range gm.Actions {
		items, err := buildSetItems(action.Set.Items)
		if err != nil {
			return nil, err
		}
		if action.OnMatch {
			m.OnMatch = append(m.OnMatch, items...)
		} else {
			m.OnCreate = append(m.OnCreate, items...)
		}
	}
	return m, nil
}

func buildDeleteClause(gd *grammar.DeleteClause) (*DeleteClause, error) {
	exprs, err := buildExpressionList(gd.Exprs)
	if err != nil {
		return nil, err
	}
	return &DeleteClause{Detach: gd.Detach, Expressions: exprs}, nil
}

func buildSetClause(gs *grammar.SetClause) (*SetClause, error) {
	items, err := buildSetItems(gs.Items)
	if err != nil {
		return nil, err
	}
	return &SetClause{Items: items}, nil
}

func buildSetItems(gitems []*grammar.SetItem) ([]*SetItem, error) {
	items := make([]*SetItem, 0, len(gitems))
	for _, gi := range gitems {
		item, err := buildSetItem(gi)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// buildSetItem resolves which of the grammar's three SetItem alternations
// matched, based on which group of fields participle populated.
func buildSetItem(gi *grammar.SetItem) (*SetItem, error) {
	switch {
	case gi.PropertyVar != "":
		value, err := buildExpression(gi.PropertyValue)
		if err != nil {
			return nil, err
		}
		return &SetItem{Variable: gi.PropertyVar, Property: gi.PropertyKey, Value: value}, nil

	case gi.MergeVar != "":
		value, err := buildExpression(gi.MergeValue)
		if err != nil {
			return nil, err
		}
		return &SetItem{Variable: gi.MergeVar, Value: value, MergeProperties: gi.MergeOp}, nil

	case gi.LabelVar != "":
		if len(gi.LabelLabels.Labels) != 1 {
			return nil, &TranslationError{Clause: "SET", Kind: "bad-label-set", Message: "SET v:Label takes exactly one label"}
		}
		return &SetItem{Variable: gi.LabelVar, Label: gi.LabelLabels.Labels[0]}, nil
	}
	return nil, &TranslationError{Clause: "SET", Kind: "empty-set-item", Message: "unrecognized SET item"}
}

func buildRemoveClause(gr *grammar.RemoveClause) (*RemoveClause, error) {
	r := &RemoveClause{}
	for _, gi := range gr.Items {
		if gi.Property != "" {
			r.Items = append(r.Items, &RemoveItem{Variable: gi.Variable, Property: gi.Property})
			continue
		}
		if gi.Labels == nil || len(gi.Labels.Labels) != 1 {
			return nil, &TranslationError{Clause: "REMOVE", Kind: "bad-label-remove", Message: "REMOVE v:Label takes exactly one label"}
		}
		r.Items = append(r.Items, &RemoveItem{Variable: gi.Variable, Label: gi.Labels.Labels[0]})
	}
	return r, nil
}

// ----------------------------------------------------------------------
// Patterns
// ----------------------------------------------------------------------

func buildPatterns(gps []*grammar.Pattern) ([]*Pattern, error) {
	patterns := make([]*Pattern, 0, len(gps))
	for _, gp := range gps {
		p, err := buildPattern(gp)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func buildPattern(gp *grammar.Pattern) (*Pattern, error) {
	node, err := buildNodePattern(gp.Node)
	if err != nil {
		return nil, err
	}

	elem := &PatternElement{Nodes: []*NodePattern{node}}
	for _, hop := range gp.Chain {
		rel, err := buildRelationshipPattern(hop.Relationship)
		if err != nil {
			return nil, err
		}
		next, err := buildNodePattern(hop.Node)
		if err != nil {
			return nil, err
		}
		elem.Relationships = append(elem.Relationships, rel)
		elem.Nodes = append(elem.Nodes, next)
	}

	return &Pattern{Variable: gp.Variable, Elements: []*PatternElement{elem}}, nil
}

func buildNodePattern(gn *grammar.NodePattern) (*NodePattern, error) {
	n := &NodePattern{Variable: gn.Variable}
	if gn.Labels != nil {
		n.Labels = gn.Labels.Labels
	}
	props, err := buildProperties(gn.Properties)
	if err != nil {
		return nil, err
	}
	n.Properties = props
	return n, nil
}

func buildProperties(gp *grammar.Properties) (Expr, error) {
	if gp == nil {
		return nil, nil
	}
	if gp.Map != nil {
		return buildMapLiteral(gp.Map)
	}
	return Param{Name: gp.Param.Name}, nil
}

func buildRelationshipPattern(gr *grammar.RelationshipPattern) (*RelationshipPattern, error) {
	r := &RelationshipPattern{Direction: Undirected}
	switch {
	case gr.LeftArrow && !gr.RightArrow:
		r.Direction = Incoming
	case gr.RightArrow && !gr.LeftArrow:
		r.Direction = Outgoing
	}

	if gr.Detail == nil {
		return r, nil
	}

	r.Variable = gr.Detail.Variable
	if gr.Detail.Types != nil {
		r.Types = gr.Detail.Types.Types
	}

	props, err := buildProperties(gr.Detail.Properties)
	if err != nil {
		return nil, err
	}
	r.Properties = props

	if gr.Detail.Range != nil {
		min, max := resolveHopRange(gr.Detail.Range)
		r.VariableLength = true
		r.MinHops = min
		r.MaxHops = max
	}

	return r, nil
}

// resolveHopRange collapses the five `*`/`*n`/`*n..`/`*..m`/`*n..m` forms
// to an explicit (min, max) pair. max == nil means unbounded
// (the generator substitutes config.DefaultMaxHops).
func resolveHopRange(rng *grammar.RangeLiteral) (min int, max *int) {
	switch {
	case rng.Min == nil && !rng.Range && rng.Max == nil:
		// `*`
		return 1, nil
	case rng.Min != nil && !rng.Range && rng.Max == nil:
		// `*n`
		n := *rng.Min
		return n, &n
	case rng.Min != nil && rng.Range && rng.Max == nil:
		// `*n..`
		return *rng.Min, nil
	case rng.Min == nil && rng.Range && rng.Max != nil:
		// `*..m`
		return 1, rng.Max
	default:
		// `*n..m`
		return *rng.Min, rng.Max
	}
}

// ----------------------------------------------------------------------
// Expressions — each build* mirrors one precedence level of the grammar,
// left-folding the `Right []*XTerm` tails into a binary-tree chain.
// ----------------------------------------------------------------------

func buildExpressionList(ges []*grammar.Expression) ([]Expr, error) {
	exprs := make([]Expr, 0, len(ges))
	for _, ge := range ges {
		e, err := buildExpression(ge)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func buildExpression(ge *grammar.Expression) (Expr, error) {
	left, err := buildXorExpr(ge.Left)
	if err != nil {
		return nil, err
	}
	for _, term := range ge.Right {
		right, err := buildXorExpr(term.Expr)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func buildXorExpr(ge *grammar.XorExpr) (Expr, error) {
	left, err := buildAndExpr(ge.Left)
	if err != nil {
		return nil, err
	}
	for _, term := range ge.Right {
		right, err := buildAndExpr(term.Expr)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: "XOR", Left: left, Right: right}
	}
	return left, nil
}

func buildAndExpr(ge *grammar.AndExpr) (Expr, error) {
	left, err := buildNotExpr(ge.Left)
	if err != nil {
		return nil, err
	}
	for _, term := range ge.Right {
		right, err := buildNotExpr(term.Expr)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func buildNotExpr(ge *grammar.NotExpr) (Expr, error) {
	inner, err := buildComparisonExpr(ge.Expr)
	if err != nil {
		return nil, err
	}
	if ge.Not {
		return UnaryOp{Op: "NOT", Expr: inner}, nil
	}
	return inner, nil
}

func buildComparisonExpr(ge *grammar.ComparisonExpr) (Expr, error) {
	left, err := buildAddSubExpr(ge.Left)
	if err != nil {
		return nil, err
	}

	for _, term := range ge.Right {
		switch {
		case term.Binary != nil:
			right, err := buildAddSubExpr(term.Binary.Expr)
			if err != nil {
				return nil, err
			}
			left = ComparisonOp{Op: term.Binary.Op, Left: left, Right: right}

		case term.IsNull != nil:
			op := "IS NULL"
			if term.IsNull.Not {
				op = "IS NOT NULL"
			}
			left = ComparisonOp{Op: op, Left: left}

		case term.In != nil:
			right, err := buildAddSubExpr(term.In.Expr)
			if err != nil {
				return nil, err
			}
			left = ComparisonOp{Op: "IN", Left: left, Right: right}

		case term.Regex != nil:
			right, err := buildAddSubExpr(term.Regex.Expr)
			if err != nil {
				return nil, err
			}
			left = ComparisonOp{Op: "=~", Left: left, Right: right}

		case term.StringPred != nil:
			sp := term.StringPred
			var op string
			var operand *grammar.AddSubExpr
			switch {
			case sp.StartsWith != nil:
				op, operand = "STARTS WITH", sp.StartsWith
			case sp.EndsWith != nil:
				op, operand = "ENDS WITH", sp.EndsWith
			default:
				op, operand = "CONTAINS", sp.Contains
			}
			right, err := buildAddSubExpr(operand)
			if err != nil {
				return nil, err
			}
			left = ComparisonOp{Op: op, Left: left, Right: right}
		}
	}

	return left, nil
}

func buildAddSubExpr(ge *grammar.AddSubExpr) (Expr, error) {
	left, err := buildMultDivExpr(ge.Left)
	if err != nil {
		return nil, err
	}
	for _, term := range ge.Right {
		right, err := buildMultDivExpr(term.Expr)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: term.Op, Left: left, Right: right}
	}
	return left, nil
}

func buildMultDivExpr(ge *grammar.MultDivExpr) (Expr, error) {
	left, err := buildPowerExpr(ge.Left)
	if err != nil {
		return nil, err
	}
	for _, term := range ge.Right {
		right, err := buildPowerExpr(term.Expr)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: term.Op, Left: left, Right: right}
	}
	return left, nil
}

func buildPowerExpr(ge *grammar.PowerExpr) (Expr, error) {
	left, err := buildUnaryExpr(ge.Left)
	if err != nil {
		return nil, err
	}
	for _, term := range ge.Right {
		right, err := buildUnaryExpr(term.Expr)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: "^", Left: left, Right: right}
	}
	return left, nil
}

func buildUnaryExpr(ge *grammar.UnaryExpr) (Expr, error) {
	inner, err := buildPostfixExpr(ge.Expr)
	if err != nil {
		return nil, err
	}
	if ge.Op != "" {
		return UnaryOp{Op: ge.Op, Expr: inner}, nil
	}
	return inner, nil
}

func buildPostfixExpr(ge *grammar.PostfixExpr) (Expr, error) {
	base, err := buildAtom(ge.Atom)
	if err != nil {
		return nil, err
	}
	for _, suffix := range ge.Suffixes {
		if suffix.Property != "" {
			base = PropertyAccess{Base: base, Key: suffix.Property}
			continue
		}
		idx, err := buildExpression(suffix.Index.Index)
		if err != nil {
			return nil, err
		}
		base = IndexAccess{Base: base, Index: idx}
	}
	return base, nil
}

func buildAtom(ga *grammar.Atom) (Expr, error) {
	switch {
	case ga.ListComprehension != nil:
		return buildListComprehension(ga.ListComprehension)
	case ga.PatternComprehension != nil:
		return buildPatternComprehension(ga.PatternComprehension)
	case ga.Parameter != nil:
		return Param{Name: ga.Parameter.Name}, nil
	case ga.CaseExpr != nil:
		return buildCaseExpression(ga.CaseExpr)
	case ga.CountAll:
		// COUNT(*): sqlgen recognizes this exact shape as the SQL COUNT(*)
		// aggregate, distinct from count(expr).
		return FunctionCall{Name: "count", Args: []Expr{Variable{Name: "*"}}}, nil
	case ga.Quantifier != nil:
		return buildQuantifier(ga.Quantifier)
	case ga.Parenthesized != nil:
		return buildExpression(ga.Parenthesized)
	case ga.FunctionCall != nil:
		return buildFunctionCall(ga.FunctionCall)
	case ga.Literal != nil:
		return buildLiteral(ga.Literal)
	default:
		return Variable{Name: ga.Variable}, nil
	}
}

func buildLiteral(gl *grammar.Literal) (Expr, error) {
	switch {
	case gl.Null:
		return NullLiteral{}, nil
	case gl.True:
		return BoolLiteral{Value: true}, nil
	case gl.False:
		return BoolLiteral{Value: false}, nil
	case gl.Float != nil:
		return FloatLiteral{Value: *gl.Float}, nil
	case gl.Int != nil:
		return IntLiteral{Value: *gl.Int}, nil
	case gl.String != nil:
		return StringLiteral{Value: unquoteString(*gl.String)}, nil
	case gl.List != nil:
		return buildListLiteral(gl.List)
	default:
		return buildMapLiteral(gl.Map)
	}
}

func buildListLiteral(gl *grammar.ListLiteral) (Expr, error) {
	items, err := buildExpressionList(gl.Items)
	if err != nil {
		return nil, err
	}
	return ListLiteral{Items: items}, nil
}

func buildMapLiteral(gm *grammar.MapLiteral) (Expr, error) {
	pairs := make([]MapPair, 0, len(gm.Pairs))
	for _, p := range gm.Pairs {
		value, err := buildExpression(p.Value)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, MapPair{Key: p.Key, Value: value})
	}
	return MapLiteral{Pairs: pairs}, nil
}

func buildListComprehension(gl *grammar.ListComprehension) (Expr, error) {
	source, err := buildExpression(gl.Source)
	if err != nil {
		return nil, err
	}
	lc := ListComprehension{Variable: gl.Variable, Source: source}
	if gl.Where != nil {
		where, err := buildExpression(gl.Where.Expr)
		if err != nil {
			return nil, err
		}
		lc.Where = where
	}
	if gl.Mapping != nil {
		mapping, err := buildExpression(gl.Mapping)
		if err != nil {
			return nil, err
		}
		lc.Mapping = mapping
	}
	return lc, nil
}

func buildPatternComprehension(gp *grammar.PatternComprehension) (Expr, error) {
	node, err := buildNodePattern(gp.Node)
	if err != nil {
		return nil, err
	}
	elem := &PatternElement{Nodes: []*NodePattern{node}}
	for _, hop := range gp.Chain {
		rel, err := buildRelationshipPattern(hop.Relationship)
		if err != nil {
			return nil, err
		}
		next, err := buildNodePattern(hop.Node)
		if err != nil {
			return nil, err
		}
		elem.Relationships = append(elem.Relationships, rel)
		elem.Nodes = append(elem.Nodes, next)
	}

	pc := PatternComprehension{Variable: gp.Var, Pattern: elem}
	if gp.Where != nil {
		where, err := buildExpression(gp.Where.Expr)
		if err != nil {
			return nil, err
		}
		pc.Where = where
	}
	mapping, err := buildExpression(gp.Mapping)
	if err != nil {
		return nil, err
	}
	pc.Mapping = mapping
	return pc, nil
}

func buildQuantifier(gq *grammar.Quantifier) (Expr, error) {
	source, err := buildExpression(gq.Source)
	if err != nil {
		return nil, err
	}
	q := Quantifier{Kind: gq.Kind, Variable: gq.Variable, Source: source}
	if gq.Where != nil {
		where, err := buildExpression(gq.Where.Expr)
		if err != nil {
			return nil, err
		}
		q.Where = where
	}
	return q, nil
}

func buildCaseExpression(gc *grammar.CaseExpression) (Expr, error) {
	ce := CaseExpression{}
	if gc.Input != nil {
		test, err := buildExpression(gc.Input)
		if err != nil {
			return nil, err
		}
		ce.Test = test
	}
	for _, w := range gc.Whens {
		when, err := buildExpression(w.When)
		if err != nil {
			return nil, err
		}
		then, err := buildExpression(w.Then)
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, CaseWhen{When: when, Then: then})
	}
	if gc.Else != nil {
		elseExpr, err := buildExpression(gc.Else)
		if err != nil {
			return nil, err
		}
		ce.Else = elseExpr
	}
	return ce, nil
}

func buildFunctionCall(gf *grammar.FunctionCall) (Expr, error) {
	args, err := buildExpressionList(gf.Args)
	if err != nil {
		return nil, err
	}
	return FunctionCall{Name: gf.Name.String(), Args: args, Distinct: gf.Distinct}, nil
}

// unquoteString strips the lexer's surrounding quote pair and resolves the
// backslash escapes the String token pattern admits. Go's strconv.Unquote
// rejects single-quoted strings outright, so single-quoted literals are
// normalized to double quotes first.
func unquoteString(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	if raw[0] == '\'' {
		inner := raw[1 : len(raw)-1]
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		raw = `"` + inner + `"`
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		return unquoted
	}
	return raw[1 : len(raw)-1]
}
