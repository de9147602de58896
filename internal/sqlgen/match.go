package sqlgen

import (
	"fmt"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
)

// applyMatch lowers one MatchClause into FROM/JOIN/WHERE fragments on b.
func (b *builder) applyMatch(m *ast.MatchClause) error {
	for _, p := range m.Patterns {
		if err := b.applyPattern(p, m.Optional); err != nil {
			return err
		}
	}
	if m.Where != nil {
		cond, err := b.translateExpr(m.Where)
		if err != nil {
			return err
		}
		b.addWhere(cond)
	}
	return nil
}

func (b *builder) applyPattern(p *ast.Pattern, optional bool) error {
	elem := p.Elements[0]

	alias, isNew := b.ensureAnchorNode(elem.Nodes[0])
	if isNew {
		if err := b.addNodeConstraints(alias, elem.Nodes[0], nil); err != nil {
			return err
		}
		b.applyTenantFilter(alias)
	}

	prevAlias := alias
	for i, rel := range elem.Relationships {
		nextNode := elem.Nodes[i+1]
		var err error
		if rel.VariableLength {
			prevAlias, err = b.applyVariableLengthHop(prevAlias, rel, nextNode, optional)
		} else {
			prevAlias, err = b.applySingleHop(prevAlias, rel, nextNode, optional)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ensureAnchorNode returns the alias for pattern's first node, reusing an
// existing alias for a variable already bound by this builder (or carried
// through a WITH). A node not yet bound here, including one an earlier
// UNION branch bound, is added to the FROM list on the first call, and as
// a CROSS JOIN on subsequent comma-separated patterns.
func (b *builder) ensureAnchorNode(n *ast.NodePattern) (alias string, isNew bool) {
	if n.Variable != "" && b.boundHere(n.Variable) {
		existing, _ := b.ctx.LookupAlias(n.Variable)
		return existing, false
	}

	alias = b.ctx.AssignAlias(n.Variable, "n")
	if n.Variable != "" {
		b.varKind[n.Variable] = "node"
	}

	if b.fromClause == "" {
		b.fromClause = fmt.Sprintf("graph_nodes %s", alias)
	} else {
		b.joins = append(b.joins, fmt.Sprintf("CROSS JOIN graph_nodes %s", alias))
	}
	return alias, true
}

// applySingleHop joins one relationship and its destination node. A
// reused destination (already bound by an earlier MATCH) collapses to a
// single edge join whose ON clause links both endpoints; a fresh
// destination gets its own join, with label/property/type constraints
// folded into the ON clauses under OPTIONAL MATCH (so a non-match still
// yields the anchor row with NULLs) or pushed to WHERE otherwise.
func (b *builder) applySingleHop(srcAlias string, rel *ast.RelationshipPattern, nextNode *ast.NodePattern, optional bool) (string, error) {
	relAlias := b.ctx.AssignAlias(rel.Variable, "e")
	if rel.Variable != "" {
		b.varKind[rel.Variable] = "edge"
	}

	nextAlias, nextIsNew := b.lookupOrMintNodeAlias(nextNode)

	srcCol, dstCol := "source_node_uuid", "target_node_uuid"
	if rel.Direction == ast.Incoming {
		srcCol, dstCol = "target_node_uuid", "source_node_uuid"
	}
	srcCond := fmt.Sprintf("%s.%s = %s.uuid", relAlias, srcCol, srcAlias)
	dstCond := fmt.Sprintf("%s.%s = %s.uuid", relAlias, dstCol, nextAlias)

	relPreds, err := b.relationshipPredicates(relAlias, rel)
	if err != nil {
		return "", err
	}

	joinKW := "JOIN"
	if optional {
		joinKW = "LEFT JOIN"
	}

	if !nextIsNew {
		on := strings.Join(append([]string{srcCond, dstCond}, relPreds...), " AND ")
		b.joins = append(b.joins, fmt.Sprintf("%s graph_edges %s ON %s", joinKW, relAlias, on))
		return nextAlias, nil
	}

	nodePreds, err := b.nodeConstraintPredicates(nextAlias, nextNode)
	if err != nil {
		return "", err
	}

	edgeOn, nodeOn := srcCond, dstCond
	if optional {
		if len(relPreds) > 0 {
			edgeOn = strings.Join(append([]string{srcCond}, relPreds...), " AND ")
		}
		if len(nodePreds) > 0 {
			nodeOn = strings.Join(append([]string{dstCond}, nodePreds...), " AND ")
		}
	}

	b.joins = append(b.joins, fmt.Sprintf("%s graph_edges %s ON %s", joinKW, relAlias, edgeOn))
	b.joins = append(b.joins, fmt.Sprintf("%s graph_nodes %s ON %s", joinKW, nextAlias, nodeOn))

	if !optional {
		for _, p := range relPreds {
			b.addWhere(p)
		}
		for _, p := range nodePreds {
			b.addWhere(p)
		}
	}

	return nextAlias, nil
}

func (b *builder) lookupOrMintNodeAlias(n *ast.NodePattern) (alias string, isNew bool) {
	if n.Variable != "" && b.boundHere(n.Variable) {
		existing, _ := b.ctx.LookupAlias(n.Variable)
		return existing, false
	}
	alias = b.ctx.AssignAlias(n.Variable, "n")
	if n.Variable != "" {
		b.varKind[n.Variable] = "node"
	}
	return alias, true
}

// boundHere reports whether variable is already in scope for b: bound by
// one of its own patterns or projected into its WITH source.
func (b *builder) boundHere(variable string) bool {
	if _, ok := b.varKind[variable]; ok {
		return true
	}
	if _, ok := b.cteCols[variable]; !ok {
		return false
	}
	_, ok := b.ctx.LookupAlias(variable)
	return ok
}

// relationshipPredicates expands a relationship's type alternation and
// inline property constraints into a predicate list.
func (b *builder) relationshipPredicates(alias string, rel *ast.RelationshipPattern) ([]string, error) {
	var preds []string

	if len(rel.Types) > 0 {
		var ors []string
		for _, t := range rel.Types {
			ph := b.ctx.Placeholder(t)
			ors = append(ors, fmt.Sprintf("%s.relation_type = %s", alias, ph))
		}
		if len(ors) == 1 {
			preds = append(preds, ors[0])
		} else {
			preds = append(preds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	propPreds, err := b.propertyConstraintPredicates(alias, "edge", rel.Properties)
	if err != nil {
		return nil, err
	}
	preds = append(preds, propPreds...)

	return preds, nil
}

// addNodeConstraints expands a node's labels and inline properties and
// routes them to the right accumulator (ON clause entries returned to the
// caller are nil here since anchor nodes are never LEFT-joined).
func (b *builder) addNodeConstraints(alias string, n *ast.NodePattern, _ []string) error {
	preds, err := b.nodeConstraintPredicates(alias, n)
	if err != nil {
		return err
	}
	for _, p := range preds {
		b.addWhere(p)
	}
	return nil
}

func (b *builder) nodeConstraintPredicates(alias string, n *ast.NodePattern) ([]string, error) {
	var preds []string
	for _, lbl := range n.Labels {
		if strings.EqualFold(lbl, "Current") {
			preds = append(preds, alias+".invalid_at IS NULL")
			continue
		}
		if b.cfg.IsReservedLabel(lbl) {
			ph := b.ctx.Placeholder(strings.ToLower(lbl))
			preds = append(preds, fmt.Sprintf("%s.node_type = %s", alias, ph))
		} else {
			ph := b.ctx.Placeholder(lbl)
			preds = append(preds, fmt.Sprintf("%s.metadata->>'label' = %s", alias, ph))
		}
	}

	propPreds, err := b.propertyConstraintPredicates(alias, "node", n.Properties)
	if err != nil {
		return nil, err
	}
	preds = append(preds, propPreds...)
	return preds, nil
}

// propertyConstraintPredicates expands an inline {k: v, ...} map into
// equality predicates, or a whole-map $param into a JSONB containment
// check when a Param stands in for an inline property map instead of a
// literal map.
func (b *builder) propertyConstraintPredicates(alias, kind string, properties ast.Expr) ([]string, error) {
	if properties == nil {
		return nil, nil
	}

	switch v := properties.(type) {
	case ast.MapLiteral:
		var preds []string
		for _, pair := range v.Pairs {
			pred, err := b.propertyEquality(alias, kind, pair.Key, pair.Value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, pred)
		}
		return preds, nil

	case ast.Param:
		sql, err := b.translateExpr(v)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s.properties @> %s", alias, sql)}, nil

	default:
		return nil, &ast.TranslationError{Clause: "MATCH", Kind: "bad-properties", Message: "inline properties must be a map literal or parameter"}
	}
}

// propertyEquality builds `alias.properties->>'key' = value`, coercing
// to numeric when value is a numeric literal.
func (b *builder) propertyEquality(alias, kind, key string, value ast.Expr) (string, error) {
	access, err := b.propertyAccessSQL(alias, kind, key)
	if err != nil {
		return "", err
	}
	valSQL, err := b.translateExpr(value)
	if err != nil {
		return "", err
	}
	if access.jsonbText && isNumericLiteral(value) {
		return fmt.Sprintf("%s = %s", coerceNumeric(access.sql), valSQL), nil
	}
	return fmt.Sprintf("%s = %s", access.sql, valSQL), nil
}
