package sqlgen

import (
	"fmt"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
)

// mapLiteralProps converts a node/relationship's inline property map into a
// plain Go map for parameter binding. Constant values follow the same rule
// translateMapLiteral uses; a $param value resolves to its caller-supplied
// binding (nil when absent, a *BindingError under StrictBindings). A nil
// expr yields an empty map.
func (b *builder) mapLiteralProps(properties ast.Expr) (map[string]any, error) {
	m := make(map[string]any)
	lit, ok := properties.(ast.MapLiteral)
	if !ok {
		if properties != nil {
			return nil, &ast.TranslationError{Clause: "CREATE", Kind: "bad-properties", Message: "CREATE/MERGE properties must be a map literal"}
		}
		return m, nil
	}
	for _, pair := range lit.Pairs {
		if p, isParam := pair.Value.(ast.Param); isParam {
			v, bound := b.ctx.LookupBinding(p.Name)
			if !bound && b.cfg.StrictBindings {
				return nil, &BindingError{Param: p.Name, Message: "no value supplied for parameter"}
			}
			m[pair.Key] = v
			continue
		}
		v, err := literalGoValue(pair.Value)
		if err != nil {
			return nil, err
		}
		m[pair.Key] = v
	}
	return m, nil
}

func nodeTypeFor(cfg interface{ IsReservedLabel(string) bool }, labels []string) string {
	if len(labels) > 0 && cfg.IsReservedLabel(labels[0]) {
		return strings.ToLower(labels[0])
	}
	return "entity"
}

// applyCreate lowers a CREATE clause into one INSERT-CTE per new node and
// relationship. Every pattern element must be entirely new — a
// variable already bound by a preceding MATCH cannot be threaded into a
// data-modifying CTE's FROM list without a LATERAL correlation the
// generator does not attempt, so CREATE rejects that combination outright
// rather than emit SQL that would silently mismatch rows.
func (b *builder) applyCreate(c *ast.CreateClause) error {
	for _, p := range c.Patterns {
		if err := b.applyCreatePattern(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) applyCreatePattern(p *ast.Pattern) error {
	elem := p.Elements[0]
	prevAlias, err := b.createNode(elem.Nodes[0])
	if err != nil {
		return err
	}
	for i, rel := range elem.Relationships {
		nextAlias, err := b.createNode(elem.Nodes[i+1])
		if err != nil {
			return err
		}
		edgeAlias, err := b.createEdge(prevAlias, nextAlias, rel)
		if err != nil {
			return err
		}
		if rel.Variable != "" {
			b.ctx.BindAlias(rel.Variable, edgeAlias)
			b.varKind[rel.Variable] = "edge"
		}
		prevAlias = nextAlias
	}
	return nil
}

// createNode emits `ins_<k> AS (INSERT INTO graph_nodes(...) VALUES (...)
// RETURNING *)` and wires the resulting CTE into the builder's FROM/JOIN
// list so a trailing RETURN can project the new row the same way it
// projects a MATCH-bound node (row_to_json(alias.*)).
func (b *builder) createNode(n *ast.NodePattern) (string, error) {
	if n.Variable != "" {
		if _, ok := b.ctx.LookupAlias(n.Variable); ok {
			return "", &ast.TranslationError{Clause: "CREATE", Kind: "create-reuse-unsupported", Message: fmt.Sprintf("CREATE cannot reference %q, already bound by a preceding MATCH", n.Variable)}
		}
	}

	props, err := b.mapLiteralProps(n.Properties)
	if err != nil {
		return "", err
	}
	var name any
	if v, ok := props["name"]; ok {
		name = v
	}
	nodeType := nodeTypeFor(b.cfg, n.Labels)

	namePH := b.ctx.Placeholder(name)
	typePH := b.ctx.Placeholder(nodeType)
	groupPH := b.ctx.Placeholder(b.ctx.TenantID)
	propsPH := b.ctx.Placeholder(props)

	cteName := b.ctx.NextInsertCTEName()
	def := fmt.Sprintf(
		"%s AS (\n  INSERT INTO graph_nodes (uuid, name, node_type, group_id, properties, valid_at)\n  VALUES (gen_random_uuid(), %s, %s, %s, %s, CURRENT_TIMESTAMP)\n  RETURNING *\n)",
		cteName, namePH, typePH, groupPH, propsPH,
	)
	b.preambleCTEs = append(b.preambleCTEs, def)

	if b.fromClause == "" {
		b.fromClause = cteName
	} else {
		b.joins = append(b.joins, "CROSS JOIN "+cteName)
	}
	if n.Variable != "" {
		b.ctx.BindAlias(n.Variable, cteName)
		b.varKind[n.Variable] = "node"
	}
	return cteName, nil
}

// createEdge emits `ins_<k> AS (INSERT INTO graph_edges(...) SELECT ...
// FROM srcAlias, dstAlias RETURNING *)`. Both srcAlias and dstAlias must be
// INSERT-CTE names minted by createNode in this same CREATE clause — a
// plain correlated SELECT against them is valid Postgres because each is
// itself a standalone relation, unlike a MATCH-bound table alias that only
// exists inside the enclosing query's own FROM/JOIN scope.
func (b *builder) createEdge(srcAlias, dstAlias string, rel *ast.RelationshipPattern) (string, error) {
	relType := ""
	if len(rel.Types) > 0 {
		relType = rel.Types[0]
	}
	props, err := b.mapLiteralProps(rel.Properties)
	if err != nil {
		return "", err
	}

	srcCol, dstCol := "uuid", "uuid"
	from := srcAlias
	sel := fmt.Sprintf("gen_random_uuid(), %s.%s, %s.%s", srcAlias, srcCol, dstAlias, dstCol)
	if rel.Direction == ast.Incoming {
		sel = fmt.Sprintf("gen_random_uuid(), %s.%s, %s.%s", dstAlias, dstCol, srcAlias, srcCol)
	}
	if srcAlias != dstAlias {
		from = srcAlias + ", " + dstAlias
	}

	typePH := b.ctx.Placeholder(relType)
	groupPH := b.ctx.Placeholder(b.ctx.TenantID)
	propsPH := b.ctx.Placeholder(props)

	cteName := b.ctx.NextInsertCTEName()
	def := fmt.Sprintf(
		"%s AS (\n  INSERT INTO graph_edges (uuid, source_node_uuid, target_node_uuid, relation_type, group_id, properties, valid_at)\n  SELECT %s, %s, %s, %s, CURRENT_TIMESTAMP\n  FROM %s\n  RETURNING *\n)",
		cteName, sel, typePH, groupPH, propsPH, from,
	)
	b.preambleCTEs = append(b.preambleCTEs, def)
	b.joins = append(b.joins, "CROSS JOIN "+cteName)
	return cteName, nil
}

// applyMerge lowers a MERGE clause to an upsert with uuid as the conflict
// target. Scope is a single node pattern; a MERGE over a relationship
// pattern would need a composite conflict target the schema has no
// unique index for, so it is rejected rather than guessed at.
func (b *builder) applyMerge(m *ast.MergeClause) error {
	elem := m.Pattern.Elements[0]
	if len(elem.Relationships) > 0 {
		return &ast.TranslationError{Clause: "MERGE", Kind: "merge-relationship-unsupported", Message: "MERGE supports single-node patterns only"}
	}
	n := elem.Nodes[0]

	props, err := b.mapLiteralProps(n.Properties)
	if err != nil {
		return err
	}

	var uuidSQL string
	if u, ok := props["uuid"]; ok {
		uuidSQL = b.ctx.Placeholder(u)
		delete(props, "uuid")
	} else {
		uuidSQL = "gen_random_uuid()"
	}
	var name any
	if v, ok := props["name"]; ok {
		name = v
	}
	nodeType := nodeTypeFor(b.cfg, n.Labels)

	namePH := b.ctx.Placeholder(name)
	typePH := b.ctx.Placeholder(nodeType)
	groupPH := b.ctx.Placeholder(b.ctx.TenantID)
	propsPH := b.ctx.Placeholder(props)

	// ON CREATE values run through translateExpr rather than
	// literalGoValue, same as ON MATCH below, so a $param or any other
	// non-constant expression is supported: each item layers a
	// jsonb_set/|| onto the inserted properties instead of requiring a
	// Go-constant foldable at translate time.
	insertProps := propsPH
	for _, item := range m.OnCreate {
		switch {
		case item.Property != "":
			v, err := b.translateExpr(item.Value)
			if err != nil {
				return err
			}
			insertProps = fmt.Sprintf("jsonb_set(%s, '{%s}', %s)", insertProps, item.Property, v)
		case item.MergeProperties:
			v, err := b.translateExpr(item.Value)
			if err != nil {
				return err
			}
			insertProps = fmt.Sprintf("%s || %s", insertProps, v)
		}
	}

	updateExpr := "EXCLUDED.properties"
	for _, item := range m.OnMatch {
		switch {
		case item.Property != "":
			v, err := b.translateExpr(item.Value)
			if err != nil {
				return err
			}
			updateExpr = fmt.Sprintf("jsonb_set(%s, '{%s}', %s)", updateExpr, item.Property, v)
		case item.MergeProperties:
			v, err := b.translateExpr(item.Value)
			if err != nil {
				return err
			}
			updateExpr = fmt.Sprintf("%s || %s", updateExpr, v)
		}
	}

	cteName := b.ctx.NextInsertCTEName()
	def := fmt.Sprintf(
		"%s AS (\n  INSERT INTO graph_nodes (uuid, name, node_type, group_id, properties, valid_at)\n  VALUES (%s, %s, %s, %s, %s, CURRENT_TIMESTAMP)\n  ON CONFLICT (uuid) DO UPDATE SET properties = %s\n  RETURNING *\n)",
		cteName, uuidSQL, namePH, typePH, groupPH, insertProps, updateExpr,
	)
	b.preambleCTEs = append(b.preambleCTEs, def)

	if b.fromClause == "" {
		b.fromClause = cteName
	} else {
		b.joins = append(b.joins, "CROSS JOIN "+cteName)
	}
	if n.Variable != "" {
		b.ctx.BindAlias(n.Variable, cteName)
		b.varKind[n.Variable] = "node"
	}
	return nil
}

// deleteTarget names one variable DELETE removes, with enough context to
// both seed the match_ctx CTE and pick its backing table.
type deleteTarget struct {
	name, alias, kind string
}

func (b *builder) resolveDeleteTargets(exprs []ast.Expr) ([]deleteTarget, error) {
	targets := make([]deleteTarget, 0, len(exprs))
	for _, e := range exprs {
		v, ok := e.(ast.Variable)
		if !ok {
			return nil, &ast.TranslationError{Clause: "DELETE", Kind: "bad-delete-target", Message: "DELETE can only remove a bound variable, not an expression"}
		}
		alias, ok := b.ctx.LookupAlias(v.Name)
		if !ok {
			return nil, &ast.TranslationError{Clause: "DELETE", Kind: "unbound-variable", Message: fmt.Sprintf("variable %q is not bound by a preceding MATCH", v.Name)}
		}
		targets = append(targets, deleteTarget{name: v.Name, alias: alias, kind: b.varKind[v.Name]})
	}
	return targets, nil
}

// matchCTE captures the builder's accumulated FROM/JOIN/WHERE as a plain
// (non-recursive) CTE selecting `alias.uuid AS alias_uuid` for each target,
// so the mutation's own DELETE/UPDATE statements can run as one statement
// alongside it instead of re-running the MATCH predicate per target.
func (b *builder) matchCTE(name string, targets []deleteTarget) string {
	cols := make([]string, len(targets))
	for i, t := range targets {
		cols[i] = fmt.Sprintf("%s.uuid AS %s_uuid", t.alias, t.alias)
	}
	return fmt.Sprintf("%s AS (\n  SELECT %s\n  %s%s%s\n)", name, strings.Join(cols, ", "), b.fromSQL(), b.joinSQL(), b.whereSQL())
}

// buildDelete lowers a DELETE/DETACH DELETE clause. The preceding MATCH
// is materialized into a match_ctx CTE first rather than repeated as a
// correlated subquery per deleted variable; DETACH DELETE removes
// incident edges via their own data-modifying CTE before the final node
// DELETE runs.
func (b *builder) buildDelete(d *ast.DeleteClause) (string, error) {
	targets, err := b.resolveDeleteTargets(d.Expressions)
	if err != nil {
		return "", err
	}

	ctes := append([]string{}, b.preambleCTEs...)
	ctes = append(ctes, b.matchCTE("match_ctx", targets))

	if d.Detach {
		var ors []string
		for _, t := range targets {
			if t.kind != "node" {
				continue
			}
			ors = append(ors, fmt.Sprintf("source_node_uuid IN (SELECT %s_uuid FROM match_ctx) OR target_node_uuid IN (SELECT %s_uuid FROM match_ctx)", t.alias, t.alias))
		}
		if len(ors) > 0 {
			ctes = append(ctes, fmt.Sprintf("del_edges AS (\n  DELETE FROM graph_edges\n  WHERE %s\n  RETURNING uuid\n)", strings.Join(ors, " OR ")))
		}
	}

	var edgeTargets, nodeTargets []deleteTarget
	for _, t := range targets {
		if t.kind == "edge" {
			edgeTargets = append(edgeTargets, t)
		} else {
			nodeTargets = append(nodeTargets, t)
		}
	}
	// Edges delete before nodes so a node named in both an edge and node
	// target list (unusual, but not excluded by the grammar) never trips
	// a foreign-key style ordering concern.
	ordered := append(append([]deleteTarget{}, edgeTargets...), nodeTargets...)

	var finalStmt string
	for i, t := range ordered {
		table := "graph_nodes"
		if t.kind == "edge" {
			table = "graph_edges"
		}
		stmt := fmt.Sprintf("DELETE FROM %s WHERE uuid IN (SELECT %s_uuid FROM match_ctx)", table, t.alias)
		if i == len(ordered)-1 {
			finalStmt = stmt + "\nRETURNING uuid"
		} else {
			ctes = append(ctes, fmt.Sprintf("del_%s AS (\n  %s\n  RETURNING uuid\n)", t.alias, stmt))
		}
	}

	kw := "WITH"
	if b.anyRecursive {
		kw = "WITH RECURSIVE"
	}
	return kw + " " + strings.Join(ctes, ",\n") + "\n" + finalStmt, nil
}

// setPlan accumulates one variable's property/metadata mutation chain
// across a SET clause's (possibly several) items.
type setPlan struct {
	propExpr, metaExpr string
	touched, touchedM   bool
}

// buildSet lowers a standalone SET clause to one UPDATE per
// touched variable, chained through a match_ctx CTE the same way DELETE is.
func (b *builder) buildSet(s *ast.SetClause) (string, error) {
	order, plans, err := b.collectSetPlans(s.Items)
	if err != nil {
		return "", err
	}
	return b.buildMutationUpdates(order, plans)
}

// buildRemove lowers a standalone REMOVE clause the same way,
// chaining `- 'key'` subtraction instead of jsonb_set/concat assignment.
func (b *builder) buildRemove(r *ast.RemoveClause) (string, error) {
	order := make([]string, 0, len(r.Items))
	plans := make(map[string]*setPlan)
	for _, item := range r.Items {
		plan, ok := plans[item.Variable]
		if !ok {
			plan = &setPlan{propExpr: "properties", metaExpr: "metadata"}
			plans[item.Variable] = plan
			order = append(order, item.Variable)
		}
		if item.Label != "" {
			plan.metaExpr = fmt.Sprintf("%s - '%s'", plan.metaExpr, strings.ToLower(item.Label))
			plan.touchedM = true
		} else {
			plan.propExpr = fmt.Sprintf("%s - '%s'", plan.propExpr, item.Property)
			plan.touched = true
		}
	}
	return b.buildMutationUpdates(order, plans)
}

func (b *builder) collectSetPlans(items []*ast.SetItem) ([]string, map[string]*setPlan, error) {
	order := make([]string, 0, len(items))
	plans := make(map[string]*setPlan)
	for _, item := range items {
		plan, ok := plans[item.Variable]
		if !ok {
			plan = &setPlan{propExpr: "properties", metaExpr: "metadata"}
			plans[item.Variable] = plan
			order = append(order, item.Variable)
		}
		switch {
		case item.Label != "":
			ph := b.ctx.Placeholder(strings.ToLower(item.Label))
			plan.metaExpr = fmt.Sprintf("%s || jsonb_build_object('label', %s)", plan.metaExpr, ph)
			plan.touchedM = true
		case item.MergeProperties:
			v, err := b.translateExpr(item.Value)
			if err != nil {
				return nil, nil, err
			}
			plan.propExpr = fmt.Sprintf("%s || %s", plan.propExpr, v)
			plan.touched = true
		case item.Property != "":
			v, err := b.translateExpr(item.Value)
			if err != nil {
				return nil, nil, err
			}
			plan.propExpr = fmt.Sprintf("jsonb_set(%s, '{%s}', %s)", plan.propExpr, item.Property, v)
			plan.touched = true
		default:
			v, err := b.translateExpr(item.Value)
			if err != nil {
				return nil, nil, err
			}
			plan.propExpr = v
			plan.touched = true
		}
	}
	return order, plans, nil
}

// buildMutationUpdates assembles the match_ctx CTE plus one UPDATE per
// variable in order, shared by buildSet and buildRemove.
func (b *builder) buildMutationUpdates(order []string, plans map[string]*setPlan) (string, error) {
	targets := make([]deleteTarget, 0, len(order))
	for _, name := range order {
		alias, ok := b.ctx.LookupAlias(name)
		if !ok {
			return "", &ast.TranslationError{Clause: "SET", Kind: "unbound-variable", Message: fmt.Sprintf("variable %q is not bound by a preceding MATCH", name)}
		}
		targets = append(targets, deleteTarget{name: name, alias: alias, kind: b.varKind[name]})
	}

	ctes := append([]string{}, b.preambleCTEs...)
	ctes = append(ctes, b.matchCTE("match_ctx", targets))

	var finalStmt string
	for i, t := range targets {
		plan := plans[t.name]
		table := "graph_nodes"
		if t.kind == "edge" {
			table = "graph_edges"
		}
		var sets []string
		if plan.touched {
			sets = append(sets, "properties = "+plan.propExpr)
		}
		if plan.touchedM {
			sets = append(sets, "metadata = "+plan.metaExpr)
		}
		stmt := fmt.Sprintf("UPDATE %s SET %s WHERE uuid IN (SELECT %s_uuid FROM match_ctx)", table, strings.Join(sets, ", "), t.alias)
		if i == len(targets)-1 {
			finalStmt = stmt + "\nRETURNING uuid"
		} else {
			ctes = append(ctes, fmt.Sprintf("upd_%s AS (\n  %s\n  RETURNING uuid\n)", t.alias, stmt))
		}
	}

	kw := "WITH"
	if b.anyRecursive {
		kw = "WITH RECURSIVE"
	}
	return kw + " " + strings.Join(ctes, ",\n") + "\n" + finalStmt, nil
}
