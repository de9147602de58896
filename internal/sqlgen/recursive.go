package sqlgen

import (
	"fmt"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/ast"
	"github.com/cyphergraph/pgcypher/internal/config"
)

// applyVariableLengthHop emits a recursive CTE for a bounded/unbounded
// relationship traversal and joins it
// between srcAlias and the destination node.
func (b *builder) applyVariableLengthHop(srcAlias string, rel *ast.RelationshipPattern, nextNode *ast.NodePattern, optional bool) (string, error) {
	maxHops := b.cfg.MaxHops
	if maxHops <= 0 {
		maxHops = config.DefaultMaxHops
	}
	if rel.MaxHops != nil {
		maxHops = *rel.MaxHops
	}
	minHops := rel.MinHops
	if minHops <= 0 {
		minHops = 1
	}

	srcCol, dstCol := "source_node_uuid", "target_node_uuid"
	if rel.Direction == ast.Incoming {
		srcCol, dstCol = "target_node_uuid", "source_node_uuid"
	}

	var typePred string
	if len(rel.Types) > 0 {
		var ors []string
		for _, t := range rel.Types {
			ph := b.ctx.Placeholder(t)
			ors = append(ors, fmt.Sprintf("relation_type = %s", ph))
		}
		typePred = "(" + strings.Join(ors, " OR ") + ")"
	}

	cteName := b.ctx.NextPathCTEName()

	seedWhere := fmt.Sprintf("group_id = %s", b.ctx.Placeholder(b.ctx.TenantID))
	if typePred != "" {
		seedWhere += " AND " + typePred
	}
	seed := fmt.Sprintf(
		"SELECT %s AS start_id, %s AS end_id, 1 AS depth, ARRAY[uuid] AS path_edges\n"+
			"    FROM graph_edges\n    WHERE %s",
		srcCol, dstCol, seedWhere,
	)

	recurseWhere := fmt.Sprintf("%s.depth < %d", cteName, maxHops)
	if typePred != "" {
		recurseWhere += " AND " + typePred
	}
	recurseWhere += fmt.Sprintf(" AND e.uuid <> ALL(%s.path_edges)", cteName)
	recurse := fmt.Sprintf(
		"SELECT %s.start_id, e.%s AS end_id, %s.depth + 1, %s.path_edges || e.uuid\n"+
			"    FROM %s\n    JOIN graph_edges e ON e.%s = %s.end_id\n"+
			"    WHERE %s",
		cteName, dstCol, cteName, cteName,
		cteName, srcCol, cteName,
		recurseWhere,
	)

	def := fmt.Sprintf("%s AS (\n    %s\n    UNION ALL\n    %s\n  )", cteName, seed, recurse)
	b.preambleCTEs = append(b.preambleCTEs, def)
	b.anyRecursive = true

	nextAlias, nextIsNew := b.lookupOrMintNodeAlias(nextNode)

	joinKW := "JOIN"
	if optional {
		joinKW = "LEFT JOIN"
	}

	pathAlias := fmt.Sprintf("%s_r", cteName)
	pathJoinCond := fmt.Sprintf("%s.start_id = %s.uuid AND %s.depth >= %d", pathAlias, srcAlias, pathAlias, minHops)
	b.joins = append(b.joins, fmt.Sprintf("%s %s %s ON %s", joinKW, cteName, pathAlias, pathJoinCond))

	nodeOn := fmt.Sprintf("%s.uuid = %s.end_id", nextAlias, pathAlias)
	if nextIsNew {
		b.joins = append(b.joins, fmt.Sprintf("%s graph_nodes %s ON %s", joinKW, nextAlias, nodeOn))
		nodePreds, err := b.nodeConstraintPredicates(nextAlias, nextNode)
		if err != nil {
			return "", err
		}
		for _, p := range nodePreds {
			b.addWhere(p)
		}
	} else {
		b.addWhere(nodeOn)
	}

	return nextAlias, nil
}
