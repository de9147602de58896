package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cyphergraph/pgcypher/internal/config"
	"github.com/cyphergraph/pgcypher/internal/sqlctx"
)

// matchByUUIDRe and deleteByUUIDRe recognize the single most frequent
// query shapes an application sends: fetch-by-id and delete-by-id. Go's
// RE2 engine has no backreferences, so a pattern can't itself enforce
// that RETURN/DELETE names the same variable MATCH bound — TryFastPath
// checks that in code and declines (falls through to the full pipeline)
// if it doesn't match, rather than risk compiling the wrong variable.
var (
	matchByUUIDRe  = regexp.MustCompile(`(?is)^\s*MATCH\s*\(\s*(\w+)(?::\s*(\w+))?\s*\{\s*uuid\s*:\s*\$(\w+)\s*\}\s*\)\s*RETURN\s+(\w+)\s*$`)
	deleteByUUIDRe = regexp.MustCompile(`(?is)^\s*MATCH\s*\(\s*(\w+)(?::\s*(\w+))?\s*\{\s*uuid\s*:\s*\$(\w+)\s*\}\s*\)\s*(DETACH\s+)?DELETE\s+(\w+)\s*$`)
)

// TryFastPath attempts one of a small set of template-matched shortcuts
// for frequent single-node queries, skipping the parser/AST/sqlgen
// pipeline entirely. It is a best-effort safety net, not a
// semantic guarantee: a query it doesn't recognize — extra clauses,
// multiple patterns, a missing $uuid binding — simply falls through
// (ok=false) to the full translator, which always produces a correct
// result. The SQL a match produces here filters on the same columns as
// the full pipeline but is written directly against the base table,
// without the pipeline's table aliases or match_ctx CTEs.
func TryFastPath(text string, cfg config.TranslatorConfig, ctx *sqlctx.Context) (sql string, ok bool) {
	if !cfg.EnableFastPath {
		return "", false
	}

	if m := matchByUUIDRe.FindStringSubmatch(text); m != nil {
		variable, label, param, ret := m[1], m[2], m[3], m[4]
		if ret != variable {
			return "", false
		}
		uuidVal, bound := ctx.LookupBinding(param)
		if !bound {
			return "", false
		}
		var labelPred string
		if label != "" {
			if !cfg.IsReservedLabel(label) {
				return "", false
			}
			ph := ctx.Placeholder(strings.ToLower(label))
			labelPred = fmt.Sprintf(" AND n.node_type = %s", ph)
		}
		uuidPH := ctx.Placeholder(uuidVal)
		groupPH := ctx.Placeholder(ctx.TenantID)
		return fmt.Sprintf("SELECT row_to_json(n.*) AS %s FROM graph_nodes n WHERE n.uuid = %s AND n.group_id = %s%s", variable, uuidPH, groupPH, labelPred), true
	}

	if m := deleteByUUIDRe.FindStringSubmatch(text); m != nil {
		variable, label, param, detach, target := m[1], m[2], m[3], m[4], m[5]
		if target != variable {
			return "", false
		}
		uuidVal, bound := ctx.LookupBinding(param)
		if !bound {
			return "", false
		}
		var labelPred string
		if label != "" {
			if !cfg.IsReservedLabel(label) {
				return "", false
			}
			ph := ctx.Placeholder(strings.ToLower(label))
			labelPred = fmt.Sprintf(" AND node_type = %s", ph)
		}
		uuidPH := ctx.Placeholder(uuidVal)
		groupPH := ctx.Placeholder(ctx.TenantID)
		if detach != "" {
			return fmt.Sprintf(
				"WITH del_edges AS (\n  DELETE FROM graph_edges\n  WHERE source_node_uuid = %s OR target_node_uuid = %s\n  RETURNING uuid\n)\nDELETE FROM graph_nodes WHERE uuid = %s AND group_id = %s%s\nRETURNING uuid",
				uuidPH, uuidPH, uuidPH, groupPH, labelPred,
			), true
		}
		return fmt.Sprintf("DELETE FROM graph_nodes WHERE uuid = %s AND group_id = %s%s\nRETURNING uuid", uuidPH, groupPH, labelPred), true
	}

	return "", false
}
