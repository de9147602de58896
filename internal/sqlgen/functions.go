package sqlgen

import "strings"

// aggregateFunctions names the calls that trigger the aggregation-grouping
// rule and the `::numeric` coercion rule for JSONB arguments.
var aggregateFunctions = map[string]bool{
	"count": true,
	"sum":   true,
	"avg":   true,
	"min":   true,
	"max":   true,
}

// functionNameMap maps a Cypher function name to its PostgreSQL
// equivalent, case-insensitively. Anything absent is passed through
// uppercased.
var functionNameMap = map[string]string{
	"count":    "COUNT",
	"sum":      "SUM",
	"avg":      "AVG",
	"min":      "MIN",
	"max":      "MAX",
	"collect":  "array_agg",
	"tolower":  "LOWER",
	"toupper":  "UPPER",
	"size":     "array_length",
	"length":   "length",
	"inepisode": "inEpisode", // handled specially in translateFunctionCall, never emitted literally
}

// mapFunctionName resolves a Cypher function name to its SQL equivalent.
func mapFunctionName(name string) string {
	lower := strings.ToLower(name)
	if mapped, ok := functionNameMap[lower]; ok {
		return mapped
	}
	return strings.ToUpper(name)
}

// isAggregateFunction reports whether name (case-insensitive) is one of
// the five aggregation calls that drive GROUP BY insertion.
func isAggregateFunction(name string) bool {
	return aggregateFunctions[strings.ToLower(name)]
}
