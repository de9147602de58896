// Package config holds the tunables the distilled spec treats as
// compile-time constants: known columns, the reserved label set, the
// variable-length traversal sentinel, and binding strictness.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMaxHops bounds an unbounded variable-length relationship
// (`*`, `*2..`) so the recursive CTE terminates. Documented sentinel,
// not a real traversal limit.
const DefaultMaxHops = 999

// ReservedLabels map directly to graph_nodes.node_type; any other label
// is compiled as a metadata->>'label' predicate instead.
var defaultReservedLabels = []string{"entity", "episode", "community"}

// KnownNodeColumns and KnownEdgeColumns name the top-level columns of the
// backing tables. A PropertyAccess whose key matches one of these compiles
// to a column reference; anything else compiles to a JSONB path access.
var defaultKnownNodeColumns = []string{
	"uuid", "name", "node_type", "group_id", "created_at",
	"valid_at", "invalid_at", "embedding", "summary",
}

var defaultKnownEdgeColumns = []string{
	"uuid", "source_node_uuid", "target_node_uuid", "relation_type",
	"group_id", "created_at", "valid_at", "invalid_at", "fact", "episodes",
}

// TranslatorConfig is the operator-tunable surface layered under the
// required tenant id. The zero value is not valid; use Default().
type TranslatorConfig struct {
	// MaxHops bounds unbounded variable-length relationships.
	MaxHops int `yaml:"max_hops"`

	// StrictBindings turns a missing $name parameter into a BindingError
	// instead of silently compiling it as NULL.
	StrictBindings bool `yaml:"strict_bindings"`

	// EnableFastPath lets the facade try template-matched shortcuts for a
	// handful of frequent queries before falling back to the full
	// generator. Never changes the SQL semantics of a query the
	// shortcuts don't recognize.
	EnableFastPath bool `yaml:"enable_fastpath"`

	// ReservedLabels are node labels that map to graph_nodes.node_type
	// filters instead of metadata->>'label' lookups. Relationship types
	// always filter on graph_edges.relation_type and do not consult this
	// list.
	ReservedLabels []string `yaml:"reserved_labels"`

	KnownNodeColumns []string `yaml:"known_node_columns"`
	KnownEdgeColumns []string `yaml:"known_edge_columns"`
}

// Default reproduces the module's built-in constants literally.
func Default() TranslatorConfig {
	return TranslatorConfig{
		MaxHops:          DefaultMaxHops,
		StrictBindings:   false,
		EnableFastPath:   true,
		ReservedLabels:   append([]string(nil), defaultReservedLabels...),
		KnownNodeColumns: append([]string(nil), defaultKnownNodeColumns...),
		KnownEdgeColumns: append([]string(nil), defaultKnownEdgeColumns...),
	}
}

// Load reads a TranslatorConfig from a YAML file, starting from Default()
// and overlaying whatever the file sets. A missing file is not an error —
// callers that don't need operator tuning can skip Load entirely.
func Load(path string) (TranslatorConfig, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// IsReservedLabel reports whether label maps to a node_type/relation_type
// column filter rather than a metadata->>'label' predicate.
func (c TranslatorConfig) IsReservedLabel(label string) bool {
	for _, l := range c.ReservedLabels {
		if equalFold(l, label) {
			return true
		}
	}
	return false
}

// IsKnownNodeColumn reports whether name is a top-level graph_nodes column.
func (c TranslatorConfig) IsKnownNodeColumn(name string) bool {
	return contains(c.KnownNodeColumns, name)
}

// IsKnownEdgeColumn reports whether name is a top-level graph_edges column.
func (c TranslatorConfig) IsKnownEdgeColumn(name string) bool {
	return contains(c.KnownEdgeColumns, name)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
