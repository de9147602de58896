// Package pgcypher translates a Cypher-like property-graph query into a
// parameterized PostgreSQL statement against the two-table graph_nodes/
// graph_edges JSONB schema. The facade exposes a single Translate call
// and delegates immediately into the internal packages.
package pgcypher

import (
	"go.uber.org/zap"

	"github.com/cyphergraph/pgcypher/internal/ast"
	"github.com/cyphergraph/pgcypher/internal/config"
	"github.com/cyphergraph/pgcypher/internal/parser"
	"github.com/cyphergraph/pgcypher/internal/sqlctx"
	"github.com/cyphergraph/pgcypher/internal/sqlgen"
	"github.com/cyphergraph/pgcypher/internal/telemetry"
)

// Translator holds the tenant id and tunables a Translate call needs.
// A Translator is safe for concurrent use: every call builds its own
// sqlctx.Context, never sharing mutable state across goroutines.
type Translator struct {
	tenantID string
	cfg      config.TranslatorConfig
	logger   telemetry.Logger
}

// Option configures a Translator at construction time.
type Option func(*Translator)

// WithConfig overrides the default TranslatorConfig: known columns,
// reserved labels, max hops, binding strictness.
func WithConfig(cfg config.TranslatorConfig) Option {
	return func(t *Translator) { t.cfg = cfg }
}

// WithLogger attaches a structured logger; the zero value logs nowhere.
func WithLogger(l telemetry.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// New constructs a Translator scoped to tenantID, the group_id every
// generated statement is filtered by.
func New(tenantID string, opts ...Option) *Translator {
	t := &Translator{
		tenantID: tenantID,
		cfg:      config.Default(),
		logger:   telemetry.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate parses text and lowers it to PostgreSQL SQL plus its ordered
// parameter vector ($1, $2, ... in the returned SQL). bindings supplies
// the values for any $name parameters text references; a name missing
// from bindings compiles to NULL unless the config's StrictBindings is
// set, in which case it fails with a *sqlgen.BindingError.
func (t *Translator) Translate(text string, bindings map[string]any) (string, []any, error) {
	ctx := sqlctx.New(t.tenantID, bindings, t.logger)

	if sql, ok := sqlgen.TryFastPath(text, t.cfg, ctx); ok {
		t.logger.Debug("fastpath hit")
		return sql, ctx.Params(), nil
	}

	script, err := parser.Parse(text)
	if err != nil {
		t.logger.Warn("parse failed", zap.Error(err))
		return "", nil, err
	}

	query, err := ast.Build(script)
	if err != nil {
		t.logger.Warn("ast build failed", zap.Error(err))
		return "", nil, err
	}

	sql, err := sqlgen.Generate(query, t.cfg, ctx)
	if err != nil {
		t.logger.Warn("sql generation failed", zap.Error(err))
		return "", nil, err
	}

	t.logger.Debug("translated query", zap.Int("params", len(ctx.Params())))
	return sql, ctx.Params(), nil
}
