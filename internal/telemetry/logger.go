// Package telemetry wraps the structured logger used across the
// translator. Grounded on hemanta212-scaf's lsp/lsplogger.go, which wraps
// *zap.Logger behind a narrow seam so callers can swap in zap.NewNop()
// for tests without threading a *testing.T through production code.
package telemetry

import "go.uber.org/zap"

// Logger is the subset of *zap.Logger the translator actually calls.
// Satisfied directly by *zap.Logger; exists so sqlctx and sqlgen don't
// need to import zap themselves.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// NewNop returns a Logger that discards everything, the default when a
// Translator is constructed without an explicit logger option.
func NewNop() Logger {
	return zap.NewNop()
}

// NewDevelopment builds a human-readable logger for CLI/demo use.
func NewDevelopment() (Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return l, nil
}
