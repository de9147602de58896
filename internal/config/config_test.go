package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MaxHops != DefaultMaxHops {
		t.Errorf("expected MaxHops %d, got %d", DefaultMaxHops, cfg.MaxHops)
	}
	if cfg.StrictBindings {
		t.Error("expected StrictBindings false by default")
	}
	if !cfg.EnableFastPath {
		t.Error("expected EnableFastPath true by default")
	}
	if !cfg.IsReservedLabel("Entity") {
		t.Error("expected Entity to be a reserved label by default")
	}
	if !cfg.IsKnownNodeColumn("uuid") {
		t.Error("expected uuid to be a known node column by default")
	}
	if !cfg.IsKnownEdgeColumn("relation_type") {
		t.Error("expected relation_type to be a known edge column by default")
	}
}

// Default's slices must not alias the package-level defaults, or mutating
// one Translator's config would corrupt every other Translator's.
func TestDefault_ReturnsIndependentSlices(t *testing.T) {
	a := Default()
	b := Default()
	a.ReservedLabels[0] = "mutated"
	if b.ReservedLabels[0] == "mutated" {
		t.Error("Default() results share backing arrays; mutation leaked across instances")
	}
}

func TestIsReservedLabel_CaseInsensitive(t *testing.T) {
	cfg := Default()
	tests := []string{"entity", "Entity", "ENTITY", "EnTiTy"}
	for _, label := range tests {
		if !cfg.IsReservedLabel(label) {
			t.Errorf("expected %q to match reserved label regardless of case", label)
		}
	}
	if cfg.IsReservedLabel("Unrelated") {
		t.Error("expected an unrelated label to not be reserved")
	}
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected a missing config file to be a non-error, got %v", err)
	}
	if cfg.MaxHops != DefaultMaxHops {
		t.Errorf("expected default MaxHops for a missing file, got %d", cfg.MaxHops)
	}
}

func TestLoad_OverlaysOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	const doc = "max_hops: 10\nstrict_bindings: true\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxHops != 10 {
		t.Errorf("expected overlaid MaxHops 10, got %d", cfg.MaxHops)
	}
	if !cfg.StrictBindings {
		t.Error("expected overlaid StrictBindings true")
	}
	// Fields the file doesn't mention keep their Default() value.
	if !cfg.EnableFastPath {
		t.Error("expected EnableFastPath to retain its default when the file omits it")
	}
	if !cfg.IsReservedLabel("Entity") {
		t.Error("expected ReservedLabels to retain its default when the file omits it")
	}
}

func TestLoad_MalformedYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_hops: [this is not an int\n"), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected malformed YAML to return an error")
	}
}

func TestIsKnownColumn_UnknownNamesAreJSONB(t *testing.T) {
	cfg := Default()
	if cfg.IsKnownNodeColumn("favorite_color") {
		t.Error("expected an arbitrary property name to not be a known column")
	}
	if cfg.IsKnownEdgeColumn("favorite_color") {
		t.Error("expected an arbitrary property name to not be a known column")
	}
}
