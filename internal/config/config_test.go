package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mgenrt/internal/config"
	"mgenrt/internal/rterr"
	"mgenrt/internal/trace"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Sequence.DefaultCapacity != 8 || cfg.Table.DefaultBuckets != 16 || cfg.Pool.DefaultSize != 4096 || cfg.Buffer.DefaultCapacity != 256 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[table]
default_buckets = 64
max_load_factor = 0

[memory]
limit_bytes = 1048576
tracking = true

[trace]
level = "detail"
mode = "ring"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Table.DefaultBuckets != 64 || cfg.Table.MaxLoadFactor != 0 {
		t.Fatalf("table section not applied: %+v", cfg.Table)
	}
	if cfg.Sequence.DefaultCapacity != config.DefaultSequenceCapacity {
		t.Fatalf("unset section lost its default: %+v", cfg.Sequence)
	}
	if !cfg.Memory.Tracking || cfg.Memory.LimitBytes != 1<<20 {
		t.Fatalf("memory section not applied: %+v", cfg.Memory)
	}
	tc, err := cfg.TracerConfig()
	if err != nil {
		t.Fatalf("TracerConfig: %v", err)
	}
	if tc.Level != trace.LevelDetail || tc.Mode != trace.ModeRing {
		t.Fatalf("unexpected tracer config %+v", tc)
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero capacity", "[sequence]\ndefault_capacity = 0\n"},
		{"negative load factor", "[table]\nmax_load_factor = -1.0\n"},
		{"negative limit", "[memory]\nlimit_bytes = -5\n"},
		{"bad trace level", "[trace]\nlevel = \"loud\"\n"},
		{"unknown key", "[pool]\nsize = 10\n"},
		{"syntax", "[pool\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := config.Load(path)
			if !errors.Is(err, rterr.ErrValue) {
				t.Fatalf("expected ValueError, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, rterr.ErrFileNotFound) {
		t.Fatalf("expected FileNotFoundError, got %v", err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[buffer]\ndefault_capacity = 32\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg, err := config.Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Buffer.DefaultCapacity != 32 {
		t.Fatalf("manifest above start dir not found: %+v", cfg.Buffer)
	}
}
