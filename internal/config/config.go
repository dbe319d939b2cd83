// Package config loads runtime tuning from mgenrt.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"mgenrt/internal/rterr"
	"mgenrt/internal/trace"
)

// FileName is the manifest looked up by Find.
const FileName = "mgenrt.toml"

// Defaults shared by the containers.
const (
	DefaultSequenceCapacity = 8
	DefaultTableBuckets     = 16
	DefaultMaxLoadFactor    = 0.75
	DefaultPoolSize         = 4096
	DefaultBufferCapacity   = 256
	DefaultMessageLimit     = 512
)

// Config is the decoded manifest.
type Config struct {
	Sequence SequenceConfig `toml:"sequence"`
	Table    TableConfig    `toml:"table"`
	Pool     PoolConfig     `toml:"pool"`
	Buffer   BufferConfig   `toml:"buffer"`
	Memory   MemoryConfig   `toml:"memory"`
	Errors   ErrorsConfig   `toml:"errors"`
	Trace    TraceConfig    `toml:"trace"`

	// Path is the file the config was read from; empty for Default().
	Path string `toml:"-"`
}

type SequenceConfig struct {
	DefaultCapacity int `toml:"default_capacity"`
}

type TableConfig struct {
	DefaultBuckets int     `toml:"default_buckets"`
	MaxLoadFactor  float64 `toml:"max_load_factor"`
}

type PoolConfig struct {
	DefaultSize int `toml:"default_size"`
}

type BufferConfig struct {
	DefaultCapacity int `toml:"default_capacity"`
}

type MemoryConfig struct {
	LimitBytes int64 `toml:"limit_bytes"`
	Tracking   bool  `toml:"tracking"`
}

type ErrorsConfig struct {
	MessageLimit int `toml:"message_limit"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Sequence: SequenceConfig{DefaultCapacity: DefaultSequenceCapacity},
		Table:    TableConfig{DefaultBuckets: DefaultTableBuckets, MaxLoadFactor: DefaultMaxLoadFactor},
		Pool:     PoolConfig{DefaultSize: DefaultPoolSize},
		Buffer:   BufferConfig{DefaultCapacity: DefaultBufferCapacity},
		Errors:   ErrorsConfig{MessageLimit: DefaultMessageLimit},
		Trace:    TraceConfig{Level: "off", Mode: "stream", Output: "-"},
	}
}

// Find walks up from startDir looking for mgenrt.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, rterr.Wrap(rterr.FromOS(err).Kind, err, fmt.Sprintf("failed to stat %q", candidate))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest manifest above startDir, or the defaults.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return Config{}, rterr.Newf(rterr.Value, "%s: failed to parse TOML: %s", path, perr.Message)
		}
		if fe := rterr.FromOS(err); fe.Kind != rterr.Runtime {
			return Config{}, rterr.Wrap(fe.Kind, err, path)
		}
		return Config{}, rterr.Wrap(rterr.Value, err, path+": failed to parse TOML")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, rterr.Newf(rterr.Value, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges; errors are ValueError-kinded.
func (c *Config) Validate() error {
	prefix := c.Path
	if prefix == "" {
		prefix = FileName
	}
	switch {
	case c.Sequence.DefaultCapacity <= 0:
		return rterr.Newf(rterr.Value, "%s: [sequence].default_capacity must be positive, got %d", prefix, c.Sequence.DefaultCapacity)
	case c.Table.DefaultBuckets <= 0:
		return rterr.Newf(rterr.Value, "%s: [table].default_buckets must be positive, got %d", prefix, c.Table.DefaultBuckets)
	case c.Table.MaxLoadFactor < 0:
		return rterr.Newf(rterr.Value, "%s: [table].max_load_factor must not be negative, got %g", prefix, c.Table.MaxLoadFactor)
	case c.Pool.DefaultSize <= 0:
		return rterr.Newf(rterr.Value, "%s: [pool].default_size must be positive, got %d", prefix, c.Pool.DefaultSize)
	case c.Buffer.DefaultCapacity <= 0:
		return rterr.Newf(rterr.Value, "%s: [buffer].default_capacity must be positive, got %d", prefix, c.Buffer.DefaultCapacity)
	case c.Memory.LimitBytes < 0:
		return rterr.Newf(rterr.Value, "%s: [memory].limit_bytes must not be negative, got %d", prefix, c.Memory.LimitBytes)
	case c.Errors.MessageLimit <= 0:
		return rterr.Newf(rterr.Value, "%s: [errors].message_limit must be positive, got %d", prefix, c.Errors.MessageLimit)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return rterr.Wrap(rterr.Value, err, prefix+": [trace].level")
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return rterr.Wrap(rterr.Value, err, prefix+": [trace].mode")
	}
	return nil
}

// TracerConfig converts the [trace] section into a tracer configuration.
func (c *Config) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, rterr.Wrap(rterr.Value, err, "[trace].level")
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, rterr.Wrap(rterr.Value, err, "[trace].mode")
	}
	return trace.Config{Level: level, Mode: mode, OutputPath: c.Trace.Output}, nil
}
