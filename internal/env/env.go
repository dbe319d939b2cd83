// Package env builds an isolated runtime (allocator plus error context) from
// a loaded configuration.
package env

import (
	"go.uber.org/zap"

	"mgenrt/internal/alloc"
	"mgenrt/internal/config"
	"mgenrt/internal/pool"
	"mgenrt/internal/rterr"
	"mgenrt/internal/rtlog"
	"mgenrt/internal/seq"
	"mgenrt/internal/strbuf"
	"mgenrt/internal/table"
	"mgenrt/internal/trace"
)

// Env is one runtime instance. Envs share nothing but the package defaults
// installed by ApplyDefaults, so several can run on different goroutines.
type Env struct {
	Config  config.Config
	Context *rterr.Context
	Alloc   *alloc.Allocator
}

// ApplyDefaults installs the container defaults of cfg process-wide.
// Call it once at startup, before any Env is used.
func ApplyDefaults(cfg config.Config) {
	seq.DefaultCapacity = cfg.Sequence.DefaultCapacity
	table.DefaultBuckets = cfg.Table.DefaultBuckets
	table.DefaultMaxLoadFactor = cfg.Table.MaxLoadFactor
	pool.DefaultSize = cfg.Pool.DefaultSize
	strbuf.DefaultCapacity = cfg.Buffer.DefaultCapacity
	rtlog.Logger().Debug("runtime defaults applied",
		zap.String("config", cfg.Path),
		zap.Int("sequence_capacity", cfg.Sequence.DefaultCapacity),
		zap.Int("table_buckets", cfg.Table.DefaultBuckets),
		zap.Float64("max_load_factor", cfg.Table.MaxLoadFactor))
}

// New creates an Env with its own error context and allocator.
func New(cfg config.Config, tracer trace.Tracer) *Env {
	ctx := rterr.NewContext(cfg.Errors.MessageLimit)
	opts := []alloc.Option{
		alloc.WithContext(ctx),
		alloc.WithLimit(cfg.Memory.LimitBytes),
		alloc.WithTracer(tracer),
	}
	if cfg.Memory.Tracking {
		opts = append(opts, alloc.WithTracking())
	}
	return &Env{Config: cfg, Context: ctx, Alloc: alloc.New(opts...)}
}

// CheckLeaks logs a warning when the allocator still holds bytes and
// reports whether it does.
func (e *Env) CheckLeaks(name string) bool {
	if !e.Alloc.Leaked() {
		return false
	}
	rtlog.Logger().Warn("runtime leaked memory",
		zap.String("env", name), zap.Int64("bytes", e.Alloc.InUse()))
	return true
}
