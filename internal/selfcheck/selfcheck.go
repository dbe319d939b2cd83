// Package selfcheck runs the runtime's behavioural checks, each against its
// own isolated runtime.
package selfcheck

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mgenrt/internal/config"
	"mgenrt/internal/env"
	"mgenrt/internal/rtlog"
	"mgenrt/internal/trace"
)

// Scenario is one named check.
type Scenario struct {
	Name string
	Run  func(*env.Env) error
}

// Result is the outcome of one scenario.
type Result struct {
	Name   string
	Err    error
	Leaked int64
	Dur    time.Duration
}

// OK reports whether the scenario passed without leaking.
func (r Result) OK() bool { return r.Err == nil && r.Leaked == 0 }

// Run executes scenarios with at most jobs running at once. Results are in
// the order of scenarios. A panicking scenario is reported as failed.
func Run(ctx context.Context, cfg config.Config, tracer trace.Tracer, scenarios []Scenario, jobs int) ([]Result, error) {
	if jobs <= 0 {
		jobs = 1
	}
	results := make([]Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(scenarios))))
	for i, sc := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runOne(cfg, tracer, sc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func runOne(cfg config.Config, tracer trace.Tracer, sc Scenario) (res Result) {
	res.Name = sc.Name
	e := env.New(cfg, tracer)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
		res.Dur = time.Since(start)
		if e.CheckLeaks(sc.Name) {
			res.Leaked = e.Alloc.InUse()
		}
		rtlog.Logger().Debug("selfcheck scenario finished",
			zap.String("name", sc.Name), zap.Duration("took", res.Dur), zap.Error(res.Err))
	}()
	res.Err = sc.Run(e)
	return res
}

// Passed counts passing results.
func Passed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.OK() {
			n++
		}
	}
	return n
}
