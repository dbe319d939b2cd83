package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mgenrt/internal/alloc"
	"mgenrt/internal/env"
	"mgenrt/internal/observ"
	"mgenrt/internal/pool"
	"mgenrt/internal/prof"
	"mgenrt/internal/report"
	"mgenrt/internal/rterr"
	"mgenrt/internal/rtlog"
	"mgenrt/internal/seq"
	"mgenrt/internal/strbuf"
	"mgenrt/internal/table"
	"mgenrt/internal/version"
)

type benchOptions struct {
	n          int
	reportPath string
	prof       prof.Options
}

var benchOpts benchOptions

func init() {
	benchCmd.Flags().IntVar(&benchOpts.n, "n", 100_000, "operations per phase")
	benchCmd.Flags().StringVar(&benchOpts.reportPath, "report", "", "write a msgpack snapshot of the run to this file")
	benchCmd.Flags().StringVar(&benchOpts.prof.CPUPath, "cpuprofile", "", "write a CPU profile")
	benchCmd.Flags().StringVar(&benchOpts.prof.MemPath, "memprofile", "", "write a heap profile after the run")
	benchCmd.Flags().StringVar(&benchOpts.prof.TracePath, "exectrace", "", "write a Go execution trace")
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time the core container operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchOpts.n <= 0 {
			return rterr.Newf(rterr.Value, "--n must be positive, got %d", benchOpts.n)
		}
		session, err := prof.Start(benchOpts.prof)
		if err != nil {
			return err
		}
		cfg := state.cfg
		cfg.Memory.Tracking = true
		e := env.New(cfg, state.tracer)
		timer := observ.NewTimer()
		poolStats, runErr := runBench(e, timer, benchOpts.n)
		if err := session.Stop(); err != nil {
			rtlog.Logger().Warn("profiling did not finish cleanly", zap.Error(err))
		}
		if runErr != nil {
			return runErr
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, timer.Summary())
		printStats(out, e.Alloc.Stats())

		if benchOpts.reportPath != "" {
			snap := &report.Snapshot{
				Version:   version.Version,
				CreatedAt: time.Now().UTC(),
				N:         benchOpts.n,
				Memory:    e.Alloc.Stats(),
				Pool:      poolStats,
				Timings:   timer.Report(),
				Leaked:    e.CheckLeaks("bench"),
			}
			if err := report.Write(benchOpts.reportPath, snap); err != nil {
				return err
			}
			fmt.Fprintf(out, "report written to %s\n", benchOpts.reportPath)
		}
		return nil
	},
}

// runBench times each container against e's allocator, releasing
// everything it creates before returning.
func runBench(e *env.Env, timer *observ.Timer, n int) (pool.Stats, error) {
	var poolStats pool.Stats

	v, err := seq.New[int](e.Alloc, 0)
	if err != nil {
		return poolStats, err
	}
	defer v.Drop()
	if err := timer.Time("seq.append", n, func() error {
		for i := range n {
			if err := v.Append(i); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return poolStats, err
	}

	m, err := table.NewIntMap(e.Alloc)
	if err != nil {
		return poolStats, err
	}
	defer m.Drop()
	if err := timer.Time("table.insert", n, func() error {
		for i := range n {
			if _, err := m.Insert(i, i); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return poolStats, err
	}
	_ = timer.Time("table.get", n, func() error {
		for i := range n {
			m.Get(i)
		}
		return nil
	})

	sm, err := table.NewStrIntMap(e.Alloc)
	if err != nil {
		return poolStats, err
	}
	defer sm.Drop()
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "k" + strconv.Itoa(i)
	}
	if err := timer.Time("table.insert-str", n, func() error {
		for i, k := range keys {
			if _, err := sm.Insert(k, i); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return poolStats, err
	}

	p, err := pool.New(e.Alloc, 0)
	if err != nil {
		return poolStats, err
	}
	defer p.Free()
	if err := timer.Time("pool.alloc", n, func() error {
		for i := range n {
			if _, err := p.Alloc(8 + i%56); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return poolStats, err
	}
	poolStats = p.Stats()

	b, err := strbuf.New(e.Alloc, 0)
	if err != nil {
		return poolStats, err
	}
	defer b.Free()
	err = timer.Time("strbuf.append", n, func() error {
		for i := range n {
			if err := b.AppendString(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return poolStats, err
}

func printStats(w io.Writer, s alloc.Stats) {
	fmt.Fprintln(w, "memory:")
	fmt.Fprintf(w, "  total allocated  %d bytes\n", s.TotalAllocated)
	fmt.Fprintf(w, "  total freed      %d bytes\n", s.TotalFreed)
	fmt.Fprintf(w, "  current          %d bytes\n", s.Current)
	fmt.Fprintf(w, "  peak             %d bytes\n", s.Peak)
	fmt.Fprintf(w, "  allocations      %d\n", s.Allocations)
	fmt.Fprintf(w, "  frees            %d\n", s.Frees)
}
