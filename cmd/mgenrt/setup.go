package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mgenrt/internal/config"
	"mgenrt/internal/env"
	"mgenrt/internal/rterr"
	"mgenrt/internal/rtlog"
	"mgenrt/internal/trace"
)

// runtimeState is what the persistent pre-run hands to subcommands.
type runtimeState struct {
	cfg    config.Config
	tracer trace.Tracer
}

var state = runtimeState{cfg: config.Default(), tracer: trace.Nop}

func setupRuntime(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()

	colorMode, err := flags.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColor(colorMode); err != nil {
		return err
	}

	if level, _ := flags.GetString("log-level"); level != "" {
		logger, err := rtlog.NewDevelopment(level)
		if err != nil {
			return rterr.Wrap(rterr.Value, err, "invalid --log-level")
		}
		rtlog.SetLogger(logger)
	}

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if lvl, _ := flags.GetString("trace"); lvl != "" {
		cfg.Trace.Level = lvl
	}
	if out, _ := flags.GetString("trace-output"); out != "" {
		cfg.Trace.Output = out
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tcfg, err := cfg.TracerConfig()
	if err != nil {
		return err
	}
	tracer, err := trace.New(tcfg)
	if err != nil {
		return rterr.FromOS(err)
	}

	env.ApplyDefaults(cfg)
	state = runtimeState{cfg: cfg, tracer: tracer}
	rtlog.Logger().Debug("runtime ready", zap.String("config", cfg.Path), zap.Stringer("trace", tcfg.Level))
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, rterr.FromOS(err)
	}
	return config.Discover(wd)
}

func applyColor(mode string) error {
	switch strings.ToLower(mode) {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout) || os.Getenv("NO_COLOR") != ""
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return rterr.Newf(rterr.Value, "invalid --color %q (expected auto|on|off)", mode)
	}
	return nil
}

// teardownRuntime flushes the tracer and logger. Safe to call twice.
func teardownRuntime() {
	if state.tracer != nil {
		if rt, ok := state.tracer.(*trace.RingTracer); ok {
			_ = rt.Dump(os.Stderr, trace.FormatText)
		}
		_ = state.tracer.Close()
		state.tracer = trace.Nop
	}
	_ = rtlog.Logger().Sync()
}
