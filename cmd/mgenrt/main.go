package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mgenrt/internal/rterr"
	"mgenrt/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "mgenrt",
	Short:         "Container and memory-lifecycle runtime for generated code",
	Long:          `mgenrt hosts the runtime containers used by translated programs and tools to check and measure them`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupRuntime(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardownRuntime()
	},
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(selfcheckCmd)
	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to mgenrt.toml (default: search upward from the working directory)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("trace", "", "trace level override (off|error|lifecycle|detail|debug)")
	rootCmd.PersistentFlags().String("trace-output", "", "trace output file (default: [trace].output, '-' for stderr)")
	rootCmd.PersistentFlags().String("log-level", "", "enable runtime logging at this level (debug|info|warn|error)")
}

// main runs the root command. Errors are printed in the runtime's error
// format and exit with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		rterr.Print(os.Stderr, err)
		teardownRuntime()
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
