package main

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"mgenrt/internal/rterr"
	"mgenrt/internal/selfcheck"
)

var selfcheckJobs int

func init() {
	selfcheckCmd.Flags().IntVar(&selfcheckJobs, "jobs", runtime.GOMAXPROCS(0), "maximum scenarios run in parallel")
}

var selfcheckCmd = &cobra.Command{
	Use:   "selfcheck",
	Short: "Run the runtime's behavioural checks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := selfcheck.Run(cmd.Context(), state.cfg, state.tracer, selfcheck.Scenarios, selfcheckJobs)
		if err != nil {
			return err
		}
		printResults(cmd.OutOrStdout(), results)
		if passed := selfcheck.Passed(results); passed != len(results) {
			return rterr.Newf(rterr.Runtime, "%d of %d checks failed", len(results)-passed, len(results))
		}
		return nil
	},
}

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func printResults(w io.Writer, results []selfcheck.Result) {
	width := 0
	for _, r := range results {
		width = max(width, runewidth.StringWidth(r.Name))
	}
	for _, r := range results {
		status := passColor.Sprint("ok  ")
		detail := ""
		switch {
		case r.Err != nil:
			status = failColor.Sprint("FAIL")
			detail = r.Err.Error()
		case r.Leaked > 0:
			status = failColor.Sprint("LEAK")
			detail = fmt.Sprintf("%d bytes still allocated", r.Leaked)
		}
		fmt.Fprintf(w, "%s %s %8s", status, runewidth.FillRight(r.Name, width), r.Dur.Round(time.Microsecond))
		if detail != "" {
			fmt.Fprintf(w, "  %s", detail)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d/%d passed\n", selfcheck.Passed(results), len(results))
}
