package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mgenrt/internal/rterr"
	"mgenrt/internal/slice"
)

const maxListedIndices = 64

func init() {
	// Bounds are often negative; stop flag parsing at LENGTH so "-3" stays positional.
	sliceCmd.Flags().SetInterspersed(false)
}

var sliceCmd = &cobra.Command{
	Use:   "slice LENGTH START STOP STEP",
	Short: "Show how a slice resolves against a sequence length ('_' omits a part)",
	Example: `  mgenrt slice 10 -3 _ _
  mgenrt slice 10 _ _ -1`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		length, err := strconv.Atoi(args[0])
		if err != nil {
			return rterr.Newf(rterr.Value, "invalid length %q", args[0])
		}
		var parts [3]slice.Bound
		for i, arg := range args[1:] {
			if parts[i], err = parseBound(arg); err != nil {
				return err
			}
		}
		desc := slice.Descriptor{Start: parts[0], Stop: parts[1], Step: parts[2]}
		n, err := slice.Normalize(desc, length)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s over length %d\n", desc, length)
		fmt.Fprintf(out, "  start=%d stop=%d step=%d reverse=%t len=%d\n", n.Start, n.Stop, n.Step, n.Reverse, n.Len)
		fmt.Fprintf(out, "  indices: %s\n", formatIndices(n))
		return nil
	},
}

func parseBound(s string) (slice.Bound, error) {
	if s == "_" || s == "" {
		return slice.Omitted(), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return slice.Bound{}, rterr.Newf(rterr.Value, "invalid slice bound %q", s)
	}
	return slice.At(v), nil
}

func formatIndices(n slice.Normalized) string {
	parts := make([]string, 0, min(n.Len, maxListedIndices))
	for i := range n.Indices() {
		if len(parts) == maxListedIndices {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, strconv.Itoa(i))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
