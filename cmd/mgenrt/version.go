package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"mgenrt/internal/rterr"
	"mgenrt/internal/version"
)

type versionPayload struct {
	Tool      string `msgpack:"tool"`
	Version   string `msgpack:"version"`
	GitCommit string `msgpack:"git_commit,omitempty"`
	BuildDate string `msgpack:"build_date,omitempty"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|msgpack)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show mgenrt build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch strings.ToLower(versionFormat) {
		case "pretty":
			fmt.Fprintln(out, version.String())
			return nil
		case "msgpack":
			return msgpack.NewEncoder(out).Encode(versionPayload{
				Tool:      "mgenrt",
				Version:   version.Version,
				GitCommit: version.GitCommit,
				BuildDate: version.BuildDate,
			})
		default:
			return rterr.Newf(rterr.Value, "unknown --format %q (expected pretty|msgpack)", versionFormat)
		}
	},
}
