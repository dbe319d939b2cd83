// Package version reports the build version of mgenrt.
package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build metadata, overridable with -ldflags "-X mgenrt/internal/version.Version=...".
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
	metaColor  = color.New(color.Faint)
)

// Colored renders Version with each numeric part coloured. Colour follows
// color.NoColor.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// String is the full one-line version banner.
func String() string {
	var sb strings.Builder
	sb.WriteString("mgenrt ")
	sb.WriteString(Colored())
	var meta []string
	if GitCommit != "" {
		meta = append(meta, "commit "+GitCommit)
	}
	if BuildDate != "" {
		meta = append(meta, "built "+BuildDate)
	}
	if len(meta) > 0 {
		sb.WriteString(" ")
		sb.WriteString(metaColor.Sprint("(" + strings.Join(meta, ", ") + ")"))
	}
	return sb.String()
}
