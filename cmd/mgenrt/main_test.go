package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"mgenrt/internal/report"
	"mgenrt/internal/rterr"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--color", "off", "--config", writeConfig(t)}, args...))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		teardownRuntime()
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mgenrt.toml")
	if err := os.WriteFile(path, []byte("[memory]\ntracking = true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSliceCommand(t *testing.T) {
	out, err := runCLI(t, "slice", "10", "-3", "_", "_")
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if !strings.Contains(out, "start=7 stop=10 step=1 reverse=false len=3") || !strings.Contains(out, "[7 8 9]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSliceCommandNegativeStep(t *testing.T) {
	out, err := runCLI(t, "slice", "10", "-1", "-11", "-3")
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if !strings.Contains(out, "start=9 stop=-1 step=-3 reverse=true len=4") || !strings.Contains(out, "[9 6 3 0]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSliceCommandZeroStep(t *testing.T) {
	_, err := runCLI(t, "slice", "10", "_", "_", "0")
	if !errors.Is(err, rterr.ErrValue) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestSelfcheckCommand(t *testing.T) {
	out, err := runCLI(t, "selfcheck", "--jobs", "2")
	if err != nil {
		t.Fatalf("selfcheck: %v\n%s", err, out)
	}
	if !strings.Contains(out, "passed") || strings.Contains(out, "FAIL") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestBenchWritesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.mp")
	out, err := runCLI(t, "bench", "--n", "500", "--report", path)
	if err != nil {
		t.Fatalf("bench: %v\n%s", err, out)
	}
	if !strings.Contains(out, "seq.append") || !strings.Contains(out, "peak") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	snap, err := report.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.N != 500 || snap.Leaked || snap.Memory.Peak == 0 || len(snap.Timings.Phases) != 6 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "mgenrt ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestApplyColor(t *testing.T) {
	orig := color.NoColor
	t.Cleanup(func() { color.NoColor = orig })
	if err := applyColor("on"); err != nil || color.NoColor {
		t.Fatalf("on: err=%v NoColor=%v", err, color.NoColor)
	}
	if err := applyColor("off"); err != nil || !color.NoColor {
		t.Fatalf("off: err=%v NoColor=%v", err, color.NoColor)
	}
	if err := applyColor("sometimes"); !errors.Is(err, rterr.ErrValue) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestParseBound(t *testing.T) {
	if b, err := parseBound("_"); err != nil || b.Set {
		t.Fatalf("_ = %+v, %v", b, err)
	}
	if b, err := parseBound("-4"); err != nil || !b.Set || b.Value != -4 {
		t.Fatalf("-4 = %+v, %v", b, err)
	}
	if _, err := parseBound("x"); !errors.Is(err, rterr.ErrValue) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}
