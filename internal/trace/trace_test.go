package trace_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mgenrt/internal/trace"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "lifecycle", "detail", "debug"} {
		lvl, err := trace.ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if lvl.String() != s {
			t.Errorf("round trip %q -> %q", s, lvl.String())
		}
	}
	if _, err := trace.ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeFailure, false},
		{trace.LevelError, trace.ScopeFailure, true},
		{trace.LevelError, trace.ScopeLifecycle, false},
		{trace.LevelLifecycle, trace.ScopeLifecycle, true},
		{trace.LevelLifecycle, trace.ScopeContainer, false},
		{trace.LevelDetail, trace.ScopeContainer, true},
		{trace.LevelDetail, trace.ScopeAlloc, false},
		{trace.LevelDebug, trace.ScopeAlloc, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%v.ShouldEmit(%v) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{Level: trace.LevelDebug, Mode: trace.ModeStream, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	trace.Point(tr, trace.KindAlloc, trace.ScopeAlloc, "seq.Vec", 64, "cap=8")
	out := buf.String()
	if !strings.Contains(out, "alloc seq.Vec 64B (cap=8)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelDetail, trace.FormatNDJSON)
	trace.Point(tr, trace.KindRehash, trace.ScopeContainer, "table.Table", 0, "16->32")
	trace.Point(tr, trace.KindAlloc, trace.ScopeAlloc, "ignored", 8, "")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["kind"] != "rehash" || got["detail"] != "16->32" {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestRingTracerWraps(t *testing.T) {
	tr := trace.NewRingTracer(3, trace.LevelDebug)
	for i := 0; i < 5; i++ {
		trace.Point(tr, trace.KindFree, trace.ScopeAlloc, "n", int64(i), "")
	}
	snap := tr.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	for i, ev := range snap {
		if ev.Bytes != int64(i+2) {
			t.Fatalf("event %d has bytes %d, want %d", i, ev.Bytes, i+2)
		}
	}
	tr.Reset()
	if tr.Len() != 0 || len(tr.Snapshot()) != 0 {
		t.Fatalf("reset kept %d events", tr.Len())
	}
	trace.Point(tr, trace.KindFree, trace.ScopeAlloc, "n", 9, "")
	if snap := tr.Snapshot(); len(snap) != 1 || snap[0].Bytes != 9 {
		t.Fatalf("unexpected snapshot after reset: %+v", snap)
	}
}

func TestNopIsDisabled(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("LevelOff must produce a disabled tracer")
	}
	trace.Point(tr, trace.KindAlloc, trace.ScopeAlloc, "x", 1, "")
	trace.Point(nil, trace.KindAlloc, trace.ScopeAlloc, "x", 1, "")
}
