// Package observ measures named phases of a benchmark run.
package observ

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Phase is one timed section.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Ops   int
	Note  string
}

// Timer collects phases in the order they were begun.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8), now: time.Now} }

// NewTimerWithClock creates a Timer reading time from now.
func NewTimerWithClock(now func() time.Time) *Timer {
	t := NewTimer()
	t.now = now
	return t
}

// Begin starts a phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End closes the phase idx, recording how many operations it ran.
func (t *Timer) End(idx, ops int, note string) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Ops = ops
	p.Note = note
}

// Time runs fn as a phase.
func (t *Timer) Time(name string, ops int, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	note := ""
	if err != nil {
		note = err.Error()
	}
	t.End(idx, ops, note)
	return err
}

// PhaseReport is the serialized form of a phase.
type PhaseReport struct {
	Name       string  `msgpack:"name"`
	DurationMS float64 `msgpack:"duration_ms"`
	Ops        int     `msgpack:"ops"`
	NsPerOp    float64 `msgpack:"ns_per_op"`
	Note       string  `msgpack:"note,omitempty"`
}

// Report aggregates all phases.
type Report struct {
	TotalMS float64       `msgpack:"total_ms"`
	Phases  []PhaseReport `msgpack:"phases"`
}

// Report summarizes the phases recorded so far.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.Dur
		pr := PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Ops: p.Ops, Note: p.Note}
		if p.Ops > 0 {
			pr.NsPerOp = float64(p.Dur.Nanoseconds()) / float64(p.Ops)
		}
		report.Phases[i] = pr
	}
	report.TotalMS = millis(total)
	return report
}

// Summary renders the report as an aligned table.
func (t *Timer) Summary() string {
	report := t.Report()
	width := runewidth.StringWidth("total")
	for _, p := range report.Phases {
		width = max(width, runewidth.StringWidth(p.Name))
	}
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %s %9.2f ms %10.1f ns/op", runewidth.FillRight(p.Name, width), p.DurationMS, p.NsPerOp)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %s %9.2f ms\n", runewidth.FillRight("total", width), report.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
