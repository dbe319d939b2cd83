package registry_test

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mgenrt/internal/alloc"
	"mgenrt/internal/registry"
	"mgenrt/internal/rterr"
	"mgenrt/internal/rtlog"
	"mgenrt/internal/seq"
	"mgenrt/internal/table"
)

func newAlloc() *alloc.Allocator {
	return alloc.New(alloc.WithContext(rterr.NewContext(0)))
}

func TestCleanupAllDestroysEachOnce(t *testing.T) {
	a := newAlloc()
	r := registry.New(a)

	v, _ := seq.New[int](a, 0)
	_ = v.Extend(1, 2, 3)
	m, _ := table.NewStrIntMap(a)
	_, _ = m.Insert("k", 1)
	s, _ := table.NewIntSet(a)
	_, _ = s.Add(4)

	if err := registry.Track(r, v, (*seq.Vec[int]).Drop, "numbers"); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := r.TrackDropper(m, "counts"); err != nil {
		t.Fatalf("TrackDropper: %v", err)
	}
	if err := r.TrackDropper(s, "seen"); err != nil {
		t.Fatalf("TrackDropper: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d", r.Len())
	}
	if names := r.Names(); !slices.Equal(names, []string{"seen", "counts", "numbers"}) {
		t.Fatalf("Names = %v", names)
	}
	if n := r.CleanupAll(); n != 3 {
		t.Fatalf("CleanupAll destroyed %d", n)
	}
	if a.Leaked() {
		t.Fatalf("containers leaked %d bytes", a.InUse())
	}
	if r.Len() != 0 || r.CleanupAll() != 0 {
		t.Fatalf("registry not emptied")
	}
}

func TestCleanupAllEmpty(t *testing.T) {
	var r registry.Registry
	if r.CleanupAll() != 0 {
		t.Fatalf("empty registry destroyed something")
	}
	var nilReg *registry.Registry
	if nilReg.CleanupAll() != 0 {
		t.Fatalf("nil registry destroyed something")
	}
}

func TestRegisterRejectsNil(t *testing.T) {
	r := registry.New(newAlloc())
	if err := r.Register(nil, func(any) {}, "x"); !errors.Is(err, rterr.ErrValue) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	if err := registry.Track[int](r, 1, nil, "x"); !errors.Is(err, rterr.ErrValue) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("rejected entries registered")
	}
}

func TestCleanupLogsEachContainer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rtlog.SetLogger(zap.New(core))
	t.Cleanup(func() { rtlog.SetLogger(nil) })

	r := registry.New(newAlloc())
	destroyed := 0
	for _, name := range []string{"a", "b"} {
		_ = registry.Track(r, name, func(string) { destroyed++ }, name)
	}
	r.CleanupAll()
	if destroyed != 2 {
		t.Fatalf("destroyed %d", destroyed)
	}
	entries := logs.FilterMessage("registry cleanup").All()
	if len(entries) != 2 || entries[0].ContextMap()["name"] != "b" {
		t.Fatalf("unexpected log entries %v", entries)
	}
}
