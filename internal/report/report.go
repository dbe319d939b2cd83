// Package report stores memory and timing snapshots as msgpack files.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"mgenrt/internal/alloc"
	"mgenrt/internal/observ"
	"mgenrt/internal/pool"
	"mgenrt/internal/rterr"
)

// SchemaVersion is bumped whenever Snapshot changes shape.
const SchemaVersion uint16 = 1

// Snapshot is one bench run.
type Snapshot struct {
	Schema    uint16        `msgpack:"schema"`
	Version   string        `msgpack:"version"`
	CreatedAt time.Time     `msgpack:"created_at"`
	N         int           `msgpack:"n"`
	Memory    alloc.Stats   `msgpack:"memory"`
	Pool      pool.Stats    `msgpack:"pool"`
	Timings   observ.Report `msgpack:"timings"`
	Leaked    bool          `msgpack:"leaked"`
}

// Write encodes s to path, replacing any existing file atomically.
func Write(path string, s *Snapshot) (err error) {
	if s == nil {
		return rterr.New(rterr.Value, "nil snapshot")
	}
	s.Schema = SchemaVersion
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return rterr.FromOS(err)
	}
	f, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return rterr.FromOS(err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err := msgpack.NewEncoder(f).Encode(s); err != nil {
		return rterr.Wrap(rterr.IO, err, "failed to encode report")
	}
	if err := f.Close(); err != nil {
		return rterr.FromOS(err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return rterr.FromOS(err)
	}
	return nil
}

// Read decodes the snapshot at path. A file written by a different schema
// is a ValueError.
func Read(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rterr.FromOS(err)
	}
	defer f.Close()
	var s Snapshot
	if err := msgpack.NewDecoder(f).Decode(&s); err != nil {
		return nil, rterr.Wrap(rterr.Value, err, fmt.Sprintf("%s: malformed report", path))
	}
	if s.Schema != SchemaVersion {
		return nil, rterr.Newf(rterr.Value, "%s: report schema %d, want %d", path, s.Schema, SchemaVersion)
	}
	return &s, nil
}

// IsNotExist reports whether err means the report file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, rterr.ErrFileNotFound)
}
