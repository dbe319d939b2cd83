package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff       Level = iota // no tracing
	LevelError                  // failures only
	LevelLifecycle              // scope/pool/registry teardown
	LevelDetail                 // container growth, rehash
	LevelDebug                  // every allocation
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelLifecycle:
		return "lifecycle"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "lifecycle":
		return LevelLifecycle, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|lifecycle|detail|debug)", s)
	}
}

// ShouldEmit reports whether an event of the given scope passes this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return scope == ScopeFailure
	case LevelLifecycle:
		return scope <= ScopeLifecycle
	case LevelDetail:
		return scope <= ScopeContainer
	case LevelDebug:
		return true
	}
	return false
}
