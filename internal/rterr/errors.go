package rterr

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Location is the call site that raised an error.
type Location struct {
	File string
	Line int
	Func string
}

// IsZero reports whether no location was captured.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Func == ""
}

func (l Location) String() string {
	if l.IsZero() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d in %s()", l.File, l.Line, l.Func)
}

// Error is the failure value returned by every fallible runtime operation.
type Error struct {
	Kind     Kind
	Message  string
	Location Location
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind located at the caller.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Location: caller(2)}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Location: caller(2)}
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause, Location: caller(2)}
}

// OutOfBounds reports an index outside [0, length).
func OutOfBounds(op string, index, length int) *Error {
	return &Error{
		Kind:     Index,
		Message:  fmt.Sprintf("%s: index %d out of bounds [0, %d)", op, index, length),
		Location: caller(2),
	}
}

// KeyNotFound reports a strict lookup of a missing key.
func KeyNotFound(key any) *Error {
	return &Error{Kind: Key, Message: fmt.Sprintf("%v", key), Location: caller(2)}
}

// ZeroStep reports a slice with step 0.
func ZeroStep() *Error {
	return &Error{Kind: Value, Message: "slice step cannot be zero", Location: caller(2)}
}

// KindOf extracts the kind of err. nil yields Ok, foreign errors yield Generic.
func KindOf(err error) Kind {
	if err == nil {
		return Ok
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Generic
}

func caller(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{}
	}
	loc := Location{File: filepath.Base(file), Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		name := fn.Name()
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		loc.Func = name
	}
	return loc
}
