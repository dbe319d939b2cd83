package rterr

import (
	"errors"
	"unicode/utf8"
)

// DefaultMessageLimit bounds the stored message length in bytes.
const DefaultMessageLimit = 512

// Context is the sticky last-error side channel.
// It is overwritten by every failure and is not safe for concurrent use:
// callers inspect it right after the failing call.
type Context struct {
	kind  Kind
	msg   string
	loc   Location
	limit int
}

// NewContext creates an empty context with the given message limit
// (0 selects DefaultMessageLimit).
func NewContext(messageLimit int) *Context {
	if messageLimit <= 0 {
		messageLimit = DefaultMessageLimit
	}
	return &Context{limit: messageLimit}
}

var defaultContext = NewContext(0)

// Default returns the process-wide context.
func Default() *Context { return defaultContext }

// SetDefault replaces the process-wide context and returns the previous one.
func SetDefault(c *Context) *Context {
	prev := defaultContext
	if c == nil {
		c = NewContext(0)
	}
	defaultContext = c
	return prev
}

// Record stores err as the last error and returns it unchanged.
// A nil err leaves the context untouched.
func (c *Context) Record(err error) error {
	if c == nil || err == nil {
		return err
	}
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if e.Cause != nil {
			msg += ": " + e.Cause.Error()
		}
		c.set(e.Kind, msg, e.Location)
		return err
	}
	c.set(Generic, err.Error(), Location{})
	return err
}

// Set records a failure raised at the caller.
func (c *Context) Set(kind Kind, msg string) {
	if c == nil {
		return
	}
	c.set(kind, msg, caller(2))
}

func (c *Context) set(kind Kind, msg string, loc Location) {
	c.kind = kind
	c.msg = c.bound(msg)
	c.loc = loc
}

func (c *Context) bound(msg string) string {
	limit := c.limit
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// Last returns the recorded failure as an error, or nil.
func (c *Context) Last() *Error {
	if c == nil || c.kind == Ok {
		return nil
	}
	return &Error{Kind: c.kind, Message: c.msg, Location: c.loc}
}

// LastKind returns the kind of the last failure.
func (c *Context) LastKind() Kind {
	if c == nil {
		return Ok
	}
	return c.kind
}

// LastMessage returns the bounded message of the last failure.
func (c *Context) LastMessage() string {
	if c == nil {
		return ""
	}
	return c.msg
}

// Location returns where the last failure was raised.
func (c *Context) Location() Location {
	if c == nil {
		return Location{}
	}
	return c.loc
}

// Has reports whether a failure is pending.
func (c *Context) Has() bool {
	return c != nil && c.kind != Ok
}

// Clear resets the context to Ok.
func (c *Context) Clear() {
	if c == nil {
		return
	}
	c.kind = Ok
	c.msg = ""
	c.loc = Location{}
}

// LastError returns the last failure of the process-wide context.
func LastError() *Error { return defaultContext.Last() }

// ClearError clears the process-wide context.
func ClearError() { defaultContext.Clear() }
