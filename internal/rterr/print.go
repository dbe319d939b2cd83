package rterr

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	kindColor = color.New(color.FgRed, color.Bold)
	locColor  = color.New(color.FgHiBlack)
)

// Print writes err in the runtime's report format:
//
//	mgen runtime error [IndexError]: get: index 4 out of bounds [0, 3)
//	  at vec.go:88 in seq.(*Vec[...]).Get()
//
// Colour follows color.NoColor.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var e *Error
	if !errors.As(err, &e) {
		e = FromOS(err)
		e.Location = Location{}
	}
	fmt.Fprintf(w, "mgen runtime error [%s]: %s\n", kindColor.Sprint(e.Kind), e.Message)
	if !e.Location.IsZero() {
		fmt.Fprintf(w, "  at %s\n", locColor.Sprint(e.Location))
	}
}

// PrintLast prints the pending failure of c, if any.
func PrintLast(w io.Writer, c *Context) {
	if last := c.Last(); last != nil {
		Print(w, last)
	}
}
