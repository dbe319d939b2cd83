package rterr

import (
	"errors"
	"io/fs"
	"syscall"
)

// KindFromErrno maps a system errno to a kind.
func KindFromErrno(errno syscall.Errno) Kind {
	switch errno {
	case syscall.ENOMEM:
		return Memory
	case syscall.ENOENT:
		return FileNotFound
	case syscall.EACCES, syscall.EPERM:
		return Permission
	case syscall.EIO:
		return IO
	case syscall.EINVAL:
		return Value
	default:
		return Runtime
	}
}

// FromOS wraps an OS-level error into a kinded Error.
func FromOS(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	kind := Runtime
	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		kind = KindFromErrno(errno)
	case errors.Is(err, fs.ErrNotExist):
		kind = FileNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = Permission
	case errors.Is(err, fs.ErrInvalid):
		kind = Value
	}
	return &Error{Kind: kind, Message: err.Error(), Cause: err, Location: caller(2)}
}
