package rterr

// Kind identifies the class of a runtime failure.
type Kind int

// Stable kind values - generated code switches on these numbers.
const (
	Ok           Kind = 0
	Generic      Kind = 1
	Memory       Kind = 2  // MemoryError
	Index        Kind = 3  // IndexError
	Key          Kind = 4  // KeyError
	Value        Kind = 5  // ValueError
	Type         Kind = 6  // TypeError
	IO           Kind = 7  // IOError/OSError
	FileNotFound Kind = 8  // FileNotFoundError
	Permission   Kind = 9  // PermissionError
	Runtime      Kind = 10 // RuntimeError
)

// String returns the Python exception name for the kind.
func (k Kind) String() string {
	switch k {
	case Ok:
		return "OK"
	case Generic:
		return "GenericError"
	case Memory:
		return "MemoryError"
	case Index:
		return "IndexError"
	case Key:
		return "KeyError"
	case Value:
		return "ValueError"
	case Type:
		return "TypeError"
	case IO:
		return "IOError"
	case FileNotFound:
		return "FileNotFoundError"
	case Permission:
		return "PermissionError"
	case Runtime:
		return "RuntimeError"
	default:
		return "UnknownError"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrGeneric      = &Error{Kind: Generic}
	ErrMemory       = &Error{Kind: Memory}
	ErrIndex        = &Error{Kind: Index}
	ErrKey          = &Error{Kind: Key}
	ErrValue        = &Error{Kind: Value}
	ErrType         = &Error{Kind: Type}
	ErrIO           = &Error{Kind: IO}
	ErrFileNotFound = &Error{Kind: FileNotFound}
	ErrPermission   = &Error{Kind: Permission}
	ErrRuntime      = &Error{Kind: Runtime}
)
