package nss

import "fmt"

// ErrorCode is the category of a lookup error.
//
// The fallback chain treats CodeLoad, CodeUnavailable, and operation
// failures carrying StatusUnavail as recoverable: the offending backend is
// skipped and the chain moves on. Everything else aborts the call.
type ErrorCode int

const (
	// CodeLoad indicates the backend's shared object is missing or could
	// not be loaded. Load failures are cached for the rest of the process.
	CodeLoad ErrorCode = iota

	// CodeUnavailable indicates the backend does not export the entry
	// point the call needs. Other operations on the same backend are
	// unaffected.
	CodeUnavailable

	// CodeEncoding indicates the record's primary name field was not valid
	// UTF-8. Never skipped, always surfaced.
	CodeEncoding

	// CodeOperation indicates the entry point reported a failure status or
	// a nonzero errno other than the internal buffer-overflow signal.
	CodeOperation

	// CodeNotFound indicates no candidate backend produced the entry.
	CodeNotFound
)

func (c ErrorCode) String() string {
	switch c {
	case CodeLoad:
		return "load"
	case CodeUnavailable:
		return "unavailable"
	case CodeEncoding:
		return "encoding"
	case CodeOperation:
		return "operation"
	case CodeNotFound:
		return "notfound"
	default:
		return "unknown"
	}
}

// Error is a structured lookup failure.
//
// Backend is BackendAny when no single backend owns the failure, which is
// the case for a keyed lookup that exhausted the whole fallback chain.
type Error struct {
	Code      ErrorCode
	Backend   Backend
	Operation Operation
	Errno     uint32
	Status    Status
	Message   string
}

func (e *Error) Error() string {
	if e.Code == CodeOperation {
		return fmt.Sprintf("nss: %s: %s on %s failed with errno %d (status %s)",
			e.Message, e.Operation, e.Backend, e.Errno, e.Status)
	}
	return "nss: " + e.Message
}

// recoverable reports whether the fallback chain may skip the backend that
// produced this error and keep going.
func (e *Error) recoverable() bool {
	switch e.Code {
	case CodeLoad, CodeUnavailable:
		return true
	case CodeOperation:
		return e.Status == StatusUnavail
	default:
		return false
	}
}

// IsNotFound reports whether err is a terminal not-found failure.
func IsNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e != nil && e.Code == CodeNotFound
}

func unavailableError(b Backend, op Operation) *Error {
	return &Error{
		Code:      CodeUnavailable,
		Backend:   b,
		Operation: op,
		Message:   fmt.Sprintf("%s backend does not export %s", b, op),
	}
}

func notFoundError(b Backend, op Operation, key string) *Error {
	msg := fmt.Sprintf("%s: %q not found", op, key)
	if b == BackendAny {
		msg += " in any backend"
	}
	return &Error{Code: CodeNotFound, Backend: b, Operation: op, Message: msg}
}
