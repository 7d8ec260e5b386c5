package nss

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// defaultInitialBufferSize is the starting scratch-buffer size for
	// reentrant calls, matching the usual glibc suggestion.
	defaultInitialBufferSize = 1024

	// defaultMaxBufferSize caps the overflow doubling so a plugin that
	// keeps reporting ERANGE cannot grow the buffer without bound.
	defaultMaxBufferSize = 1 << 20
)

// rawInvoke runs one resolved entry point against a fresh record area and
// scratch buffer. Implementations close over the lookup key, if any.
type rawInvoke func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32

// bufferedCall drives one reentrant entry point through the overflow retry
// loop and decodes the outcome.
//
// Each attempt gets a zeroed record area and a zeroed scratch buffer. When
// the plugin reports ERANGE the buffer size doubles and the call repeats;
// the retries never surface to the caller. A NotFound status is a nil
// record, not an error. Success and Return hand the raw record to the
// decoder while the backing buffer is still alive.
func bufferedCall[T, R any](
	r *Resolver,
	b Backend,
	op Operation,
	invoke rawInvoke,
	decode func(raw *T, b Backend) (*R, *Error),
) (*R, *Error) {
	for size := r.initialBufferSize; ; size *= 2 {
		if size > r.maxBufferSize {
			return nil, &Error{
				Code:      CodeOperation,
				Backend:   b,
				Operation: op,
				Status:    StatusTryAgain,
				Message:   fmt.Sprintf("scratch buffer limit of %d bytes exceeded", r.maxBufferSize),
			}
		}

		var raw T
		buf := make([]byte, size)
		var errno int32

		code := invoke(unsafe.Pointer(&raw), unsafe.Pointer(&buf[0]), uintptr(size), unsafe.Pointer(&errno))

		if errno == int32(unix.ERANGE) {
			r.metrics.ObserveBufferRetry(op.String(), b.String())
			continue
		}
		if errno != 0 {
			return nil, &Error{
				Code:      CodeOperation,
				Backend:   b,
				Operation: op,
				Errno:     uint32(errno),
				Status:    statusFromCode(code),
				Message:   "entry point reported an error",
			}
		}

		switch status := statusFromCode(code); status {
		case StatusNotFound:
			return nil, nil
		case StatusSuccess, StatusReturn:
			rec, derr := decode(&raw, b)
			if derr != nil {
				derr.Operation = op
				return nil, derr
			}
			return rec, nil
		default:
			return nil, &Error{
				Code:      CodeOperation,
				Backend:   b,
				Operation: op,
				Status:    status,
				Message:   "entry point reported status " + status.String(),
			}
		}
	}
}
