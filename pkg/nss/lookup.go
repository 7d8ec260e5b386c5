package nss

import (
	"strconv"
	"time"
	"unsafe"

	"github.com/identsvc/nssdirect/internal/logger"
	"github.com/identsvc/nssdirect/pkg/metrics"
)

// Resolver performs identity lookups by calling backend plugin entry
// points directly. Construct with New; the zero value has no provider.
//
// A Resolver is safe for concurrent use. Every lookup is a synchronous
// call on the invoking goroutine's thread; the resolver adds no timeouts
// or cancellation around a backend that blocks (a directory-service
// round trip, for instance). Callers needing bounded latency must wrap
// calls externally.
type Resolver struct {
	registry          *registry
	metrics           metrics.LookupMetrics
	initialBufferSize int
	maxBufferSize     int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProvider replaces the dlopen-backed plugin provider. Intended for
// tests and benchmarks that substitute in-memory backends.
func WithProvider(p Provider) Option {
	return func(r *Resolver) { r.registry = newRegistry(p) }
}

// WithMetrics attaches lookup metrics collection.
func WithMetrics(m metrics.LookupMetrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithBufferSizes overrides the initial scratch-buffer size and the cap
// the overflow retry may grow it to. Zero keeps the default for either.
func WithBufferSizes(initial, max int) Option {
	return func(r *Resolver) {
		if initial > 0 {
			r.initialBufferSize = initial
		}
		if max > 0 {
			r.maxBufferSize = max
		}
	}
}

// New creates a Resolver over the fixed backend set.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		metrics:           metrics.NewLookupMetrics(),
		initialBufferSize: defaultInitialBufferSize,
		maxBufferSize:     defaultMaxBufferSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = newRegistry(dlopenProvider{})
	}
	return r
}

// LookupUserByName resolves a user entry by login name.
//
// With BackendAny the fixed priority chain [files, sss, winbind] is walked
// and the first hit wins. A backend whose shared object is missing, that
// lacks the entry point, or that reports itself unavailable is skipped;
// any other failure aborts the chain. A pinned backend is tried alone and
// its failure returned verbatim.
func (r *Resolver) LookupUserByName(name string, backend Backend) (*UserRecord, error) {
	return timedLookup(r, OpGetPwNam, backend, name, func(b Backend) (*UserRecord, *Error) {
		return r.userByNameOn(b, name)
	})
}

// LookupUserByID resolves a user entry by numeric user id. Fallback
// semantics match LookupUserByName.
func (r *Resolver) LookupUserByID(uid uint32, backend Backend) (*UserRecord, error) {
	key := strconv.FormatUint(uint64(uid), 10)
	return timedLookup(r, OpGetPwUid, backend, key, func(b Backend) (*UserRecord, *Error) {
		return r.userByIDOn(b, uid)
	})
}

// LookupGroupByName resolves a group entry by name. Fallback semantics
// match LookupUserByName.
func (r *Resolver) LookupGroupByName(name string, backend Backend) (*GroupRecord, error) {
	return timedLookup(r, OpGetGrNam, backend, name, func(b Backend) (*GroupRecord, *Error) {
		return r.groupByNameOn(b, name)
	})
}

// LookupGroupByID resolves a group entry by numeric group id. Fallback
// semantics match LookupUserByName.
func (r *Resolver) LookupGroupByID(gid uint32, backend Backend) (*GroupRecord, error) {
	key := strconv.FormatUint(uint64(gid), 10)
	return timedLookup(r, OpGetGrGid, backend, key, func(b Backend) (*GroupRecord, *Error) {
		return r.groupByIDOn(b, gid)
	})
}

// timedLookup wraps runChain with per-operation metrics.
func timedLookup[R any](
	r *Resolver,
	op Operation,
	backend Backend,
	key string,
	try func(b Backend) (*R, *Error),
) (*R, error) {
	start := time.Now()
	rec, err := runChain(op, backend, key, try)
	outcome := "hit"
	switch {
	case IsNotFound(err):
		outcome = "miss"
	case err != nil:
		outcome = "error"
	}
	r.metrics.ObserveLookup(op.String(), backend.String(), time.Since(start), outcome)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// runChain implements first-hit-wins search across the candidate backends.
//
// The terminal not-found after an exhausted chain deliberately carries no
// backend tag: no single candidate owns the miss.
func runChain[R any](
	op Operation,
	pinned Backend,
	key string,
	try func(b Backend) (*R, *Error),
) (*R, *Error) {
	if pinned != BackendAny {
		rec, err := try(pinned)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, notFoundError(pinned, op, key)
		}
		return rec, nil
	}

	for _, b := range priorityOrder {
		rec, err := try(b)
		if err != nil {
			if err.recoverable() {
				logger.Debug("skipping %s backend for %s: %v", b, op, err)
				continue
			}
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
	return nil, notFoundError(BackendAny, op, key)
}

// The *On helpers run one operation against one backend through the
// buffered call protocol.

func (r *Resolver) userByNameOn(b Backend, name string) (*UserRecord, *Error) {
	t, lerr := r.registry.table(b)
	if lerr != nil {
		return nil, lerr
	}
	if t.GetPwNam == nil {
		return nil, unavailableError(b, OpGetPwNam)
	}
	invoke := func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return t.GetPwNam(name, record, buf, buflen, errnop)
	}
	return bufferedCall(r, b, OpGetPwNam, invoke, decodeUser)
}

func (r *Resolver) userByIDOn(b Backend, uid uint32) (*UserRecord, *Error) {
	t, lerr := r.registry.table(b)
	if lerr != nil {
		return nil, lerr
	}
	if t.GetPwUid == nil {
		return nil, unavailableError(b, OpGetPwUid)
	}
	invoke := func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return t.GetPwUid(uid, record, buf, buflen, errnop)
	}
	return bufferedCall(r, b, OpGetPwUid, invoke, decodeUser)
}

func (r *Resolver) groupByNameOn(b Backend, name string) (*GroupRecord, *Error) {
	t, lerr := r.registry.table(b)
	if lerr != nil {
		return nil, lerr
	}
	if t.GetGrNam == nil {
		return nil, unavailableError(b, OpGetGrNam)
	}
	invoke := func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return t.GetGrNam(name, record, buf, buflen, errnop)
	}
	return bufferedCall(r, b, OpGetGrNam, invoke, decodeGroup)
}

func (r *Resolver) groupByIDOn(b Backend, gid uint32) (*GroupRecord, *Error) {
	t, lerr := r.registry.table(b)
	if lerr != nil {
		return nil, lerr
	}
	if t.GetGrGid == nil {
		return nil, unavailableError(b, OpGetGrGid)
	}
	invoke := func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return t.GetGrGid(gid, record, buf, buflen, errnop)
	}
	return bufferedCall(r, b, OpGetGrGid, invoke, decodeGroup)
}
