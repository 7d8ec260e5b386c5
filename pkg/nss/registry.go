package nss

import (
	"fmt"
	"sync"
)

// registry caches loaded backends for the life of the process.
//
// Both outcomes of a load are cached on first use: a backend whose shared
// object is missing stays failed instead of being probed again on every
// call. Nothing is ever evicted or reloaded; plugins may hold per-thread
// cursor state that must outlive any individual call, so handles stay live
// until the process exits.
//
// The write lock covers only the load itself. Resolved tables are returned
// by value of pointer and read lock-free afterwards, so a slow native call
// never serializes other lookups. A panic out of a provider during a load
// propagates and takes the process down rather than leaving a
// half-initialized slot behind.
type registry struct {
	provider Provider

	mu       sync.RWMutex
	backends map[Backend]*loadedBackend
}

// loadedBackend is one cache slot: either a resolved table or the load
// failure that produced it.
type loadedBackend struct {
	table *Table
	err   *Error
}

func newRegistry(p Provider) *registry {
	return &registry{
		provider: p,
		backends: make(map[Backend]*loadedBackend),
	}
}

// table returns the entry-point table for b, loading the plugin on first
// use.
func (r *registry) table(b Backend) (*Table, *Error) {
	r.mu.RLock()
	lb, ok := r.backends[b]
	r.mu.RUnlock()
	if ok {
		return lb.table, lb.err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if lb, ok := r.backends[b]; ok {
		return lb.table, lb.err
	}

	d, ok := b.descriptor()
	if !ok {
		return nil, &Error{
			Code:    CodeLoad,
			Backend: b,
			Message: fmt.Sprintf("no descriptor for backend %d", int(b)),
		}
	}

	lb = &loadedBackend{}
	t, err := r.provider.Open(d)
	if err != nil {
		lb.err = &Error{
			Code:    CodeLoad,
			Backend: b,
			Message: fmt.Sprintf("loading %s backend: %v", b, err),
		}
	} else {
		lb.table = t
	}
	r.backends[b] = lb
	return lb.table, lb.err
}
