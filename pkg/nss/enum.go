package nss

import (
	"unsafe"

	"github.com/identsvc/nssdirect/internal/logger"
)

// enumState tracks a session's position in its lifecycle.
type enumState int

const (
	stateUnopened enumState = iota
	stateOpen
	stateClosed
	stateFailed // begin-call failed; the failure is sticky
)

// session is the shared begin/next/end state machine behind UserIter and
// GroupIter.
//
// The begin-call is issued lazily on the first Next. Exhaustion does not
// close the backend's cursor; the cursor stays parked until Close so the
// backend's internal state is released exactly once, on disposal.
type session[R any] struct {
	r        *Resolver
	b        Backend
	database string
	beginOp  Operation
	endOp    Operation
	next     func() (*R, *Error)

	state enumState
	cur   *R
	err   *Error
	count int
}

// Next advances the traversal. It returns false at the end of the
// database or on the first error; Err distinguishes the two.
func (s *session[R]) Next() bool {
	switch s.state {
	case stateClosed, stateFailed:
		return false
	case stateUnopened:
		if err := s.r.enumControl(s.b, s.beginOp); err != nil {
			s.err = err
			s.state = stateFailed
			return false
		}
		s.state = stateOpen
	}
	if s.err != nil {
		return false
	}

	rec, err := s.next()
	if err != nil {
		s.err = err
		return false
	}
	if rec == nil {
		return false
	}
	s.cur = rec
	s.count++
	return true
}

// Record returns the entry produced by the last successful Next.
func (s *session[R]) Record() *R { return s.cur }

// Err returns the error that stopped the traversal, if any. Exhaustion is
// not an error.
func (s *session[R]) Err() error {
	if s.err != nil {
		return s.err
	}
	return nil
}

// Close releases the backend's enumeration cursor. It is safe to call on
// any state and more than once; the end-call fires at most once, and only
// if the traversal ever opened. A failing end-call is best-effort cleanup:
// it is logged, never escalated.
func (s *session[R]) Close() error {
	prev := s.state
	s.state = stateClosed
	if prev != stateOpen {
		return nil
	}
	s.r.metrics.ObserveEnumeration(s.database, s.b.String(), s.count)
	if err := s.r.enumControl(s.b, s.endOp); err != nil {
		logger.Warn("closing %s enumeration on %s: %v", s.database, s.b, err)
	}
	return nil
}

// UserIter is a stateful traversal of one backend's user database.
//
// Usage follows the sql.Rows shape:
//
//	it := resolver.Users(nss.BackendFiles)
//	defer it.Close()
//	for it.Next() {
//		u := it.Record()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// A backend keeps at most one live enumeration cursor per thread per
// database; running two same-database iterators on one OS thread corrupts
// both. The iterator cannot detect or enforce this.
type UserIter struct {
	session[UserRecord]
}

// Users opens a lazy, non-restartable traversal of the backend's user
// database. The backend must be concrete: enumeration never falls back.
func (r *Resolver) Users(b Backend) *UserIter {
	it := &UserIter{session[UserRecord]{
		r:        r,
		b:        b,
		database: "passwd",
		beginOp:  OpSetPwEnt,
		endOp:    OpEndPwEnt,
	}}
	it.next = func() (*UserRecord, *Error) { return r.nextUserOn(b) }
	return it
}

// GroupIter is a stateful traversal of one backend's group database. See
// UserIter for the usage contract.
type GroupIter struct {
	session[GroupRecord]
}

// Groups opens a lazy, non-restartable traversal of the backend's group
// database. The backend must be concrete: enumeration never falls back.
func (r *Resolver) Groups(b Backend) *GroupIter {
	it := &GroupIter{session[GroupRecord]{
		r:        r,
		b:        b,
		database: "group",
		beginOp:  OpSetGrEnt,
		endOp:    OpEndGrEnt,
	}}
	it.next = func() (*GroupRecord, *Error) { return r.nextGroupOn(b) }
	return it
}

// AllUsers collects every user entry. With BackendAny the backends are
// walked in priority order and their results concatenated backend by
// backend; entries are not deduplicated across backends. A backend that
// cannot be loaded, lacks enumeration, or reports itself unavailable
// contributes what it produced so far and is skipped.
func (r *Resolver) AllUsers(backend Backend) ([]UserRecord, error) {
	var all []UserRecord
	for _, b := range candidateBackends(backend) {
		records, err := collectUsers(r, b)
		all = append(all, records...)
		if err != nil {
			if err.recoverable() {
				logger.Debug("skipping user enumeration on %s: %v", b, err)
				continue
			}
			return nil, err
		}
	}
	return all, nil
}

// AllGroups collects every group entry, with the same aggregation
// semantics as AllUsers.
func (r *Resolver) AllGroups(backend Backend) ([]GroupRecord, error) {
	var all []GroupRecord
	for _, b := range candidateBackends(backend) {
		records, err := collectGroups(r, b)
		all = append(all, records...)
		if err != nil {
			if err.recoverable() {
				logger.Debug("skipping group enumeration on %s: %v", b, err)
				continue
			}
			return nil, err
		}
	}
	return all, nil
}

func candidateBackends(b Backend) []Backend {
	if b == BackendAny {
		return priorityOrder
	}
	return []Backend{b}
}

func collectUsers(r *Resolver, b Backend) ([]UserRecord, *Error) {
	it := r.Users(b)
	defer it.Close()

	var records []UserRecord
	for it.Next() {
		records = append(records, *it.Record())
	}
	return records, it.session.err
}

func collectGroups(r *Resolver, b Backend) ([]GroupRecord, *Error) {
	it := r.Groups(b)
	defer it.Close()

	var records []GroupRecord
	for it.Next() {
		records = append(records, *it.Record())
	}
	return records, it.session.err
}

// enumControl issues a begin or end entry point, which takes no arguments
// and moves the backend's internal cursor.
func (r *Resolver) enumControl(b Backend, op Operation) *Error {
	t, lerr := r.registry.table(b)
	if lerr != nil {
		return lerr
	}
	fn := t.control(op)
	if fn == nil {
		return unavailableError(b, op)
	}
	if status := statusFromCode(fn()); status != StatusSuccess {
		return &Error{
			Code:      CodeOperation,
			Backend:   b,
			Operation: op,
			Status:    status,
			Message:   "entry point reported status " + status.String(),
		}
	}
	return nil
}

func (r *Resolver) nextUserOn(b Backend) (*UserRecord, *Error) {
	t, lerr := r.registry.table(b)
	if lerr != nil {
		return nil, lerr
	}
	if t.GetPwEnt == nil {
		return nil, unavailableError(b, OpGetPwEnt)
	}
	invoke := func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return t.GetPwEnt(record, buf, buflen, errnop)
	}
	return bufferedCall(r, b, OpGetPwEnt, invoke, decodeUser)
}

func (r *Resolver) nextGroupOn(b Backend) (*GroupRecord, *Error) {
	t, lerr := r.registry.table(b)
	if lerr != nil {
		return nil, lerr
	}
	if t.GetGrEnt == nil {
		return nil, unavailableError(b, OpGetGrEnt)
	}
	invoke := func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return t.GetGrEnt(record, buf, buflen, errnop)
	}
	return bufferedCall(r, b, OpGetGrEnt, invoke, decodeGroup)
}
