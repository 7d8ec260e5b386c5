// Package nsstest provides an in-memory plugin provider for exercising the
// resolver without loading real NSS shared objects.
//
// Fixture backends speak the same entry-point protocol as native plugins:
// they fill C-layout records whose pointers lead into the caller's scratch
// buffer, report overflow through ERANGE, and keep a per-database
// enumeration cursor. The full buffered-call path, including the decoder
// and the retry loop, runs unchanged against them.
package nsstest

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/identsvc/nssdirect/pkg/nss"
)

// User is a fixture user entry. Empty Comment, HomeDir, and Shell fields
// are encoded as null pointers, the way a sparse native record comes back.
type User struct {
	Name    string
	UID     uint32
	GID     uint32
	Comment string
	HomeDir string
	Shell   string
}

// Group is a fixture group entry. A nil Members slice is encoded as a null
// member-list pointer; an empty non-nil slice becomes a list with zero
// entries.
type Group struct {
	Name    string
	GID     uint32
	Members []string
}

// Backend is one scripted in-memory plugin.
type Backend struct {
	Users  []User
	Groups []Group

	// Missing lists operations whose table slot is left nil, as for a
	// plugin that does not export the symbol.
	Missing []nss.Operation

	// MinBufferSize makes every record-producing call report ERANGE until
	// the scratch buffer reaches this size.
	MinBufferSize int

	// FailStatus, when nonzero, makes keyed lookups report this status
	// instead of consulting the fixtures.
	FailStatus nss.Status

	// FailErrno, when nonzero, is written to the caller's errno slot
	// together with FailStatus (or unavail when FailStatus is unset).
	FailErrno int32

	// FailBegin, when nonzero, is the status reported by the begin
	// enumeration calls.
	FailBegin nss.Status

	// FailNextAfter, when positive, makes enumeration report tryagain
	// after that many records have been produced per database.
	FailNextAfter int

	pwCursor int
	grCursor int
}

func (fx *Backend) missing(op nss.Operation) bool {
	for _, m := range fx.Missing {
		if m == op {
			return true
		}
	}
	return false
}

// scripted applies the FailStatus/FailErrno script, if any.
func (fx *Backend) scripted(errnop unsafe.Pointer) (int32, bool) {
	if fx.FailStatus == 0 && fx.FailErrno == 0 {
		return 0, false
	}
	if fx.FailErrno != 0 {
		*(*int32)(errnop) = fx.FailErrno
	}
	status := fx.FailStatus
	if status == 0 {
		status = nss.StatusUnavail
	}
	return int32(status), true
}

// Provider satisfies nss.Provider from registered fixtures. Backends that
// were never registered fail to open, like a plugin missing from disk.
type Provider struct {
	mu       sync.Mutex
	fixtures map[nss.Backend]*Backend
	opens    map[nss.Backend]int
	journal  []string
}

// NewProvider creates an empty provider; register fixtures before use.
func NewProvider() *Provider {
	return &Provider{
		fixtures: make(map[nss.Backend]*Backend),
		opens:    make(map[nss.Backend]int),
	}
}

// Register installs the fixture behind the given backend identifier.
func (p *Provider) Register(b nss.Backend, fx *Backend) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixtures[b] = fx
}

// Open implements nss.Provider.
func (p *Provider) Open(d nss.Descriptor) (*nss.Table, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.opens[d.Backend]++
	fx, ok := p.fixtures[d.Backend]
	if !ok {
		return nil, fmt.Errorf("no such plugin: %s", d.Path)
	}

	b := d.Backend
	t := &nss.Table{}
	if !fx.missing(nss.OpGetPwNam) {
		t.GetPwNam = p.userByName(b, fx)
	}
	if !fx.missing(nss.OpGetPwUid) {
		t.GetPwUid = p.userByID(b, fx)
	}
	if !fx.missing(nss.OpSetPwEnt) {
		t.SetPwEnt = p.enumBegin(b, fx, nss.OpSetPwEnt)
	}
	if !fx.missing(nss.OpGetPwEnt) {
		t.GetPwEnt = p.nextUser(b, fx)
	}
	if !fx.missing(nss.OpEndPwEnt) {
		t.EndPwEnt = p.enumEnd(b, nss.OpEndPwEnt)
	}
	if !fx.missing(nss.OpGetGrNam) {
		t.GetGrNam = p.groupByName(b, fx)
	}
	if !fx.missing(nss.OpGetGrGid) {
		t.GetGrGid = p.groupByID(b, fx)
	}
	if !fx.missing(nss.OpSetGrEnt) {
		t.SetGrEnt = p.enumBegin(b, fx, nss.OpSetGrEnt)
	}
	if !fx.missing(nss.OpGetGrEnt) {
		t.GetGrEnt = p.nextGroup(b, fx)
	}
	if !fx.missing(nss.OpEndGrEnt) {
		t.EndGrEnt = p.enumEnd(b, nss.OpEndGrEnt)
	}
	return t, nil
}

// OpenCount reports how many times the backend's plugin was opened.
func (p *Provider) OpenCount(b nss.Backend) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens[b]
}

// Journal returns every entry-point invocation in order, formatted as
// "<backend>/<operation>".
func (p *Provider) Journal() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.journal))
	copy(out, p.journal)
	return out
}

// Count reports how many times one entry point was invoked.
func (p *Provider) Count(b nss.Backend, op nss.Operation) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := b.String() + "/" + op.String()
	n := 0
	for _, entry := range p.journal {
		if entry == key {
			n++
		}
	}
	return n
}

func (p *Provider) log(b nss.Backend, op nss.Operation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.journal = append(p.journal, b.String()+"/"+op.String())
}

func (p *Provider) userByName(b nss.Backend, fx *Backend) nss.LookupByNameFunc {
	return func(name string, record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return p.keyedUser(b, fx, nss.OpGetPwNam, record, buf, buflen, errnop, func(u User) bool {
			return u.Name == name
		})
	}
}

func (p *Provider) userByID(b nss.Backend, fx *Backend) nss.LookupByIDFunc {
	return func(uid uint32, record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return p.keyedUser(b, fx, nss.OpGetPwUid, record, buf, buflen, errnop, func(u User) bool {
			return u.UID == uid
		})
	}
}

func (p *Provider) groupByName(b nss.Backend, fx *Backend) nss.LookupByNameFunc {
	return func(name string, record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return p.keyedGroup(b, fx, nss.OpGetGrNam, record, buf, buflen, errnop, func(g Group) bool {
			return g.Name == name
		})
	}
}

func (p *Provider) groupByID(b nss.Backend, fx *Backend) nss.LookupByIDFunc {
	return func(gid uint32, record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		return p.keyedGroup(b, fx, nss.OpGetGrGid, record, buf, buflen, errnop, func(g Group) bool {
			return g.GID == gid
		})
	}
}

func (p *Provider) keyedUser(
	b nss.Backend, fx *Backend, op nss.Operation,
	record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer,
	match func(User) bool,
) int32 {
	p.log(b, op)
	if status, done := fx.scripted(errnop); done {
		return status
	}
	if int(buflen) < fx.MinBufferSize {
		*(*int32)(errnop) = int32(unix.ERANGE)
		return int32(nss.StatusTryAgain)
	}
	for _, u := range fx.Users {
		if match(u) {
			return encodeUser(u, record, buf, buflen, errnop)
		}
	}
	return int32(nss.StatusNotFound)
}

func (p *Provider) keyedGroup(
	b nss.Backend, fx *Backend, op nss.Operation,
	record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer,
	match func(Group) bool,
) int32 {
	p.log(b, op)
	if status, done := fx.scripted(errnop); done {
		return status
	}
	if int(buflen) < fx.MinBufferSize {
		*(*int32)(errnop) = int32(unix.ERANGE)
		return int32(nss.StatusTryAgain)
	}
	for _, g := range fx.Groups {
		if match(g) {
			return encodeGroup(g, record, buf, buflen, errnop)
		}
	}
	return int32(nss.StatusNotFound)
}

func (p *Provider) enumBegin(b nss.Backend, fx *Backend, op nss.Operation) nss.EnumControlFunc {
	return func() int32 {
		p.log(b, op)
		if fx.FailBegin != 0 {
			return int32(fx.FailBegin)
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if op == nss.OpSetPwEnt {
			fx.pwCursor = 0
		} else {
			fx.grCursor = 0
		}
		return int32(nss.StatusSuccess)
	}
}

func (p *Provider) enumEnd(b nss.Backend, op nss.Operation) nss.EnumControlFunc {
	return func() int32 {
		p.log(b, op)
		return int32(nss.StatusSuccess)
	}
}

func (p *Provider) nextUser(b nss.Backend, fx *Backend) nss.EnumNextFunc {
	return func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		p.log(b, nss.OpGetPwEnt)
		if status, done := fx.scripted(errnop); done {
			return status
		}
		p.mu.Lock()
		cursor := fx.pwCursor
		p.mu.Unlock()

		if fx.FailNextAfter > 0 && cursor >= fx.FailNextAfter {
			return int32(nss.StatusTryAgain)
		}
		if cursor >= len(fx.Users) {
			return int32(nss.StatusNotFound)
		}
		if int(buflen) < fx.MinBufferSize {
			*(*int32)(errnop) = int32(unix.ERANGE)
			return int32(nss.StatusTryAgain)
		}
		status := encodeUser(fx.Users[cursor], record, buf, buflen, errnop)
		if status == int32(nss.StatusSuccess) {
			p.mu.Lock()
			fx.pwCursor++
			p.mu.Unlock()
		}
		return status
	}
}

func (p *Provider) nextGroup(b nss.Backend, fx *Backend) nss.EnumNextFunc {
	return func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
		p.log(b, nss.OpGetGrEnt)
		if status, done := fx.scripted(errnop); done {
			return status
		}
		p.mu.Lock()
		cursor := fx.grCursor
		p.mu.Unlock()

		if fx.FailNextAfter > 0 && cursor >= fx.FailNextAfter {
			return int32(nss.StatusTryAgain)
		}
		if cursor >= len(fx.Groups) {
			return int32(nss.StatusNotFound)
		}
		if int(buflen) < fx.MinBufferSize {
			*(*int32)(errnop) = int32(unix.ERANGE)
			return int32(nss.StatusTryAgain)
		}
		status := encodeGroup(fx.Groups[cursor], record, buf, buflen, errnop)
		if status == int32(nss.StatusSuccess) {
			p.mu.Lock()
			fx.grCursor++
			p.mu.Unlock()
		}
		return status
	}
}
