package nss

import (
	"unicode/utf8"
	"unsafe"
)

// RawPasswd mirrors the C struct passwd layout. Plugins fill the pointer
// fields with addresses inside the caller's scratch buffer; the decoder
// copies everything out before the buffer is released.
type RawPasswd struct {
	Name   *byte
	Passwd *byte
	UID    uint32
	GID    uint32
	Gecos  *byte
	Dir    *byte
	Shell  *byte
}

// RawGroup mirrors the C struct group layout. Members is a NULL-terminated
// pointer array, or nil for a group with no member list at all.
type RawGroup struct {
	Name    *byte
	Passwd  *byte
	GID     uint32
	Members **byte
}

// decodeUser converts a filled raw passwd record into an owned UserRecord.
// A nil name pointer means the entry is absent, not malformed. The name is
// the only field whose encoding is enforced; every other field decodes a
// nil pointer as empty.
func decodeUser(raw *RawPasswd, b Backend) (*UserRecord, *Error) {
	if raw.Name == nil {
		return nil, nil
	}
	name := goString(raw.Name)
	if !utf8.ValidString(name) {
		return nil, &Error{
			Code:    CodeEncoding,
			Backend: b,
			Message: "user name is not valid UTF-8",
		}
	}
	return &UserRecord{
		Name:    name,
		UID:     raw.UID,
		GID:     raw.GID,
		Comment: goString(raw.Gecos),
		HomeDir: goString(raw.Dir),
		Shell:   goString(raw.Shell),
		Source:  b.SourceTag(),
	}, nil
}

// decodeGroup converts a filled raw group record into an owned GroupRecord.
func decodeGroup(raw *RawGroup, b Backend) (*GroupRecord, *Error) {
	if raw.Name == nil {
		return nil, nil
	}
	name := goString(raw.Name)
	if !utf8.ValidString(name) {
		return nil, &Error{
			Code:    CodeEncoding,
			Backend: b,
			Message: "group name is not valid UTF-8",
		}
	}
	return &GroupRecord{
		Name:    name,
		GID:     raw.GID,
		Members: goStringList(raw.Members),
		Source:  b.SourceTag(),
	}, nil
}

// goString copies a NUL-terminated C string out of the scratch buffer. A
// nil pointer is an empty field, not an error.
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice(p, n))
}

// goStringList copies a NULL-terminated pointer array of C strings. A nil
// array decodes to an empty list.
func goStringList(list **byte) []string {
	out := []string{}
	if list == nil {
		return out
	}
	for i := uintptr(0); ; i++ {
		p := *(**byte)(unsafe.Add(unsafe.Pointer(list), i*unsafe.Sizeof(uintptr(0))))
		if p == nil {
			return out
		}
		out = append(out, goString(p))
	}
}
