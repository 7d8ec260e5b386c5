package nss

import "unsafe"

// Entry-point signatures shared by the dlopen-backed provider and test
// fakes. Record, buffer, and errno parameters are untyped pointers because
// the same signatures must describe both native functions bound at load
// time and in-memory implementations.
type (
	// LookupByNameFunc is the getpwnam_r / getgrnam_r shape.
	LookupByNameFunc func(name string, record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32

	// LookupByIDFunc is the getpwuid_r / getgrgid_r shape.
	LookupByIDFunc func(id uint32, record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32

	// EnumNextFunc is the getpwent_r / getgrent_r shape.
	EnumNextFunc func(record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32

	// EnumControlFunc is the setpwent / endpwent / setgrent / endgrent shape.
	EnumControlFunc func() int32
)

// Table is the resolved entry-point set for one loaded backend, built once
// at load time. A nil field means the plugin does not export that
// operation; calls that need the missing slot fail with CodeUnavailable
// while every other operation on the backend keeps working.
type Table struct {
	GetPwNam LookupByNameFunc
	GetPwUid LookupByIDFunc
	SetPwEnt EnumControlFunc
	GetPwEnt EnumNextFunc
	EndPwEnt EnumControlFunc

	GetGrNam LookupByNameFunc
	GetGrGid LookupByIDFunc
	SetGrEnt EnumControlFunc
	GetGrEnt EnumNextFunc
	EndGrEnt EnumControlFunc
}

// control returns the begin/end enumeration slot for op, or nil when the
// plugin does not export it.
func (t *Table) control(op Operation) EnumControlFunc {
	switch op {
	case OpSetPwEnt:
		return t.SetPwEnt
	case OpEndPwEnt:
		return t.EndPwEnt
	case OpSetGrEnt:
		return t.SetGrEnt
	case OpEndGrEnt:
		return t.EndGrEnt
	default:
		return nil
	}
}

// Provider loads a backend plugin and resolves its entry-point table. The
// production provider performs the dynamic loading; tests substitute
// in-memory implementations so the rest of the machinery can run without
// real shared objects.
type Provider interface {
	Open(d Descriptor) (*Table, error)
}

// dlopenProvider is the production Provider. Its Open lives in the
// platform-specific files.
type dlopenProvider struct{}
