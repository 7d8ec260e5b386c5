package nsstest

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/identsvc/nssdirect/pkg/nss"
)

// encodeUser writes a fixture user into the caller's record area and
// scratch buffer with the same layout a native plugin produces. A buffer
// too small for the strings reports ERANGE so the retry loop kicks in.
func encodeUser(u User, record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
	w := &bufWriter{base: buf, size: int(buflen)}
	pw := (*nss.RawPasswd)(record)
	pw.Name = w.cstring(u.Name)
	pw.Passwd = nil
	pw.UID = u.UID
	pw.GID = u.GID
	pw.Gecos = w.optString(u.Comment)
	pw.Dir = w.optString(u.HomeDir)
	pw.Shell = w.optString(u.Shell)
	if w.overflow {
		*(*int32)(errnop) = int32(unix.ERANGE)
		return int32(nss.StatusTryAgain)
	}
	return int32(nss.StatusSuccess)
}

// encodeGroup writes a fixture group the same way.
func encodeGroup(g Group, record, buf unsafe.Pointer, buflen uintptr, errnop unsafe.Pointer) int32 {
	w := &bufWriter{base: buf, size: int(buflen)}
	gr := (*nss.RawGroup)(record)
	gr.Name = w.cstring(g.Name)
	gr.Passwd = nil
	gr.GID = g.GID
	if g.Members == nil {
		gr.Members = nil
	} else {
		gr.Members = w.stringArray(g.Members)
	}
	if w.overflow {
		*(*int32)(errnop) = int32(unix.ERANGE)
		return int32(nss.StatusTryAgain)
	}
	return int32(nss.StatusSuccess)
}

// bufWriter hands out NUL-terminated strings and pointer arrays from the
// caller's scratch buffer, flagging overflow instead of writing past the
// end.
type bufWriter struct {
	base     unsafe.Pointer
	size     int
	off      int
	overflow bool
}

// cstring copies s into the buffer with a trailing NUL.
func (w *bufWriter) cstring(s string) *byte {
	need := len(s) + 1
	if w.off+need > w.size {
		w.overflow = true
		return nil
	}
	p := (*byte)(unsafe.Add(w.base, uintptr(w.off)))
	dst := unsafe.Slice(p, need)
	copy(dst, s)
	dst[len(s)] = 0
	w.off += need
	return p
}

// optString encodes the empty string as a null pointer, the way sparse
// native records come back.
func (w *bufWriter) optString(s string) *byte {
	if s == "" {
		return nil
	}
	return w.cstring(s)
}

// stringArray writes a NULL-terminated pointer array followed by its
// strings.
func (w *bufWriter) stringArray(ss []string) **byte {
	ptrSize := int(unsafe.Sizeof(uintptr(0)))
	w.off = (w.off + ptrSize - 1) &^ (ptrSize - 1)

	need := (len(ss) + 1) * ptrSize
	if w.off+need > w.size {
		w.overflow = true
		return nil
	}
	arr := unsafe.Add(w.base, uintptr(w.off))
	w.off += need

	for i, s := range ss {
		*(**byte)(unsafe.Add(arr, uintptr(i*ptrSize))) = w.cstring(s)
	}
	*(**byte)(unsafe.Add(arr, uintptr(len(ss)*ptrSize))) = nil
	return (**byte)(arr)
}
