//go:build linux

package nss

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// Open loads the plugin's shared object and binds every exported entry
// point into a typed slot. Handles are never closed: plugins may install
// thread-local cursor state that has to stay valid for the rest of the
// process.
func (dlopenProvider) Open(d Descriptor) (*Table, error) {
	handle, err := purego.Dlopen(d.Path, purego.RTLD_LAZY|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", d.Path, err)
	}

	t := &Table{}
	bindByName(&t.GetPwNam, handle, OpGetPwNam.symbol(d.Name))
	bindByID(&t.GetPwUid, handle, OpGetPwUid.symbol(d.Name))
	bindControl(&t.SetPwEnt, handle, OpSetPwEnt.symbol(d.Name))
	bindNext(&t.GetPwEnt, handle, OpGetPwEnt.symbol(d.Name))
	bindControl(&t.EndPwEnt, handle, OpEndPwEnt.symbol(d.Name))
	bindByName(&t.GetGrNam, handle, OpGetGrNam.symbol(d.Name))
	bindByID(&t.GetGrGid, handle, OpGetGrGid.symbol(d.Name))
	bindControl(&t.SetGrEnt, handle, OpSetGrEnt.symbol(d.Name))
	bindNext(&t.GetGrEnt, handle, OpGetGrEnt.symbol(d.Name))
	bindControl(&t.EndGrEnt, handle, OpEndGrEnt.symbol(d.Name))
	return t, nil
}

// The bind helpers leave the slot nil when the symbol is absent. Plugins
// legitimately omit entry points (winbind, for example, may ship without
// enumeration), so a missing symbol is not a load failure.

func bindByName(slot *LookupByNameFunc, handle uintptr, symbol string) {
	if addr, err := purego.Dlsym(handle, symbol); err == nil && addr != 0 {
		purego.RegisterFunc(slot, addr)
	}
}

func bindByID(slot *LookupByIDFunc, handle uintptr, symbol string) {
	if addr, err := purego.Dlsym(handle, symbol); err == nil && addr != 0 {
		purego.RegisterFunc(slot, addr)
	}
}

func bindNext(slot *EnumNextFunc, handle uintptr, symbol string) {
	if addr, err := purego.Dlsym(handle, symbol); err == nil && addr != 0 {
		purego.RegisterFunc(slot, addr)
	}
}

func bindControl(slot *EnumControlFunc, handle uintptr, symbol string) {
	if addr, err := purego.Dlsym(handle, symbol); err == nil && addr != 0 {
		purego.RegisterFunc(slot, addr)
	}
}
