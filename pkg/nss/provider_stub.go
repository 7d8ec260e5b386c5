//go:build !linux

package nss

import "fmt"

// Open reports every backend as unloadable. NSS service plugins only exist
// on Linux; on other platforms the registry caches the failure and keyed
// lookups fall through to the terminal not-found.
func (dlopenProvider) Open(d Descriptor) (*Table, error) {
	return nil, fmt.Errorf("%s: NSS plugins are not available on this platform", d.Path)
}
