package nss

import "sync"

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Default returns the process-wide resolver behind the package-level
// lookup functions. It is created on first use and never torn down, like
// the plugin handles it caches.
func Default() *Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = New()
	})
	return defaultResolver
}

// LookupUserByName resolves a user entry by login name via the default
// resolver.
func LookupUserByName(name string, backend Backend) (*UserRecord, error) {
	return Default().LookupUserByName(name, backend)
}

// LookupUserByID resolves a user entry by numeric user id via the default
// resolver.
func LookupUserByID(uid uint32, backend Backend) (*UserRecord, error) {
	return Default().LookupUserByID(uid, backend)
}

// LookupGroupByName resolves a group entry by name via the default
// resolver.
func LookupGroupByName(name string, backend Backend) (*GroupRecord, error) {
	return Default().LookupGroupByName(name, backend)
}

// LookupGroupByID resolves a group entry by numeric group id via the
// default resolver.
func LookupGroupByID(gid uint32, backend Backend) (*GroupRecord, error) {
	return Default().LookupGroupByID(gid, backend)
}

// AllUsers collects every user entry via the default resolver.
func AllUsers(backend Backend) ([]UserRecord, error) {
	return Default().AllUsers(backend)
}

// AllGroups collects every group entry via the default resolver.
func AllGroups(backend Backend) ([]GroupRecord, error) {
	return Default().AllGroups(backend)
}

// Users opens a user enumeration on the default resolver.
func Users(b Backend) *UserIter {
	return Default().Users(b)
}

// Groups opens a group enumeration on the default resolver.
func Groups(b Backend) *GroupIter {
	return Default().Groups(b)
}
