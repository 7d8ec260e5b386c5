package nss

// Backend identifies one identity-service plugin.
type Backend int

const (
	// BackendAny selects no specific backend: keyed lookups walk the fixed
	// priority chain and return the first hit.
	BackendAny Backend = iota
	BackendFiles
	BackendSSS
	BackendWinbind
)

// modulesDir is where glibc installs NSS service plugins on this layout.
// Plugin paths are compile-time constants; there is no runtime discovery.
const modulesDir = "/usr/lib/x86_64-linux-gnu"

// Descriptor describes where a backend plugin lives on disk and how its
// exported symbols are named.
type Descriptor struct {
	// Backend is the identifier this descriptor belongs to.
	Backend Backend

	// Name is the lowercase plugin name. It appears in the exported symbol
	// pattern _nss_<name>_<operation>.
	Name string

	// Path is the absolute shared-object path.
	Path string
}

var descriptors = []Descriptor{
	{Backend: BackendFiles, Name: "files", Path: modulesDir + "/libnss_files.so.2"},
	{Backend: BackendSSS, Name: "sss", Path: modulesDir + "/libnss_sss.so.2"},
	{Backend: BackendWinbind, Name: "winbind", Path: modulesDir + "/libnss_winbind.so.2"},
}

// priorityOrder is the fallback order walked when no backend is pinned.
var priorityOrder = []Backend{BackendFiles, BackendSSS, BackendWinbind}

func (b Backend) descriptor() (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Backend == b {
			return d, true
		}
	}
	return Descriptor{}, false
}

// String returns the lowercase plugin name, or "any" for BackendAny.
func (b Backend) String() string {
	switch b {
	case BackendFiles:
		return "files"
	case BackendSSS:
		return "sss"
	case BackendWinbind:
		return "winbind"
	case BackendAny:
		return "any"
	default:
		return "unknown"
	}
}

// SourceTag returns the uppercase identifier recorded in resolved records.
func (b Backend) SourceTag() string {
	switch b {
	case BackendFiles:
		return "FILES"
	case BackendSSS:
		return "SSS"
	case BackendWinbind:
		return "WINBIND"
	default:
		return ""
	}
}

// ParseBackend maps a configuration or CLI string to a Backend. The empty
// string and "any" select the fallback chain.
func ParseBackend(s string) (Backend, bool) {
	switch s {
	case "", "any":
		return BackendAny, true
	case "files":
		return BackendFiles, true
	case "sss":
		return BackendSSS, true
	case "winbind":
		return BackendWinbind, true
	default:
		return BackendAny, false
	}
}

// Operation identifies one of the ten entry points a backend may export.
// A plugin is free to omit some of them; absence is recorded at load time
// and only fails calls that need the missing entry point.
type Operation int

const (
	OpGetGrNam Operation = iota
	OpGetGrGid
	OpSetGrEnt
	OpEndGrEnt
	OpGetGrEnt
	OpGetPwNam
	OpGetPwUid
	OpGetPwEnt
	OpSetPwEnt
	OpEndPwEnt

	numOperations = 10
)

var operationNames = [numOperations]string{
	OpGetGrNam: "getgrnam_r",
	OpGetGrGid: "getgrgid_r",
	OpSetGrEnt: "setgrent",
	OpEndGrEnt: "endgrent",
	OpGetGrEnt: "getgrent_r",
	OpGetPwNam: "getpwnam_r",
	OpGetPwUid: "getpwuid_r",
	OpGetPwEnt: "getpwent_r",
	OpSetPwEnt: "setpwent",
	OpEndPwEnt: "endpwent",
}

// String returns the libc-style function name for the operation.
func (op Operation) String() string {
	if op < 0 || int(op) >= numOperations {
		return "unknown"
	}
	return operationNames[op]
}

// symbol returns the name the plugin exports for this operation.
func (op Operation) symbol(plugin string) string {
	return "_nss_" + plugin + "_" + op.String()
}
