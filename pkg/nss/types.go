package nss

// UserRecord is an owned passwd-style entry. All string fields are copied
// out of the call's scratch buffer before the call returns; nothing in the
// record borrows plugin memory.
type UserRecord struct {
	Name    string `json:"name" yaml:"name"`
	UID     uint32 `json:"uid" yaml:"uid"`
	GID     uint32 `json:"gid" yaml:"gid"`
	Comment string `json:"comment" yaml:"comment"`
	HomeDir string `json:"home_dir" yaml:"home_dir"`
	Shell   string `json:"shell" yaml:"shell"`

	// Source is the uppercase tag of the backend that produced the hit.
	Source string `json:"source" yaml:"source"`
}

// GroupRecord is an owned group-style entry.
type GroupRecord struct {
	Name    string   `json:"name" yaml:"name"`
	GID     uint32   `json:"gid" yaml:"gid"`
	Members []string `json:"members" yaml:"members"`

	// Source is the uppercase tag of the backend that produced the hit.
	Source string `json:"source" yaml:"source"`
}
