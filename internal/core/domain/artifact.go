package domain

import "path"

// Artifact is a file produced by a compile task, held in memory until it is written.
// Entry is the logical name of the entry that produced it; it is zero for outputs that
// belong to no entry, such as code-split chunks or copied assets.
type Artifact struct {
	Entry    InternedString `json:"entry,omitzero"`
	Kind     AssetKind      `json:"kind"`
	Path     string         `json:"path"`
	Contents []byte         `json:"contents"`
	IsMap    bool           `json:"is_map,omitzero"`
}

// HasEntry reports whether the artifact is the primary output of a logical entry.
func (a Artifact) HasEntry() bool {
	return !a.Entry.IsZero() && !a.IsMap
}

// Base returns the file name of the artifact.
func (a Artifact) Base() string {
	return path.Base(a.Path)
}

// Dir returns the directory of the artifact relative to the destination.
func (a Artifact) Dir() string {
	return path.Dir(a.Path)
}

// Renamed returns a copy of the artifact with a new file name in the same directory.
func (a Artifact) Renamed(base string) Artifact {
	a.Path = JoinOutput(a.Dir(), base)
	return a
}

// MapPath returns the path of the sourcemap that belongs to the artifact.
func (a Artifact) MapPath() string {
	return a.Path + ".map"
}
