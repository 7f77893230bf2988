package domain

import (
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// AssetKind identifies the pipeline an entry belongs to.
type AssetKind string

const (
	// KindStyle marks stylesheet entries.
	KindStyle AssetKind = "style"
	// KindScript marks script entries.
	KindScript AssetKind = "script"
)

// Ext returns the extension of the compiled output for the kind.
func (k AssetKind) Ext() string {
	if k == KindStyle {
		return ".css"
	}
	return ".js"
}

// TaskName returns the name of the compile task that processes the kind.
func (k AssetKind) TaskName() string {
	if k == KindStyle {
		return "styles"
	}
	return "scripts"
}

// Entry is a named source file registered for compilation.
type Entry struct {
	Name   InternedString
	Source string
	Kind   AssetKind
}

// EntryMap maps logical asset names to source file paths.
// Writing an existing name replaces the previous path.
type EntryMap map[string]string

// Set registers path under name. Last write wins.
func (m EntryMap) Set(name, path string) {
	m[name] = path
}

// Clone returns an independent copy of the map.
func (m EntryMap) Clone() EntryMap {
	out := make(EntryMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Entries returns the map as entries of the given kind, sorted by name.
func (m EntryMap) Entries(kind AssetKind) []Entry {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{
			Name:   NewInternedString(name),
			Source: m[name],
			Kind:   kind,
		})
	}
	return entries
}

// IsGlobPattern reports whether the path contains glob metacharacters.
func IsGlobPattern(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// NameFromPath derives a logical entry name from a file path: its basename without extension.
func NameFromPath(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ManifestKey returns the manifest key of a logical name, "<name>.<ext>".
func ManifestKey(name string, kind AssetKind) string {
	return name + kind.Ext()
}

// HashedName returns "<name>.<hash><ext>".
func HashedName(name, hash string, kind AssetKind) string {
	return name + "." + hash + kind.Ext()
}

// JoinOutput joins a kind directory and file name into a slash separated path relative to the destination.
func JoinOutput(dir, name string) string {
	return path.Clean(path.Join(filepath.ToSlash(dir), name))
}
