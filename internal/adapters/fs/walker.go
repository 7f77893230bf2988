// Package fs provides file system adapters for walking, hashing and writing files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/meister/internal/core/domain"
)

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	".git":                true,
	".jj":                 true,
	"node_modules":        true,
	domain.MeisterDirName: true,
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every file below root, skipping VCS, dependency and cache
// directories and anything whose base name matches one of ignores.
// Yielded paths start with root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && w.ignored(d, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) ignored(d fs.DirEntry, ignores []string) bool {
	name := d.Name()
	if d.IsDir() && skippedDirs[name] {
		return true
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
