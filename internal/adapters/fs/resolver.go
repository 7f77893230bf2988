package fs

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements the InputResolver interface using doublestar globs.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs resolves the given input patterns to a sorted, de-duplicated list
// of paths. Relative inputs are joined onto root. A plain path that does not
// exist and a glob without matches are both reported as missing.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	unique := make(map[string]struct{})

	for _, input := range inputs {
		path := input
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, input)
		}

		if !domain.IsGlobPattern(path) {
			if _, err := os.Stat(path); err != nil {
				return nil, zerr.With(zerr.New("input not found"), "path", path)
			}
			unique[path] = struct{}{}
			continue
		}

		matches, err := doublestar.FilepathGlob(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "path", path)
		}
		if len(matches) == 0 {
			return nil, zerr.With(zerr.New("input not found"), "path", path)
		}
		for _, match := range matches {
			unique[match] = struct{}{}
		}
	}

	result := make([]string, 0, len(unique))
	for path := range unique {
		result = append(result, path)
	}
	slices.Sort(result)
	return result, nil
}
