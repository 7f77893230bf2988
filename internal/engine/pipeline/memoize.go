package pipeline

import (
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/zerr"
)

// memoize renames every entry output to "<name>.<hash><ext>". Sourcemaps, chunks
// and copied assets keep their paths, and a renamed file keeps referencing the
// unhashed map.
func (p *Pipeline) memoize(mode domain.HashMode, artifacts []domain.Artifact) ([]domain.Artifact, error) {
	seen := make(map[string]string, len(artifacts))
	for _, a := range artifacts {
		if !a.HasEntry() {
			continue
		}
		key := domain.ManifestKey(a.Entry.String(), a.Kind)
		if prev, ok := seen[key]; ok {
			err := zerr.With(domain.ErrDuplicateArtifact, "name", key)
			return nil, zerr.With(zerr.With(err, "first", prev), "second", a.Path)
		}
		seen[key] = a.Path
	}

	buildHash := ""
	if mode == domain.HashBuild {
		buildHash = p.hasher.ComputeBuildHash(artifacts)
	}

	out := make([]domain.Artifact, len(artifacts))
	for i, a := range artifacts {
		out[i] = a
		if !a.HasEntry() {
			continue
		}
		hash := buildHash
		if mode == domain.HashContent {
			hash = p.hasher.ComputeContentHash(a.Contents)
		}
		next := a.Renamed(domain.HashedName(a.Entry.String(), hash, a.Kind))
		next.Contents = retargetMapReference(a.Contents, a.Base())
		out[i] = next
	}
	return out, nil
}
