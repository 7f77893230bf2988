package ports

import "go.trai.ch/meister/internal/core/domain"

// OutputWriter manages the destination directory.
//
//go:generate mockgen -source=output.go -destination=mocks/mock_output.go -package=mocks
type OutputWriter interface {
	// Clean deletes the destination directory.
	Clean(dest string) error
	// Write writes the artifacts below the destination.
	Write(dest string, artifacts []domain.Artifact) error
	// Remove deletes the given destination-relative paths.
	Remove(dest string, paths []string) error
	// WriteManifest writes the manifest to <dest>/manifest.json.
	WriteManifest(dest string, manifest *domain.Manifest) error
}
