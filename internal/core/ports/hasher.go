package ports

import "go.trai.ch/meister/internal/core/domain"

// Hasher defines the interface for computing hashes.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeInputHash computes the hash of a compile task's inputs: the given settings
	// and the contents of every input file.
	ComputeInputHash(taskName string, settings map[string]string, inputs []string) (string, error)

	// ComputeBuildHash computes one hash over the contents of all artifacts.
	ComputeBuildHash(artifacts []domain.Artifact) string

	// ComputeContentHash computes the hash of a single file's contents.
	ComputeContentHash(contents []byte) string
}
