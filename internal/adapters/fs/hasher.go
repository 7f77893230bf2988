package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher provides hashing functionality for compile inputs and outputs.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputeInputHash computes a single hash over the task name, its settings and
// the contents of every input. Directory inputs are walked.
func (h *Hasher) ComputeInputHash(taskName string, settings map[string]string, inputs []string) (string, error) {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(taskName)
	_, _ = hasher.Write([]byte{0})

	for _, k := range slices.Sorted(maps.Keys(settings)) {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(settings[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	for _, input := range inputs {
		if err := h.hashPath(input, hasher); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashPath(path string, mainHasher io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}

	if !info.IsDir() {
		return h.hashFile(path, mainHasher)
	}
	for filePath := range h.walker.WalkFiles(path, nil) {
		if err := h.hashFile(filePath, mainHasher); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hasher) hashFile(path string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(path))
	_, _ = mainHasher.Write([]byte{0})

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}

// ComputeBuildHash computes one hash over all artifacts, ordered by path.
// The result does not depend on the order of the slice.
func (h *Hasher) ComputeBuildHash(artifacts []domain.Artifact) string {
	sorted := slices.Clone(artifacts)
	slices.SortFunc(sorted, func(a, b domain.Artifact) int {
		return strings.Compare(a.Path, b.Path)
	})

	hasher := xxhash.New()
	for _, a := range sorted {
		_, _ = hasher.WriteString(a.Path)
		_, _ = hasher.Write([]byte{0})
		_ = binary.Write(hasher, binary.LittleEndian, xxhash.Sum64(a.Contents))
	}
	return fmt.Sprintf("%016x", hasher.Sum64())
}

// ComputeContentHash computes the hash of a single file's contents.
func (h *Hasher) ComputeContentHash(contents []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(contents))
}
