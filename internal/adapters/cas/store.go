// Package cas implements the artifact cache: compiled outputs stored per compile
// task and keyed by the hash of their inputs.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildInfoStore = (*Store)(nil)

// Store implements ports.BuildInfoStore using a file-per-task strategy.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on first Put.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Get retrieves the build info for a given task name.
// It returns nil, nil when nothing is cached.
func (s *Store) Get(taskName string) (*domain.BuildInfo, error) {
	filename := s.getFilename(taskName)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var info domain.BuildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "task", taskName)
	}

	return &info, nil
}

// Put stores the build info, replacing any previous entry of the task.
func (s *Store) Put(info domain.BuildInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "dir", s.dir)
	}

	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	if err := os.WriteFile(s.getFilename(info.TaskName), data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	return nil
}

// Purge removes the store directory.
func (s *Store) Purge() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to purge artifact store"), "dir", s.dir)
	}
	return nil
}

func (s *Store) getFilename(taskName string) string {
	hash := sha256.Sum256([]byte(taskName))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".json")
}
