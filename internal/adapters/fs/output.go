package fs

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.OutputWriter = (*OutputWriter)(nil)

// OutputWriter writes compiled artifacts below the destination directory.
type OutputWriter struct{}

// NewOutputWriter creates a new OutputWriter.
func NewOutputWriter() *OutputWriter {
	return &OutputWriter{}
}

// Clean removes the destination directory. A missing directory is not an error.
func (w *OutputWriter) Clean(dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "destination", dest)
	}
	return nil
}

// Write writes every artifact to dest/<artifact path>, creating directories as needed.
func (w *OutputWriter) Write(dest string, artifacts []domain.Artifact) error {
	for _, a := range artifacts {
		target, err := resolveOutput(dest, a.Path)
		if err != nil {
			return err
		}
		if err := writeFile(target, a.Contents); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", target)
		}
	}
	return nil
}

// Remove deletes the given destination-relative paths. Missing files are ignored.
func (w *OutputWriter) Remove(dest string, paths []string) error {
	for _, p := range paths {
		target, err := resolveOutput(dest, p)
		if err != nil {
			return err
		}
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(err, "failed to remove stale output"), "path", target)
		}
	}
	return nil
}

// WriteManifest writes the manifest to dest/manifest.json.
func (w *OutputWriter) WriteManifest(dest string, manifest *domain.Manifest) error {
	data, err := manifest.Encode()
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	target := domain.ManifestPath(dest)
	if err := writeFile(target, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", target)
	}
	return nil
}

// resolveOutput joins a slash separated relative path onto dest and rejects
// paths that would leave it.
func resolveOutput(dest, rel string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(rel))
	relToDest, err := filepath.Rel(dest, target)
	if err != nil || relToDest == ".." || strings.HasPrefix(relToDest, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", zerr.With(zerr.With(domain.ErrOutputPathOutsideDestination, "path", rel), "destination", dest)
	}
	return target, nil
}

// writeFile writes through a temporary file and a rename so readers such as the
// dev server never observe a partial file.
func writeFile(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	//nolint:gosec // Output files are world readable like any build output
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}
