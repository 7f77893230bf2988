package domain

import "path/filepath"

const (
	// MeisterDirName is the name of the internal workspace directory.
	MeisterDirName = ".meister"

	// StoreDirName is the name of the artifact store directory.
	StoreDirName = "store"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "meister.yaml"

	// EnvFileName is the name of the optional dotenv file consulted for flag defaults.
	EnvFileName = ".env"

	// ManifestFileName is the name of the manifest written into the destination.
	ManifestFileName = "manifest.json"

	// DefaultTaskName is the name of the build task when none is configured.
	DefaultTaskName = "default"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultMeisterPath returns the default root directory for meister metadata.
func DefaultMeisterPath() string {
	return MeisterDirName
}

// DefaultStorePath returns the default path for the artifact store.
// It joins .meister and store.
func DefaultStorePath() string {
	return filepath.Join(MeisterDirName, StoreDirName)
}

// ManifestPath returns the manifest location for the given destination.
func ManifestPath(destination string) string {
	return filepath.Join(destination, ManifestFileName)
}
