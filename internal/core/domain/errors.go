package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrMissingDestination is returned when a build is finalized without a destination path.
	ErrMissingDestination = zerr.New("destination path is not set")

	// ErrUnsafeDestination is returned when the destination would make clean delete something it must not.
	ErrUnsafeDestination = zerr.New("destination must not be the filesystem root, the working directory or one of its parents, or contain the sources")

	// ErrNoEntries is returned when a build is finalized without any style or script entry.
	ErrNoEntries = zerr.New("no style or script entries registered")

	// ErrInvalidEntryName is returned when an entry has an empty logical name.
	ErrInvalidEntryName = zerr.New("invalid entry name")

	// ErrInvalidEntryPath is returned when an entry has an empty source path.
	ErrInvalidEntryPath = zerr.New("invalid entry path")

	// ErrEntryGlobFailed is returned when an entry glob pattern cannot be expanded.
	ErrEntryGlobFailed = zerr.New("failed to expand entry glob")

	// ErrInvalidHashMode is returned when the hash mode is not one of build or content.
	ErrInvalidHashMode = zerr.New("invalid hash mode, expected 'build' or 'content'")

	// ErrInvalidErrorPolicy is returned when the error policy is not one of notify or fail.
	ErrInvalidErrorPolicy = zerr.New("invalid error policy, expected 'notify' or 'fail'")

	// ErrInvalidSourcemapStyle is returned when the sourcemap style is not one of external or inline.
	ErrInvalidSourcemapStyle = zerr.New("invalid sourcemap style, expected 'external' or 'inline'")

	// ErrInvalidToolConfig is returned when a tool configuration blob is not valid JSON.
	ErrInvalidToolConfig = zerr.New("tool configuration must be a JSON object")

	// ErrToolConfigUpdateFailed is returned when a tool configuration override cannot be applied.
	ErrToolConfigUpdateFailed = zerr.New("failed to update tool configuration")

	// ErrInvalidDevServerPort is returned when the dev server port is out of range.
	ErrInvalidDevServerPort = zerr.New("invalid dev server port")

	// ErrDuplicateArtifact is returned when two artifacts claim the same logical name and kind.
	ErrDuplicateArtifact = zerr.New("duplicate artifact for logical name")

	// ErrCompileFailed is returned when the bundler or CSS transform reports errors.
	ErrCompileFailed = zerr.New("compilation failed")

	// ErrMinifyFailed is returned when minification of an artifact fails.
	ErrMinifyFailed = zerr.New("minification failed")

	// ErrPreprocessFailed is returned when the style preprocessor command fails.
	ErrPreprocessFailed = zerr.New("style preprocessor failed")

	// ErrSourcemapExtractFailed is returned when an inline sourcemap cannot be decoded.
	ErrSourcemapExtractFailed = zerr.New("failed to extract inline sourcemap")

	// ErrBuildExecutionFailed is returned when the build execution fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrTaskExecutionFailed is returned when a task execution fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrStoreCreateFailed is returned when the artifact store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create artifact store directory")

	// ErrStoreReadFailed is returned when a cached artifact set cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cached artifacts")

	// ErrStoreUnmarshalFailed is returned when a cached artifact set cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal cached artifacts")

	// ErrStoreMarshalFailed is returned when an artifact set cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal artifacts")

	// ErrStoreWriteFailed is returned when an artifact set cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write cached artifacts")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find meister.yaml")

	// ErrCleanFailed is returned when the destination directory cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean destination")

	// ErrOutputPathOutsideDestination is returned when an artifact would be written outside the destination.
	ErrOutputPathOutsideDestination = zerr.New("output path is outside destination")

	// ErrOutputWriteFailed is returned when an artifact cannot be written.
	ErrOutputWriteFailed = zerr.New("failed to write output file")

	// ErrManifestWriteFailed is returned when the manifest cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write manifest")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrWatcherStartFailed is returned when the file watcher cannot be started.
	ErrWatcherStartFailed = zerr.New("failed to start file watcher")

	// ErrDevServerStartFailed is returned when the dev server cannot bind its listener.
	ErrDevServerStartFailed = zerr.New("failed to start dev server")
)
