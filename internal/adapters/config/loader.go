// Package config provides the meister.yaml loader and .env handling.
package config

import (
	"os"
	"path/filepath"

	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// supportedVersion is the only configuration schema version.
const supportedVersion = "1"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger  ports.Logger
	FS      FileSystem
	WorkDir string
}

// NewLoader creates a Loader reading from the OS filesystem relative to the process working directory.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load reads the configuration file and replays it onto a new builder.
// A bare file name is searched for in the working directory and its parents.
// Relative paths inside the file are resolved against the file's directory.
func (l *Loader) Load(path string) (*domain.Builder, error) {
	if path == "" {
		path = domain.ConfigFileName
	}

	configPath, err := l.findConfiguration(path)
	if err != nil {
		return nil, err
	}

	var file Meisterfile
	if err := l.readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	if file.Version != "" && file.Version != supportedVersion {
		l.Logger.Warn("unknown configuration version, continuing with version "+supportedVersion,
			"version", file.Version, "path", configPath)
	}

	b, err := l.replay(filepath.Dir(configPath), &file)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	l.Logger.Debug("loaded configuration", "path", configPath, "task", file.Task)
	return b, nil
}

func (l *Loader) findConfiguration(path string) (string, error) {
	candidate := l.resolve(path)
	if _, err := l.FS.Stat(candidate); err == nil {
		return candidate, nil
	}

	// Only bare file names are searched for upwards.
	if filepath.Base(path) != path {
		return "", zerr.With(domain.ErrConfigNotFound, "path", path)
	}

	currentDir := filepath.Dir(candidate)
	for {
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir

		candidate = filepath.Join(currentDir, path)
		if _, err := l.FS.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", zerr.With(domain.ErrConfigNotFound, "path", path)
}

// resolve makes path absolute against WorkDir, or the process working directory when unset.
func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	base := l.WorkDir
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	return filepath.Join(base, path)
}

func (l *Loader) replay(configDir string, file *Meisterfile) (*domain.Builder, error) {
	b := domain.NewBuilder(file.Task).WithGlob(l.FS.Glob)

	if file.Source != "" {
		b.SetSourcePath(resolvePath(configDir, file.Source))
	}
	if file.Destination != "" {
		b.SetDestinationPath(resolvePath(configDir, file.Destination))
	}
	if file.Styles.Dir != "" {
		b.SetStyleDir(file.Styles.Dir)
	}
	if file.Scripts.Dir != "" {
		b.SetScriptDir(file.Scripts.Dir)
	}

	for _, e := range file.Styles.Entries {
		b.AddStyleEntry(resolvePath(configDir, e.Path), entryName(e))
	}
	for _, e := range file.Scripts.Entries {
		b.AddScriptEntry(resolvePath(configDir, e.Path), entryName(e))
	}

	tools := []struct {
		key string
		doc map[string]any
		set func(domain.ToolConfig) *domain.Builder
	}{
		{"bundler", file.Bundler, b.SetBundlerConfig},
		{"postprocessor", file.PostProcessor, b.SetPostProcessorConfig},
		{"minifier", file.Minifier, b.SetMinifierConfig},
	}
	for _, tool := range tools {
		cfg, err := domain.ToolConfigFromMap(tool.doc)
		if err != nil {
			return nil, zerr.With(err, "section", tool.key)
		}
		tool.set(cfg)
	}

	if file.Preprocessor != nil {
		b.SetPreprocessor(domain.Preprocessor{
			Command:    file.Preprocessor.Command,
			Extensions: file.Preprocessor.Extensions,
		})
	}

	devServer := domain.DevServer{
		Host: file.DevServer.Host,
		Port: file.DevServer.Port,
	}
	if file.DevServer.Root != "" {
		devServer.Root = resolvePath(configDir, file.DevServer.Root)
	}
	b.SetDevServer(devServer)

	if file.Hash != "" {
		b.SetHashMode(domain.HashMode(file.Hash))
	}
	if file.Errors != "" {
		b.SetErrorPolicy(domain.ErrorPolicy(file.Errors))
	}
	if file.SourcemapStyle != "" {
		b.SetSourcemapStyle(domain.SourcemapStyle(file.SourcemapStyle))
	}

	b.UseMinify(file.Flags.Minify).
		WriteSourcemap(file.Flags.Sourcemaps).
		UseWatcher(file.Flags.Watch).
		WriteManifest(file.Flags.Manifest).
		UseLiveReload(file.Flags.LiveReload)

	return b, nil
}

// entryName defaults the logical name to the file name without extension.
func entryName(e EntryDTO) string {
	if e.Name != "" {
		return e.Name
	}
	return domain.NameFromPath(e.Path)
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func (l *Loader) readAndUnmarshalYAML(configPath string, target *Meisterfile) error {
	data, err := l.FS.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(data, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}
	return nil
}

// resolvePath resolves p against baseDir unless it is absolute.
// Empty paths are kept empty so builder validation can report them.
func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
