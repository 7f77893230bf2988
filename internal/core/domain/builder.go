package domain

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/zerr"
)

// GlobFunc expands a glob pattern into matching file paths.
type GlobFunc func(pattern string) ([]string, error)

const (
	// DefaultDevServerHost is the interface the dev server binds to by default.
	DefaultDevServerHost = "localhost"
	// DefaultDevServerPort is the port the dev server listens on by default.
	DefaultDevServerPort = 3000
)

// DefaultPreprocessor returns the style preprocessor used when none is configured.
func DefaultPreprocessor() Preprocessor {
	return Preprocessor{
		Command:    []string{"sass", "--no-source-map", "{input}"},
		Extensions: []string{".scss", ".sass"},
	}
}

// Builder accumulates a build configuration through chained calls.
// It is finalized once with Build, which validates the accumulated state and
// returns an immutable Config.
type Builder struct {
	draft Config
	glob  GlobFunc
	errs  []error
}

// NewBuilder starts a builder for the named task. An empty name selects DefaultTaskName.
func NewBuilder(taskName string) *Builder {
	if taskName == "" {
		taskName = DefaultTaskName
	}
	return &Builder{
		draft: Config{
			taskName:       taskName,
			styleDir:       ".",
			scriptDir:      ".",
			styleEntries:   make(EntryMap),
			scriptEntries:  make(EntryMap),
			preprocessor:   DefaultPreprocessor(),
			devServer:      DevServer{Host: DefaultDevServerHost, Port: DefaultDevServerPort},
			hashMode:       HashBuild,
			errorPolicy:    PolicyNotify,
			sourcemapStyle: SourcemapExternal,
		},
		glob: func(pattern string) ([]string, error) {
			return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		},
	}
}

// WithGlob replaces the function used to expand glob entries.
func (b *Builder) WithGlob(fn GlobFunc) *Builder {
	if fn != nil {
		b.glob = fn
	}
	return b
}

// SetSourcePath sets the root of the asset sources.
func (b *Builder) SetSourcePath(p string) *Builder {
	b.draft.sourcePath = p
	return b
}

// SetDestinationPath sets the output directory.
func (b *Builder) SetDestinationPath(p string) *Builder {
	b.draft.destination = p
	return b
}

// SetStyleDir sets the style output subdirectory.
func (b *Builder) SetStyleDir(dir string) *Builder {
	b.draft.styleDir = dir
	return b
}

// SetScriptDir sets the script output subdirectory.
func (b *Builder) SetScriptDir(dir string) *Builder {
	b.draft.scriptDir = dir
	return b
}

// SetBundlerConfig sets the bundler configuration.
func (b *Builder) SetBundlerConfig(c ToolConfig) *Builder {
	b.draft.bundler = c
	return b
}

// SetPostProcessorConfig sets the CSS post-processor configuration.
func (b *Builder) SetPostProcessorConfig(c ToolConfig) *Builder {
	b.draft.postProcessor = c
	return b
}

// SetMinifierConfig sets the minifier configuration.
func (b *Builder) SetMinifierConfig(c ToolConfig) *Builder {
	b.draft.minifier = c
	return b
}

// SetPreprocessor sets the style preprocessor. An empty command disables preprocessing.
func (b *Builder) SetPreprocessor(p Preprocessor) *Builder {
	b.draft.preprocessor = Preprocessor{
		Command:    slices.Clone(p.Command),
		Extensions: slices.Clone(p.Extensions),
	}
	return b
}

// SetDevServer sets the live-reload server configuration.
// Zero fields keep their current values.
func (b *Builder) SetDevServer(d DevServer) *Builder {
	if d.Host != "" {
		b.draft.devServer.Host = d.Host
	}
	if d.Port != 0 {
		b.draft.devServer.Port = d.Port
	}
	if d.Root != "" {
		b.draft.devServer.Root = d.Root
	}
	return b
}

// SetHashMode sets how memoized filenames are hashed.
func (b *Builder) SetHashMode(m HashMode) *Builder {
	b.draft.hashMode = m
	return b
}

// SetErrorPolicy sets what compile errors do to the build.
func (b *Builder) SetErrorPolicy(p ErrorPolicy) *Builder {
	b.draft.errorPolicy = p
	return b
}

// SetSourcemapStyle sets where sourcemaps are written.
func (b *Builder) SetSourcemapStyle(s SourcemapStyle) *Builder {
	b.draft.sourcemapStyle = s
	return b
}

// AddStyleEntry registers a style entry. See addEntry for glob handling.
func (b *Builder) AddStyleEntry(path, name string) *Builder {
	return b.addEntry(b.draft.styleEntries, path, name)
}

// AddScriptEntry registers a script entry. See addEntry for glob handling.
func (b *Builder) AddScriptEntry(path, name string) *Builder {
	return b.addEntry(b.draft.scriptEntries, path, name)
}

// addEntry registers path under name. A glob path registers every match under
// the name derived from the matched file, and the supplied name is ignored.
func (b *Builder) addEntry(entries EntryMap, path, name string) *Builder {
	if !IsGlobPattern(path) {
		entries.Set(name, path)
		return b
	}

	matches, err := b.glob(path)
	if err != nil {
		b.errs = append(b.errs, zerr.With(zerr.Wrap(err, ErrEntryGlobFailed.Error()), "pattern", path))
		return b
	}
	for _, match := range matches {
		entries.Set(NameFromPath(match), match)
	}
	return b
}

// UseMinify toggles minification.
func (b *Builder) UseMinify(enabled bool) *Builder {
	b.draft.flags.Minify = enabled
	return b
}

// WriteSourcemap toggles sourcemap output.
func (b *Builder) WriteSourcemap(enabled bool) *Builder {
	b.draft.flags.Sourcemaps = enabled
	return b
}

// UseWatcher toggles watch mode. An optional dev server configuration is applied
// as with SetDevServer.
func (b *Builder) UseWatcher(enabled bool, server ...DevServer) *Builder {
	b.draft.flags.Watch = enabled
	for _, s := range server {
		b.SetDevServer(s)
	}
	return b
}

// WriteManifest toggles manifest generation and filename memoization.
func (b *Builder) WriteManifest(enabled bool) *Builder {
	b.draft.flags.Manifest = enabled
	return b
}

// UseLiveReload toggles the live-reload server.
func (b *Builder) UseLiveReload(enabled bool) *Builder {
	b.draft.flags.LiveReload = enabled
	return b
}

// Optional applies exactly one of the callbacks depending on cond and returns the
// builder for further chaining. A nil callback is skipped.
func (b *Builder) Optional(cond bool, then, otherwise func(*Builder)) *Builder {
	fn := otherwise
	if cond {
		fn = then
	}
	if fn != nil {
		fn(b)
	}
	return b
}

// Build validates the accumulated configuration and returns an immutable Config.
// The builder remains usable; every call returns an independent value.
func (b *Builder) Build() (Config, error) {
	if len(b.errs) > 0 {
		return Config{}, errors.Join(b.errs...)
	}
	if err := b.validate(); err != nil {
		return Config{}, err
	}

	cfg := b.draft
	cfg.styleEntries = b.draft.styleEntries.Clone()
	cfg.scriptEntries = b.draft.scriptEntries.Clone()
	cfg.preprocessor = b.draft.Preprocessor()
	if cfg.devServer.Root == "" {
		cfg.devServer.Root = cfg.destination
	}

	var err error
	if cfg.bundler, err = applyBundlerFlags(cfg.bundler, cfg.flags); err != nil {
		return Config{}, err
	}
	if cfg.minifier, err = cfg.minifier.With("sourcemap", cfg.flags.Sourcemaps); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyBundlerFlags(c ToolConfig, flags Flags) (ToolConfig, error) {
	mode := "development"
	if flags.Minify {
		mode = "production"
	}
	c, err := c.With("mode", mode)
	if err != nil {
		return c, err
	}
	return c.With("sourcemap", flags.Sourcemaps)
}

func (b *Builder) validate() error {
	d := b.draft

	if strings.TrimSpace(d.destination) == "" {
		return ErrMissingDestination
	}
	if unsafeDestination(d.destination, d.sourcePath) {
		return zerr.With(ErrUnsafeDestination, "destination", d.destination)
	}
	if len(d.styleEntries)+len(d.scriptEntries) == 0 {
		return ErrNoEntries
	}

	var errs []error
	for _, entries := range []EntryMap{d.styleEntries, d.scriptEntries} {
		for name, path := range entries {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, zerr.With(ErrInvalidEntryName, "path", path))
			}
			if strings.TrimSpace(path) == "" {
				errs = append(errs, zerr.With(ErrInvalidEntryPath, "name", name))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	switch d.hashMode {
	case HashBuild, HashContent:
	default:
		return zerr.With(ErrInvalidHashMode, "hash", string(d.hashMode))
	}
	switch d.errorPolicy {
	case PolicyNotify, PolicyFail:
	default:
		return zerr.With(ErrInvalidErrorPolicy, "errors", string(d.errorPolicy))
	}
	switch d.sourcemapStyle {
	case SourcemapExternal, SourcemapInline:
	default:
		return zerr.With(ErrInvalidSourcemapStyle, "sourcemaps", string(d.sourcemapStyle))
	}
	if d.devServer.Port < 0 || d.devServer.Port > 65535 {
		return zerr.With(ErrInvalidDevServerPort, "port", d.devServer.Port)
	}
	return nil
}

// unsafeDestination reports whether cleaning the destination would delete the
// filesystem root, the working directory or one of its ancestors, or the asset
// sources.
func unsafeDestination(dest, source string) bool {
	clean := filepath.Clean(dest)
	if clean == "." || clean == string(filepath.Separator) || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return true
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return false
	}
	if abs == filepath.Dir(abs) {
		return true
	}
	if wd, err := os.Getwd(); err == nil && within(abs, wd) {
		return true
	}
	if strings.TrimSpace(source) == "" {
		return false
	}
	src, err := filepath.Abs(source)
	return err == nil && within(abs, src)
}

// within reports whether path is dir or one of its descendants.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
