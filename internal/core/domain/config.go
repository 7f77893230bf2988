package domain

import (
	"net"
	"slices"
	"strconv"
	"strings"
)

// HashMode selects how memoized filenames are hashed.
type HashMode string

const (
	// HashBuild uses one hash per compile task, computed over all of its outputs.
	HashBuild HashMode = "build"
	// HashContent uses the hash of each file's own contents.
	HashContent HashMode = "content"
)

// ErrorPolicy selects what a compile error does to the build.
type ErrorPolicy string

const (
	// PolicyNotify reports compile errors to the notifier and lets the build continue.
	PolicyNotify ErrorPolicy = "notify"
	// PolicyFail reports compile errors to the notifier and fails the build.
	PolicyFail ErrorPolicy = "fail"
)

// SourcemapStyle selects where sourcemaps are written.
type SourcemapStyle string

const (
	// SourcemapExternal writes "<file>.map" next to each output.
	SourcemapExternal SourcemapStyle = "external"
	// SourcemapInline embeds the map in the output as a data URL.
	SourcemapInline SourcemapStyle = "inline"
)

// Flags are the boolean feature toggles of a build.
type Flags struct {
	Minify     bool
	Sourcemaps bool
	Watch      bool
	Manifest   bool
	LiveReload bool
}

// DevServer configures the live-reload server.
type DevServer struct {
	Host string
	Port int
	// Root is the directory served over HTTP. It defaults to the destination.
	Root string
}

// Addr returns host:port.
func (d DevServer) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Preprocessor configures the external style preprocessor.
type Preprocessor struct {
	// Command is the argv of the preprocessor; "{input}" is replaced by the entry path.
	// The compiled CSS is read from stdout.
	Command []string
	// Extensions lists the source extensions routed through the preprocessor.
	Extensions []string
}

// Applies reports whether the source file needs preprocessing.
func (p Preprocessor) Applies(source string) bool {
	if len(p.Command) == 0 {
		return false
	}
	lower := strings.ToLower(source)
	for _, ext := range p.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// Argv returns the command with the input placeholder substituted.
func (p Preprocessor) Argv(input string) []string {
	argv := make([]string, len(p.Command))
	for i, arg := range p.Command {
		argv[i] = strings.ReplaceAll(arg, "{input}", input)
	}
	return argv
}

// Config is the finalized, immutable build configuration produced by Builder.Build.
type Config struct {
	taskName       string
	sourcePath     string
	destination    string
	styleDir       string
	scriptDir      string
	styleEntries   EntryMap
	scriptEntries  EntryMap
	bundler        ToolConfig
	postProcessor  ToolConfig
	minifier       ToolConfig
	preprocessor   Preprocessor
	devServer      DevServer
	flags          Flags
	hashMode       HashMode
	errorPolicy    ErrorPolicy
	sourcemapStyle SourcemapStyle
}

// TaskName returns the name under which the build is registered.
func (c Config) TaskName() string { return c.taskName }

// SourcePath returns the root of the asset sources, watched in watch mode.
func (c Config) SourcePath() string { return c.sourcePath }

// Destination returns the output directory.
func (c Config) Destination() string { return c.destination }

// StyleDir returns the style output subdirectory relative to the destination.
func (c Config) StyleDir() string { return c.styleDir }

// ScriptDir returns the script output subdirectory relative to the destination.
func (c Config) ScriptDir() string { return c.scriptDir }

// Dir returns the output subdirectory of the kind.
func (c Config) Dir(kind AssetKind) string {
	if kind == KindStyle {
		return c.styleDir
	}
	return c.scriptDir
}

// Entries returns the entries of the kind sorted by name.
func (c Config) Entries(kind AssetKind) []Entry {
	if kind == KindStyle {
		return c.styleEntries.Entries(kind)
	}
	return c.scriptEntries.Entries(kind)
}

// StyleEntries returns a copy of the style entry map.
func (c Config) StyleEntries() EntryMap { return c.styleEntries.Clone() }

// ScriptEntries returns a copy of the script entry map.
func (c Config) ScriptEntries() EntryMap { return c.scriptEntries.Clone() }

// Bundler returns the bundler configuration with flag overrides applied.
func (c Config) Bundler() ToolConfig { return c.bundler }

// PostProcessor returns the CSS post-processor configuration with flag overrides applied.
func (c Config) PostProcessor() ToolConfig { return c.postProcessor }

// Minifier returns the minifier configuration with flag overrides applied.
func (c Config) Minifier() ToolConfig { return c.minifier }

// Preprocessor returns the style preprocessor configuration.
func (c Config) Preprocessor() Preprocessor {
	return Preprocessor{
		Command:    slices.Clone(c.preprocessor.Command),
		Extensions: slices.Clone(c.preprocessor.Extensions),
	}
}

// DevServer returns the live-reload server configuration.
func (c Config) DevServer() DevServer { return c.devServer }

// Flags returns the feature toggles.
func (c Config) Flags() Flags { return c.flags }

// HashMode returns the memoization hash mode.
func (c Config) HashMode() HashMode { return c.hashMode }

// ErrorPolicy returns what compile errors do to the build.
func (c Config) ErrorPolicy() ErrorPolicy { return c.errorPolicy }

// SourcemapStyle returns where sourcemaps are written.
func (c Config) SourcemapStyle() SourcemapStyle { return c.sourcemapStyle }
