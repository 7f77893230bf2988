package ports

import (
	"context"

	"go.trai.ch/meister/internal/core/domain"
)

//go:generate mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks

// CompileEntry is one entry handed to the compiler.
type CompileEntry struct {
	Entry domain.Entry
	// Contents replaces the file at Entry.Source when set, e.g. with preprocessor output.
	Contents []byte
}

// CompileRequest describes one compile run over all entries of a kind.
type CompileRequest struct {
	Kind    domain.AssetKind
	Entries []CompileEntry
	// OutDir is the output directory relative to the destination.
	OutDir string
	// Config is the bundler configuration for scripts or the post-processor configuration for styles.
	Config domain.ToolConfig
	// Sourcemaps requests inline sourcemaps in every output.
	Sourcemaps bool
}

// CompileResult holds the outputs of one compile run.
type CompileResult struct {
	// Artifacts have paths relative to the destination. Every primary output is
	// tagged with the logical name of its entry.
	Artifacts []domain.Artifact
	// Inputs are the absolute paths of the source files the compiler read.
	Inputs []string
}

// Compiler bundles scripts and transforms stylesheets.
type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) (CompileResult, error)
}

// Minifier minifies a single compiled artifact.
type Minifier interface {
	// Minify returns the minified artifact. Inline sourcemaps are chained through.
	Minify(ctx context.Context, artifact domain.Artifact, cfg domain.ToolConfig) (domain.Artifact, error)
}
