package esbuild

import (
	"context"
	"errors"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Minifier = (*Minifier)(nil)

// Minifier minifies compiled scripts and stylesheets with the esbuild transform API.
type Minifier struct{}

// NewMinifier creates a new Minifier.
func NewMinifier() *Minifier {
	return &Minifier{}
}

// Minify returns a minified copy of the artifact. Sourcemaps and files that are
// neither JavaScript nor CSS are returned unchanged. When the configuration has
// "sourcemap" set, an inline map in the input is chained into the output.
func (m *Minifier) Minify(ctx context.Context, artifact domain.Artifact, cfg domain.ToolConfig) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return artifact, err
	}
	loader, ok := transformLoader(artifact.Path)
	if artifact.IsMap || !ok {
		return artifact, nil
	}

	opts := api.TransformOptions{
		Loader:            loader,
		Sourcefile:        artifact.Base(),
		MinifyWhitespace:  !cfg.Has("whitespace") || cfg.Get("whitespace").Bool(),
		MinifyIdentifiers: !cfg.Has("identifiers") || cfg.Get("identifiers").Bool(),
		MinifySyntax:      !cfg.Has("syntax") || cfg.Get("syntax").Bool(),
		LegalComments:     api.LegalCommentsNone,
		LogLevel:          api.LogLevelSilent,
	}
	if cfg.Get("keepComments").Bool() {
		opts.LegalComments = api.LegalCommentsInline
	}
	if cfg.Get("sourcemap").Bool() {
		opts.Sourcemap = api.SourceMapInline
	}
	if v := strings.ToLower(cfg.Get("target").String()); v != "" {
		target, ok := languageTargets[v]
		if !ok {
			return artifact, invalidOption("target", v)
		}
		opts.Target = target
	}

	res := api.Transform(string(artifact.Contents), opts)
	if len(res.Errors) > 0 {
		formatted := api.FormatMessages(res.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		err := zerr.Wrap(errors.New(strings.TrimSpace(strings.Join(formatted, ""))), domain.ErrMinifyFailed.Error())
		return artifact, zerr.With(err, "path", artifact.Path)
	}

	artifact.Contents = res.Code
	return artifact, nil
}
