// Package esbuild implements the compiler and minifier ports with the esbuild Go API.
package esbuild

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tidwall/gjson"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

// virtualRoot is the directory esbuild lays outputs out in. Nothing is written
// there; output paths are made relative to it.
var virtualRoot = filepath.Join(domain.MeisterDirName, "out")

var _ ports.Compiler = (*Compiler)(nil)

// Compiler bundles scripts and transforms stylesheets in memory.
type Compiler struct {
	workDir string
}

// NewCompiler creates a Compiler resolving relative entry paths against workDir.
// An empty workDir means the process working directory.
func NewCompiler(workDir string) (*Compiler, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}
	return &Compiler{workDir: abs}, nil
}

// Compile dispatches on the request kind.
func (c *Compiler) Compile(ctx context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.CompileResult{}, err
	}
	if len(req.Entries) == 0 {
		return ports.CompileResult{}, nil
	}
	if req.Kind == domain.KindStyle {
		return c.compileStyles(ctx, req)
	}
	return c.compileScripts(req)
}

// compileScripts runs one bundle over every script entry so shared code can be split into chunks.
func (c *Compiler) compileScripts(req ports.CompileRequest) (ports.CompileResult, error) {
	root := filepath.Join(c.workDir, virtualRoot)
	opts := c.baseOptions(req)
	opts.Outdir = filepath.Join(root, filepath.FromSlash(req.OutDir))
	if err := applyScript(&opts, req.Config); err != nil {
		return ports.CompileResult{}, err
	}

	bySource := make(map[string]domain.Entry, len(req.Entries))
	for _, e := range req.Entries {
		source := c.abs(e.Entry.Source)
		bySource[source] = e.Entry
		opts.EntryPointsAdvanced = append(opts.EntryPointsAdvanced, api.EntryPoint{
			InputPath:  source,
			OutputPath: e.Entry.Name.String(),
		})
	}

	res := api.Build(opts)
	if len(res.Errors) > 0 {
		return ports.CompileResult{}, buildError(res.Errors, req.Kind)
	}

	owners := c.entryOutputs(res.Metafile, bySource)
	artifacts := make([]domain.Artifact, 0, len(res.OutputFiles))
	for _, out := range res.OutputFiles {
		a, err := toArtifact(root, out, req.Kind)
		if err != nil {
			return ports.CompileResult{}, err
		}
		if e, ok := owners[out.Path]; ok && path.Ext(a.Path) == req.Kind.Ext() {
			a.Entry = e.Name
		}
		artifacts = append(artifacts, a)
	}
	return ports.CompileResult{Artifacts: artifacts, Inputs: c.metafileInputs(nil, res.Metafile)}, nil
}

// entryOutputs maps absolute output paths to the entry that produced them, using
// the entryPoint field of the metafile.
func (c *Compiler) entryOutputs(metafile string, bySource map[string]domain.Entry) map[string]domain.Entry {
	owners := make(map[string]domain.Entry, len(bySource))
	gjson.Get(metafile, "outputs").ForEach(func(key, output gjson.Result) bool {
		entryPoint := output.Get("entryPoint").String()
		if entryPoint == "" {
			return true
		}
		if e, ok := bySource[c.abs(entryPoint)]; ok {
			owners[c.abs(key.String())] = e
		}
		return true
	})
	return owners
}

// metafileInputs appends the absolute paths of the files esbuild read, taken from
// the inputs field of the metafile, to inputs. Virtual inputs such as stdin or
// namespaced plugin paths are skipped.
func (c *Compiler) metafileInputs(inputs []string, metafile string) []string {
	gjson.Get(metafile, "inputs").ForEach(func(key, _ gjson.Result) bool {
		name := key.String()
		if name == "" || strings.HasPrefix(name, "<") || strings.Contains(name, ":") {
			return true
		}
		inputs = append(inputs, c.abs(filepath.FromSlash(name)))
		return true
	})
	slices.Sort(inputs)
	return slices.Compact(inputs)
}

// compileStyles builds each stylesheet on its own. Preprocessed contents are fed through stdin.
func (c *Compiler) compileStyles(ctx context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
	root := filepath.Join(c.workDir, virtualRoot)
	var artifacts []domain.Artifact
	var inputs []string

	for _, e := range req.Entries {
		if err := ctx.Err(); err != nil {
			return ports.CompileResult{}, err
		}

		source := c.abs(e.Entry.Source)
		outfile := filepath.Join(root, filepath.FromSlash(req.OutDir), e.Entry.Name.String()+domain.KindStyle.Ext())

		opts := c.baseOptions(req)
		opts.Outfile = outfile
		if err := applyStyle(&opts, req.Config); err != nil {
			return ports.CompileResult{}, err
		}
		if e.Contents != nil {
			opts.Stdin = &api.StdinOptions{
				Contents:   string(e.Contents),
				ResolveDir: filepath.Dir(source),
				Sourcefile: source,
				Loader:     api.LoaderCSS,
			}
		} else {
			opts.EntryPoints = []string{source}
		}

		res := api.Build(opts)
		if len(res.Errors) > 0 {
			return ports.CompileResult{}, zerr.With(buildError(res.Errors, req.Kind), "entry", e.Entry.Name.String())
		}

		for _, out := range res.OutputFiles {
			a, err := toArtifact(root, out, req.Kind)
			if err != nil {
				return ports.CompileResult{}, err
			}
			if out.Path == outfile {
				a.Entry = e.Entry.Name
			}
			artifacts = append(artifacts, a)
		}
		inputs = c.metafileInputs(inputs, res.Metafile)
	}
	return ports.CompileResult{Artifacts: artifacts, Inputs: inputs}, nil
}

func (c *Compiler) baseOptions(req ports.CompileRequest) api.BuildOptions {
	opts := api.BuildOptions{
		Bundle:        true,
		Write:         false,
		LogLevel:      api.LogLevelSilent,
		AbsWorkingDir: c.workDir,
		AssetNames:    "[name].[hash]",
		Metafile:      true,
	}
	if req.Sourcemaps {
		opts.Sourcemap = api.SourceMapInline
	}
	return opts
}

func (c *Compiler) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.workDir, p)
}

// toArtifact converts an esbuild output file into a destination-relative artifact.
func toArtifact(root string, out api.OutputFile, kind domain.AssetKind) (domain.Artifact, error) {
	rel, err := filepath.Rel(root, out.Path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return domain.Artifact{}, zerr.With(domain.ErrOutputPathOutsideDestination, "path", out.Path)
	}
	return domain.Artifact{
		Kind:     kind,
		Path:     path.Clean(filepath.ToSlash(rel)),
		Contents: out.Contents,
		IsMap:    strings.HasSuffix(rel, ".map"),
	}, nil
}

// buildError renders esbuild messages into a single compile error.
func buildError(msgs []api.Message, kind domain.AssetKind) error {
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	text := strings.TrimSpace(strings.Join(formatted, ""))
	err := zerr.Wrap(errors.New(text), domain.ErrCompileFailed.Error())
	err = zerr.With(err, "kind", string(kind))
	return zerr.With(err, "errors", len(msgs))
}
