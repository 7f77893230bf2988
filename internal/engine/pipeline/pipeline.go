// Package pipeline runs the per-kind asset chain: compile, optional minification,
// sourcemap extraction and filename memoization, then writing to the destination.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options control a single pipeline run.
type Options struct {
	// NoCache bypasses the input-hash cache.
	NoCache bool
}

// Result describes the outputs of one pipeline run.
type Result struct {
	Artifacts []domain.Artifact
	// BuildHash is the hash over all written artifacts.
	BuildHash string
	// Cached reports that the artifacts were restored from the store.
	Cached bool
	// Failed reports a compile error that was notified but not returned.
	Failed bool
}

// Pipeline compiles the entries of one asset kind and writes the results.
type Pipeline struct {
	compiler ports.Compiler
	minifier ports.Minifier
	executor ports.Executor
	hasher   ports.Hasher
	resolver ports.InputResolver
	store    ports.BuildInfoStore
	output   ports.OutputWriter
	notifier ports.Notifier
	metrics  ports.Metrics
	logger   ports.Logger

	mu      sync.Mutex
	written map[domain.AssetKind][]string
}

// New creates a Pipeline with the given collaborators.
func New(
	compiler ports.Compiler,
	minifier ports.Minifier,
	executor ports.Executor,
	hasher ports.Hasher,
	resolver ports.InputResolver,
	store ports.BuildInfoStore,
	output ports.OutputWriter,
	notifier ports.Notifier,
	metrics ports.Metrics,
	logger ports.Logger,
) *Pipeline {
	return &Pipeline{
		compiler: compiler,
		minifier: minifier,
		executor: executor,
		hasher:   hasher,
		resolver: resolver,
		store:    store,
		output:   output,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		written:  make(map[domain.AssetKind][]string),
	}
}

// Steps returns the steps a run over kind performs under cfg.
func Steps(cfg domain.Config, kind domain.AssetKind) []domain.Step {
	flags := cfg.Flags()
	steps := make([]domain.Step, 0, 6)
	if kind == domain.KindStyle && needsPreprocess(cfg) {
		steps = append(steps, domain.StepPreprocess)
	}
	steps = append(steps, domain.StepCompile)
	if flags.Minify {
		steps = append(steps, domain.StepMinify)
	}
	if extractsSourcemaps(cfg) {
		steps = append(steps, domain.StepSourcemaps)
	}
	if flags.Manifest {
		steps = append(steps, domain.StepMemoize)
	}
	return append(steps, domain.StepWrite)
}

func needsPreprocess(cfg domain.Config) bool {
	pre := cfg.Preprocessor()
	return slices.ContainsFunc(cfg.Entries(domain.KindStyle), func(e domain.Entry) bool {
		return pre.Applies(e.Source)
	})
}

func extractsSourcemaps(cfg domain.Config) bool {
	return cfg.Flags().Sourcemaps && cfg.SourcemapStyle() == domain.SourcemapExternal
}

// Run compiles every entry of kind, writes the outputs below the destination and,
// with the manifest flag, replaces the manifest records of the kind. Outputs of a
// previous run that were not produced again are removed.
//
// Compile errors are reported to the notifier. Under the notify policy Run then
// returns a failed result and no error.
func (p *Pipeline) Run(
	ctx context.Context,
	cfg domain.Config,
	kind domain.AssetKind,
	manifest *domain.Manifest,
	out io.Writer,
	opts Options,
) (Result, error) {
	entries := cfg.Entries(kind)
	if len(entries) == 0 {
		return Result{}, nil
	}

	cacheKey := cfg.TaskName() + "/" + kind.TaskName()
	if !opts.NoCache {
		if res, ok := p.restore(cfg, kind, entries, cacheKey); ok {
			if err := p.commit(cfg, kind, manifest, res.Artifacts, out); err != nil {
				return Result{}, err
			}
			_, _ = fmt.Fprintf(out, "restored %d file(s) from cache\n", len(res.Artifacts))
			return res, nil
		}
	}

	artifacts, inputs, err := p.process(ctx, cfg, kind, entries)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return p.compileFailed(cfg, kind, err)
	}

	if err := p.commit(cfg, kind, manifest, artifacts, out); err != nil {
		return Result{}, err
	}

	res := Result{Artifacts: artifacts, BuildHash: p.hasher.ComputeBuildHash(artifacts)}
	if !opts.NoCache {
		p.save(cfg, kind, entries, cacheKey, inputs, res)
	}
	return res, nil
}

// process runs the transforming steps and returns the final artifacts together
// with the source files the compiler read.
func (p *Pipeline) process(
	ctx context.Context,
	cfg domain.Config,
	kind domain.AssetKind,
	entries []domain.Entry,
) ([]domain.Artifact, []string, error) {
	compileEntries, err := p.preprocess(ctx, cfg, entries)
	if err != nil {
		return nil, nil, err
	}

	toolConfig := cfg.Bundler()
	if kind == domain.KindStyle {
		toolConfig = cfg.PostProcessor()
	}
	compiled, err := p.compiler.Compile(ctx, ports.CompileRequest{
		Kind:       kind,
		Entries:    compileEntries,
		OutDir:     cfg.Dir(kind),
		Config:     toolConfig,
		Sourcemaps: cfg.Flags().Sourcemaps,
	})
	if err != nil {
		return nil, nil, err
	}

	artifacts := compiled.Artifacts
	if cfg.Flags().Minify {
		if artifacts, err = p.minify(ctx, cfg, artifacts); err != nil {
			return nil, nil, err
		}
	}
	if extractsSourcemaps(cfg) {
		if artifacts, err = extractSourcemaps(artifacts); err != nil {
			return nil, nil, err
		}
	}
	if cfg.Flags().Manifest {
		if artifacts, err = p.memoize(cfg.HashMode(), artifacts); err != nil {
			return nil, nil, err
		}
	}
	return artifacts, compiled.Inputs, nil
}

// preprocess pipes style entries through the external preprocessor. Entries it
// does not apply to are compiled from disk.
func (p *Pipeline) preprocess(
	ctx context.Context,
	cfg domain.Config,
	entries []domain.Entry,
) ([]ports.CompileEntry, error) {
	pre := cfg.Preprocessor()
	out := make([]ports.CompileEntry, 0, len(entries))
	for _, e := range entries {
		ce := ports.CompileEntry{Entry: e}
		if e.Kind == domain.KindStyle && pre.Applies(e.Source) {
			var stdout bytes.Buffer
			cmd := domain.Command{Args: pre.Argv(e.Source)}
			if err := p.executor.Execute(ctx, cmd, &stdout, nil); err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrPreprocessFailed.Error()), "entry", e.Source)
			}
			ce.Contents = stdout.Bytes()
		}
		out = append(out, ce)
	}
	return out, nil
}

func (p *Pipeline) minify(ctx context.Context, cfg domain.Config, artifacts []domain.Artifact) ([]domain.Artifact, error) {
	out := make([]domain.Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		minified, err := p.minifier.Minify(ctx, a, cfg.Minifier())
		if err != nil {
			return nil, err
		}
		out = append(out, minified)
	}
	return out, nil
}

// commit writes the artifacts, removes stale outputs of the kind and updates the manifest.
func (p *Pipeline) commit(
	cfg domain.Config,
	kind domain.AssetKind,
	manifest *domain.Manifest,
	artifacts []domain.Artifact,
	out io.Writer,
) error {
	dest := cfg.Destination()
	if err := p.output.Write(dest, artifacts); err != nil {
		return err
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		paths = append(paths, a.Path)
		_, _ = fmt.Fprintf(out, "wrote %s\n", a.Path)
	}

	p.mu.Lock()
	stale := slices.DeleteFunc(slices.Clone(p.written[kind]), func(path string) bool {
		return slices.Contains(paths, path)
	})
	p.written[kind] = paths
	p.mu.Unlock()

	if len(stale) > 0 {
		if err := p.output.Remove(dest, stale); err != nil {
			return err
		}
		p.logger.Debug("removed stale outputs", "kind", string(kind), "count", len(stale))
	}

	if cfg.Flags().Manifest && manifest != nil {
		records := make(map[string]string)
		for _, a := range artifacts {
			if a.HasEntry() {
				records[a.Entry.String()] = a.Path
			}
		}
		manifest.Replace(kind, records)
	}
	return nil
}

// compileFailed applies the error policy to a compile error.
func (p *Pipeline) compileFailed(cfg domain.Config, kind domain.AssetKind, err error) (Result, error) {
	p.metrics.IncCompileError(string(kind))
	p.notifier.Notify(domain.Notification{
		Title: string(kind) + " compilation failed",
		Task:  kind.TaskName(),
		Err:   err,
	})
	if cfg.ErrorPolicy() == domain.PolicyFail {
		return Result{}, err
	}
	return Result{Failed: true}, nil
}
