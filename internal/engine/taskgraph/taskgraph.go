// Package taskgraph assembles the fixed build graph from a finalized configuration:
//
//	clean -> {styles, scripts} -> {watch, serve} -> manifest
package taskgraph

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/meister/internal/engine/pipeline"
	"golang.org/x/sync/errgroup"
)

// Task names of the build graph.
const (
	TaskClean    = "clean"
	TaskWatch    = "watch"
	TaskServe    = "serve"
	TaskManifest = "manifest"
)

// AssetPipeline compiles the entries of one asset kind.
type AssetPipeline interface {
	Run(
		ctx context.Context,
		cfg domain.Config,
		kind domain.AssetKind,
		manifest *domain.Manifest,
		out io.Writer,
		opts pipeline.Options,
	) (pipeline.Result, error)
}

// Options control the assembled build.
type Options struct {
	NoCache bool
}

// Assembler builds task graphs from configurations.
type Assembler struct {
	pipeline AssetPipeline
	output   ports.OutputWriter
	watcher  ports.Watcher
	debounce ports.DebouncerFactory
	server   ports.DevServer
	tracer   ports.Tracer
	logger   ports.Logger
}

// NewAssembler creates an Assembler. The watcher, debouncer factory and dev server
// are only used when the configuration enables watching or live reload.
func NewAssembler(
	pipe AssetPipeline,
	output ports.OutputWriter,
	watcher ports.Watcher,
	debounce ports.DebouncerFactory,
	server ports.DevServer,
	tracer ports.Tracer,
	logger ports.Logger,
) *Assembler {
	return &Assembler{
		pipeline: pipe,
		output:   output,
		watcher:  watcher,
		debounce: debounce,
		server:   server,
		tracer:   tracer,
		logger:   logger,
	}
}

// Build is an assembled, validated task graph together with the state its tasks share.
type Build struct {
	// ID identifies the build in logs and traces.
	ID       string
	Graph    *domain.Graph
	Manifest *domain.Manifest

	cfg        domain.Config
	opts       Options
	a          *Assembler
	background *errgroup.Group
	bgCtx      context.Context

	mu     sync.Mutex
	hashes map[domain.AssetKind]string

	rebuildMu sync.Mutex
}

// Assemble returns the validated graph for cfg. Long-running services started by
// the watch and serve tasks live until ctx is cancelled; Wait blocks on them.
func (a *Assembler) Assemble(ctx context.Context, cfg domain.Config, opts Options) (*Build, error) {
	bg, bgCtx := errgroup.WithContext(ctx)
	b := &Build{
		ID:         uuid.NewString(),
		Graph:      domain.NewGraph(),
		Manifest:   domain.NewManifest(),
		cfg:        cfg,
		opts:       opts,
		a:          a,
		background: bg,
		bgCtx:      bgCtx,
		hashes:     make(map[domain.AssetKind]string),
	}

	clean := domain.NewInternedString(TaskClean)
	if err := b.Graph.AddTask(&domain.Task{
		Name:   clean,
		Steps:  []domain.Step{domain.StepClean},
		Action: b.clean,
	}); err != nil {
		return nil, err
	}

	var compileTasks []domain.InternedString
	for _, kind := range []domain.AssetKind{domain.KindStyle, domain.KindScript} {
		if len(cfg.Entries(kind)) == 0 {
			continue
		}
		name := domain.NewInternedString(kind.TaskName())
		if err := b.Graph.AddTask(&domain.Task{
			Name:         name,
			Dependencies: []domain.InternedString{clean},
			Steps:        pipeline.Steps(cfg, kind),
			Action:       b.compile(kind),
		}); err != nil {
			return nil, err
		}
		compileTasks = append(compileTasks, name)
	}

	services := slices.Clone(compileTasks)
	flags := cfg.Flags()
	if flags.Watch {
		if err := b.addService(TaskWatch, domain.StepWatch, compileTasks, b.watch); err != nil {
			return nil, err
		}
		services = append(services, domain.NewInternedString(TaskWatch))
	}
	if flags.LiveReload {
		if err := b.addService(TaskServe, domain.StepServe, compileTasks, b.serve); err != nil {
			return nil, err
		}
		services = append(services, domain.NewInternedString(TaskServe))
	}

	if flags.Manifest {
		if err := b.Graph.AddTask(&domain.Task{
			Name:         domain.NewInternedString(TaskManifest),
			Dependencies: services,
			Steps:        []domain.Step{domain.StepManifest},
			Action:       b.writeManifest,
		}); err != nil {
			return nil, err
		}
	}

	if err := b.Graph.Validate(); err != nil {
		return nil, err
	}
	a.logger.Debug("assembled build graph", "build", b.ID, "tasks", b.Graph.TaskCount())
	return b, nil
}

func (b *Build) addService(
	name string,
	step domain.Step,
	deps []domain.InternedString,
	action func(context.Context, io.Writer) error,
) error {
	return b.Graph.AddTask(&domain.Task{
		Name:         domain.NewInternedString(name),
		Dependencies: slices.Clone(deps),
		Steps:        []domain.Step{step},
		Action:       action,
	})
}

// Wait blocks until every background service has stopped.
func (b *Build) Wait() error {
	return b.background.Wait()
}

// Stages groups the graph into series stages of tasks that may run in parallel.
func (b *Build) Stages() [][]domain.Task {
	return b.Graph.Stages()
}

func (b *Build) clean(_ context.Context, out io.Writer) error {
	if err := b.a.output.Clean(b.cfg.Destination()); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "removed %s\n", b.cfg.Destination())
	return nil
}

func (b *Build) compile(kind domain.AssetKind) func(context.Context, io.Writer) error {
	return func(ctx context.Context, out io.Writer) error {
		res, err := b.a.pipeline.Run(ctx, b.cfg, kind, b.Manifest, out, pipeline.Options{NoCache: b.opts.NoCache})
		if err != nil {
			return err
		}
		if !res.Failed {
			b.setHash(kind, res.BuildHash)
		}
		return nil
	}
}

func (b *Build) writeManifest(_ context.Context, out io.Writer) error {
	if err := b.a.output.WriteManifest(b.cfg.Destination(), b.Manifest); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "wrote %s with %d entries\n", domain.ManifestFileName, b.Manifest.Len())
	return nil
}

func (b *Build) setHash(kind domain.AssetKind, hash string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hashes[kind] = hash
}

// buildHash combines the latest hashes of every compiled kind.
func (b *Build) buildHash() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	parts := make([]string, 0, len(b.hashes))
	for _, kind := range []domain.AssetKind{domain.KindStyle, domain.KindScript} {
		if h, ok := b.hashes[kind]; ok {
			parts = append(parts, h)
		}
	}
	return strings.Join(parts, "-")
}
