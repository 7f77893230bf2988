// Package app implements the application layer for meister.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime"

	"go.trai.ch/meister/internal/adapters/linear"
	"go.trai.ch/meister/internal/adapters/telemetry"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/meister/internal/engine/scheduler"
	"go.trai.ch/meister/internal/engine/taskgraph"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	pipeline     taskgraph.AssetPipeline
	output       ports.OutputWriter
	store        ports.BuildInfoStore
	watcher      ports.Watcher
	debounce     ports.DebouncerFactory
	server       ports.DevServer
	metrics      ports.Metrics
	logger       ports.Logger
	stdout       io.Writer
	stderr       io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	pipe taskgraph.AssetPipeline,
	output ports.OutputWriter,
	store ports.BuildInfoStore,
	watcher ports.Watcher,
	debounce ports.DebouncerFactory,
	server ports.DevServer,
	metrics ports.Metrics,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		pipeline:     pipe,
		output:       output,
		store:        store,
		watcher:      watcher,
		debounce:     debounce,
		server:       server,
		metrics:      metrics,
		logger:       log,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput redirects build progress output. Used for testing.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// BuildOptions are the command line overrides applied on top of the configuration file.
type BuildOptions struct {
	ConfigPath string
	// Production enables minification; otherwise sourcemaps are written.
	Production bool
	Watch      bool
	Serve      bool
	Manifest   bool
	Sourcemaps bool
	NoCache    bool
	// Strict fails the build on compile errors.
	Strict bool
}

// Build loads the configuration, runs the task graph and then blocks until the
// watch and serve services stop. Services are stopped by cancelling ctx.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return err
	}

	renderer := linear.NewRenderer(a.stdout, a.stderr)
	tracer, shutdown := telemetry.Setup(renderer)
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	assembler := taskgraph.NewAssembler(a.pipeline, a.output, a.watcher, a.debounce, a.server, tracer, a.logger)
	build, err := assembler.Assemble(ctx, cfg, taskgraph.Options{NoCache: opts.NoCache})
	if err != nil {
		return zerr.Wrap(err, "failed to assemble build graph")
	}
	a.logger.Debug("starting build", "build", build.ID, "task", cfg.TaskName())

	sched := scheduler.NewScheduler(tracer, a.metrics, a.logger)
	runErr := sched.Run(ctx, build.Graph, runtime.NumCPU())
	if runErr != nil {
		cancel()
	}

	waitErr := build.Wait()
	if runErr != nil {
		return errors.Join(domain.ErrBuildExecutionFailed, runErr)
	}
	if waitErr != nil {
		return zerr.Wrap(waitErr, "background service failed")
	}
	return nil
}

// Plan assembles the task graph without running it and returns its stages.
func (a *App) Plan(ctx context.Context, opts BuildOptions) ([][]domain.Task, error) {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return nil, err
	}

	tracer := telemetry.NewNoOpTracer()
	assembler := taskgraph.NewAssembler(a.pipeline, a.output, a.watcher, a.debounce, a.server, tracer, a.logger)
	build, err := assembler.Assemble(ctx, cfg, taskgraph.Options{NoCache: opts.NoCache})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to assemble build graph")
	}
	return build.Stages(), nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	ConfigPath string
	// Output removes the configured destination directory.
	Output bool
	// Cache purges the artifact cache.
	Cache bool
}

// Clean removes build outputs and cached artifacts based on the provided options.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	var errs error

	if opts.Output {
		b, err := a.configLoader.Load(opts.ConfigPath)
		if err != nil {
			return zerr.Wrap(err, "failed to load configuration")
		}
		cfg, err := b.Build()
		if err != nil {
			return zerr.Wrap(err, "invalid configuration")
		}
		if err := a.output.Clean(cfg.Destination()); err != nil {
			errs = errors.Join(errs, err)
		} else {
			a.logger.Info("removed build output", "path", cfg.Destination())
		}
	}

	if opts.Cache {
		if err := a.store.Purge(); err != nil {
			errs = errors.Join(errs, err)
		} else {
			a.logger.Info("removed artifact cache", "path", domain.DefaultStorePath())
		}
	}

	return errs
}

// loadConfig replays the configuration file and applies the overrides.
func (a *App) loadConfig(opts BuildOptions) (domain.Config, error) {
	b, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return domain.Config{}, zerr.Wrap(err, "failed to load configuration")
	}

	b.Optional(opts.Production,
		func(b *domain.Builder) { b.UseMinify(true) },
		func(b *domain.Builder) { b.WriteSourcemap(true) },
	)
	if opts.Sourcemaps {
		b.WriteSourcemap(true)
	}
	if opts.Watch {
		b.UseWatcher(true)
	}
	if opts.Serve {
		b.UseLiveReload(true)
	}
	if opts.Manifest {
		b.WriteManifest(true)
	}
	if opts.Strict {
		b.SetErrorPolicy(domain.PolicyFail)
	}

	cfg, err := b.Build()
	if err != nil {
		return domain.Config{}, zerr.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
