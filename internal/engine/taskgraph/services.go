package taskgraph

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/engine/pipeline"
)

// Globs that map a changed source file to the compile task it affects.
const (
	StyleGlob  = "**/*.{scss,sass,css}"
	ScriptGlob = "**/*.{js,mjs,es6,jsx,ts,tsx,vue}"
)

// Classify returns the asset kinds affected by the changed paths, styles first.
// Paths are matched relative to root. Paths inside an ignored directory, such as
// a destination nested in the sources, never trigger a rebuild.
func Classify(root string, paths []string, ignore ...string) []domain.AssetKind {
	var styles, scripts bool
	for _, p := range paths {
		if insideAny(p, ignore) {
			continue
		}
		rel := p
		if r, err := filepath.Rel(root, p); err == nil {
			rel = r
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(StyleGlob, rel); ok {
			styles = true
		}
		if ok, _ := doublestar.Match(ScriptGlob, rel); ok {
			scripts = true
		}
	}

	var kinds []domain.AssetKind
	if styles {
		kinds = append(kinds, domain.KindStyle)
	}
	if scripts {
		kinds = append(kinds, domain.KindScript)
	}
	return kinds
}

func insideAny(p string, dirs []string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, dir := range dirs {
		d, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(d, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (b *Build) sourceRoot() string {
	if src := b.cfg.SourcePath(); src != "" {
		return src
	}
	return "."
}

// watch starts the file watcher and hands the rebuild loop to the background group.
func (b *Build) watch(_ context.Context, out io.Writer) error {
	root := b.sourceRoot()
	if err := b.a.watcher.Start(b.bgCtx, root); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "watching %s\n", root)

	b.background.Go(func() error {
		debouncer := b.a.debounce(func(paths []string) {
			b.rebuild(b.bgCtx, paths)
		})
		for event := range b.a.watcher.Events() {
			debouncer.Add(event.Path)
		}
		return b.a.watcher.Stop()
	})
	return nil
}

// serve binds the dev server and hands request handling to the background group.
func (b *Build) serve(_ context.Context, out io.Writer) error {
	addr, err := b.a.server.Listen(b.cfg.DevServer())
	if err != nil {
		return err
	}
	b.a.server.Reload(b.buildHash())
	_, _ = fmt.Fprintf(out, "serving %s at http://%s\n", b.cfg.DevServer().Root, addr)

	b.background.Go(func() error {
		return b.a.server.Serve(b.bgCtx)
	})
	return nil
}

// rebuild reruns the compile tasks affected by the changed paths, rewrites the
// manifest and tells connected browsers to reload. Errors are logged; the watch
// loop keeps running.
func (b *Build) rebuild(ctx context.Context, paths []string) {
	b.rebuildMu.Lock()
	defer b.rebuildMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	kinds := Classify(b.sourceRoot(), paths, b.cfg.Destination())
	rebuilt := false
	for _, kind := range kinds {
		if len(b.cfg.Entries(kind)) == 0 {
			continue
		}
		if b.rebuildKind(ctx, kind) {
			rebuilt = true
		}
	}
	if !rebuilt {
		b.a.logger.Debug("no rebuild needed", "paths", len(paths))
		return
	}

	if b.cfg.Flags().Manifest {
		if err := b.a.output.WriteManifest(b.cfg.Destination(), b.Manifest); err != nil {
			b.a.logger.Error(err)
		}
	}
	if b.cfg.Flags().LiveReload {
		b.a.server.Reload(b.buildHash())
	}
}

func (b *Build) rebuildKind(ctx context.Context, kind domain.AssetKind) bool {
	ctx, span := b.a.tracer.Start(ctx, kind.TaskName())
	defer span.End()

	res, err := b.a.pipeline.Run(ctx, b.cfg, kind, b.Manifest, span, pipeline.Options{NoCache: b.opts.NoCache})
	if err != nil {
		span.RecordError(err)
		b.a.logger.Error(err)
		return false
	}
	if res.Failed {
		return false
	}
	b.setHash(kind, res.BuildHash)
	return true
}
