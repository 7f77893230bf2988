package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/meister/internal/adapters/cas"
	"go.trai.ch/meister/internal/adapters/fs"
	"go.trai.ch/meister/internal/adapters/metrics"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/meister/internal/core/ports/mocks"
	"go.trai.ch/meister/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

type harness struct {
	compiler *mocks.MockCompiler
	minifier *mocks.MockMinifier
	executor *mocks.MockExecutor
	notifier *mocks.MockNotifier
	hasher   *fs.Hasher
	root     string
	dest     string
	pipeline *pipeline.Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	h := &harness{
		compiler: mocks.NewMockCompiler(ctrl),
		minifier: mocks.NewMockMinifier(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		notifier: mocks.NewMockNotifier(ctrl),
		hasher:   fs.NewHasher(fs.NewWalker()),
		root:     root,
		dest:     filepath.Join(root, "dist"),
	}
	h.pipeline = pipeline.New(
		h.compiler,
		h.minifier,
		h.executor,
		h.hasher,
		fs.NewResolver(),
		cas.NewStore(filepath.Join(root, domain.DefaultStorePath())),
		fs.NewOutputWriter(),
		h.notifier,
		metrics.NoopRecorder{},
		log,
	)
	return h
}

func (h *harness) source(t *testing.T, rel, contents string) string {
	t.Helper()
	p := filepath.Join(h.root, "src", rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
	require.NoError(t, os.WriteFile(p, []byte(contents), domain.FilePerm))
	return p
}

func (h *harness) config(t *testing.T, configure func(*domain.Builder)) domain.Config {
	t.Helper()
	b := domain.NewBuilder("").
		SetSourcePath(filepath.Join(h.root, "src")).
		SetDestinationPath(h.dest).
		SetScriptDir("js").
		SetStyleDir("css").
		AddScriptEntry(h.source(t, "main.js", "console.log('main')"), "main")
	if configure != nil {
		configure(b)
	}
	cfg, err := b.Build()
	require.NoError(t, err)
	return cfg
}

func (h *harness) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.dest, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func script(name, path, contents string) domain.Artifact {
	a := domain.Artifact{Kind: domain.KindScript, Path: path, Contents: []byte(contents)}
	if name != "" {
		a.Entry = domain.NewInternedString(name)
	}
	return a
}

func compiled(artifacts ...domain.Artifact) func(context.Context, ports.CompileRequest) (ports.CompileResult, error) {
	return func(context.Context, ports.CompileRequest) (ports.CompileResult, error) {
		return ports.CompileResult{Artifacts: artifacts}, nil
	}
}

// compiledFrom is compiled with the source files the compiler reports as read.
func compiledFrom(inputs []string, artifacts ...domain.Artifact) func(context.Context, ports.CompileRequest) (ports.CompileResult, error) {
	return func(context.Context, ports.CompileRequest) (ports.CompileResult, error) {
		return ports.CompileResult{Artifacts: artifacts, Inputs: inputs}, nil
	}
}

var noCache = pipeline.Options{NoCache: true}

func TestPipeline_WritesWithoutMemoize(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, nil)

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
			assert.Equal(t, domain.KindScript, req.Kind)
			assert.Equal(t, "js", req.OutDir)
			assert.False(t, req.Sourcemaps)
			require.Len(t, req.Entries, 1)
			assert.Equal(t, "main", req.Entries[0].Entry.Name.String())
			assert.Nil(t, req.Entries[0].Contents)
			assert.Equal(t, "development", req.Config.Get("mode").String())
			return ports.CompileResult{Artifacts: []domain.Artifact{script("main", "js/main.js", "main();")}}, nil
		},
	)

	manifest := domain.NewManifest()
	var out bytes.Buffer
	res, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, manifest, &out, noCache)
	require.NoError(t, err)

	assert.Equal(t, "main();", h.read(t, "js/main.js"))
	assert.Equal(t, 0, manifest.Len(), "manifest stays empty without the manifest flag")
	assert.NotEmpty(t, res.BuildHash)
	assert.False(t, res.Cached)
	assert.Contains(t, out.String(), "wrote js/main.js")
}

func TestPipeline_MemoizeBuildHash(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) { b.WriteManifest(true) })

	outputs := []domain.Artifact{
		script("main", "js/main.js", "main();"),
		script("", "js/vendors.module.js", "vendor();"),
	}
	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(outputs...))

	manifest := domain.NewManifest()
	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, manifest, io.Discard, noCache)
	require.NoError(t, err)

	hash := h.hasher.ComputeBuildHash(outputs)
	hashed := "js/main." + hash + ".js"
	assert.Equal(t, map[string]string{"main.js": hashed}, manifest.Entries())
	assert.Equal(t, "main();", h.read(t, hashed))
	assert.Equal(t, "vendor();", h.read(t, "js/vendors.module.js"), "chunks keep their name")
}

func TestPipeline_MemoizeContentHash(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) {
		b.WriteManifest(true).
			SetHashMode(domain.HashContent).
			AddScriptEntry(h.source(t, "admin.js", "admin"), "admin")
	})

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(
		script("admin", "js/admin.js", "admin();"),
		script("main", "js/main.js", "main();"),
	))

	manifest := domain.NewManifest()
	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, manifest, io.Discard, noCache)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"admin.js": "js/admin." + h.hasher.ComputeContentHash([]byte("admin();")) + ".js",
		"main.js":  "js/main." + h.hasher.ComputeContentHash([]byte("main();")) + ".js",
	}, manifest.Entries())
}

func TestPipeline_ExternalSourcemaps(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) { b.WriteManifest(true).WriteSourcemap(true) })

	inline := "main();\n//# sourceMappingURL=data:application/json;base64,eyJ2ZXJzaW9uIjozfQ==\n"
	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
			assert.True(t, req.Sourcemaps)
			return ports.CompileResult{Artifacts: []domain.Artifact{script("main", "js/main.js", inline)}}, nil
		},
	)

	manifest := domain.NewManifest()
	res, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, manifest, io.Discard, noCache)
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 2)

	final := manifest.Entries()["main.js"]
	require.NotEmpty(t, final)
	assert.NotEqual(t, "js/main.js", final)
	assert.Equal(t, "main();\n//# sourceMappingURL=main.js.map\n", h.read(t, final))
	assert.Equal(t, `{"version":3}`, h.read(t, "js/main.js.map"))
	assert.NoFileExists(t, filepath.Join(h.dest, filepath.FromSlash(final+".map")))
}

func TestPipeline_MemoizeKeepsSourcemapPath(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) { b.WriteManifest(true).WriteSourcemap(true) })

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(
		script("main", "js/main.js", "main();\n//# sourceMappingURL=main.js.map\n"),
		domain.Artifact{
			Entry:    domain.NewInternedString("main"),
			Kind:     domain.KindScript,
			Path:     "js/main.js.map",
			Contents: []byte("{}"),
			IsMap:    true,
		},
	))

	manifest := domain.NewManifest()
	res, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, manifest, io.Discard, noCache)
	require.NoError(t, err)

	var maps []string
	for _, a := range res.Artifacts {
		if a.IsMap {
			maps = append(maps, a.Path)
		}
	}
	assert.Equal(t, []string{"js/main.js.map"}, maps)
	assert.Equal(t, "{}", h.read(t, "js/main.js.map"))
	assert.Contains(t, h.read(t, manifest.Entries()["main.js"]), "sourceMappingURL=main.js.map")
}

func TestPipeline_InlineSourcemapsStayInline(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) {
		b.WriteSourcemap(true).SetSourcemapStyle(domain.SourcemapInline)
	})

	inline := "main();\n//# sourceMappingURL=data:application/json;base64,eyJ2ZXJzaW9uIjozfQ==\n"
	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(script("main", "js/main.js", inline)))

	res, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, noCache)
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, inline, h.read(t, "js/main.js"))
}

func TestPipeline_Minify(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) { b.UseMinify(true) })

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(
		script("main", "js/main.js", "function main() { return 1 }"),
	))
	h.minifier.EXPECT().Minify(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a domain.Artifact, cfg domain.ToolConfig) (domain.Artifact, error) {
			assert.False(t, cfg.Get("sourcemap").Bool())
			a.Contents = []byte("function main(){return 1}")
			return a, nil
		},
	).Times(1)

	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, noCache)
	require.NoError(t, err)
	assert.Equal(t, "function main(){return 1}", h.read(t, "js/main.js"))
}

func TestPipeline_Preprocess(t *testing.T) {
	h := newHarness(t)
	scss := h.source(t, "main.scss", "$c: red; body { color: $c; }")
	cfg := h.config(t, func(b *domain.Builder) { b.AddStyleEntry(scss, "main") })

	h.executor.EXPECT().Execute(gomock.Any(), domain.Command{Args: []string{"sass", "--no-source-map", scss}}, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.Command, stdout, _ io.Writer) error {
			_, err := io.WriteString(stdout, "body{color:red}")
			return err
		},
	)
	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
			require.Len(t, req.Entries, 1)
			assert.Equal(t, "body{color:red}", string(req.Entries[0].Contents))
			assert.Equal(t, "css", req.OutDir)
			return ports.CompileResult{Artifacts: []domain.Artifact{{
				Entry:    domain.NewInternedString("main"),
				Kind:     domain.KindStyle,
				Path:     "css/main.css",
				Contents: req.Entries[0].Contents,
			}}}, nil
		},
	)

	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindStyle, nil, io.Discard, noCache)
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", h.read(t, "css/main.css"))
}

func TestPipeline_CompileErrorPolicy(t *testing.T) {
	compileErr := errors.New("unexpected token")

	tests := []struct {
		name    string
		policy  domain.ErrorPolicy
		wantErr bool
	}{
		{name: "notify continues", policy: domain.PolicyNotify},
		{name: "fail returns the error", policy: domain.PolicyFail, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			cfg := h.config(t, func(b *domain.Builder) { b.SetErrorPolicy(tt.policy) })

			h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).Return(ports.CompileResult{}, compileErr)
			h.notifier.EXPECT().Notify(domain.Notification{
				Title: "script compilation failed",
				Task:  "scripts",
				Err:   compileErr,
			}).Times(1)

			res, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, noCache)
			if tt.wantErr {
				require.ErrorIs(t, err, compileErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Failed)
			assert.NoDirExists(t, h.dest)
		})
	}
}

func TestPipeline_PreprocessFailure(t *testing.T) {
	h := newHarness(t)
	scss := h.source(t, "main.scss", "body {")
	cfg := h.config(t, func(b *domain.Builder) {
		b.AddStyleEntry(scss, "main").SetErrorPolicy(domain.PolicyFail)
	})

	h.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("exit status 65"))
	h.notifier.EXPECT().Notify(gomock.Any()).Times(1)

	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindStyle, nil, io.Discard, noCache)
	require.ErrorContains(t, err, domain.ErrPreprocessFailed.Error())
}

func TestPipeline_DuplicateArtifact(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) {
		b.WriteManifest(true).SetErrorPolicy(domain.PolicyFail)
	})

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(
		script("main", "js/main.js", "a"),
		script("main", "js/other/main.js", "b"),
	))
	h.notifier.EXPECT().Notify(gomock.Any()).Times(1)

	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, domain.NewManifest(), io.Discard, noCache)
	require.ErrorContains(t, err, domain.ErrDuplicateArtifact.Error())
}

func TestPipeline_Cache(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) { b.WriteManifest(true) })

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(
		script("main", "js/main.js", "main();"),
	)).Times(1)

	first, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, domain.NewManifest(), io.Discard, pipeline.Options{})
	require.NoError(t, err)
	require.False(t, first.Cached)

	require.NoError(t, os.RemoveAll(h.dest))

	manifest := domain.NewManifest()
	var out bytes.Buffer
	second, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, manifest, &out, pipeline.Options{})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.BuildHash, second.BuildHash)
	assert.Equal(t, "main();", h.read(t, manifest.Entries()["main.js"]))
	assert.Contains(t, out.String(), "restored 1 file(s) from cache")
}

func TestPipeline_CacheInvalidatedBySourceChange(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, nil)

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(
		script("main", "js/main.js", "main();"),
	)).Times(2)

	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, pipeline.Options{})
	require.NoError(t, err)

	h.source(t, "lib/util.js", "export const x = 1")

	res, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, pipeline.Options{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestPipeline_CacheInvalidatedByImportOutsideSource(t *testing.T) {
	h := newHarness(t)
	lib := filepath.Join(h.root, "vendor", "lib.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(lib), domain.DirPerm))
	require.NoError(t, os.WriteFile(lib, []byte("export const x = 42"), domain.FilePerm))

	cfg, err := domain.NewBuilder("").
		SetDestinationPath(h.dest).
		SetScriptDir("js").
		AddScriptEntry(h.source(t, "main.js", "import { x } from '../vendor/lib.js'"), "main").
		Build()
	require.NoError(t, err)
	require.Empty(t, cfg.SourcePath())

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiledFrom(
		[]string{lib}, script("main", "js/main.js", "var x = 42;"),
	)).Times(2)

	_, err = h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, pipeline.Options{})
	require.NoError(t, err)

	cached, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, pipeline.Options{})
	require.NoError(t, err)
	require.True(t, cached.Cached, "unchanged imports hit the cache")

	require.NoError(t, os.WriteFile(lib, []byte("export const x = 99"), domain.FilePerm))

	res, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, pipeline.Options{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestPipeline_CacheMissWhenImportRemoved(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, nil)
	lib := filepath.Join(h.root, "vendor", "util.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(lib), domain.DirPerm))
	require.NoError(t, os.WriteFile(lib, []byte("export const x = 1"), domain.FilePerm))

	h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiledFrom(
		[]string{lib}, script("main", "js/main.js", "main();"),
	)).Times(2)

	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, pipeline.Options{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(lib))

	res, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, nil, io.Discard, pipeline.Options{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestPipeline_RemovesStaleOutputs(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, func(b *domain.Builder) {
		b.WriteManifest(true).SetHashMode(domain.HashContent)
	})

	gomock.InOrder(
		h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(script("main", "js/main.js", "v1"))),
		h.compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(compiled(script("main", "js/main.js", "v2"))),
	)

	manifest := domain.NewManifest()
	_, err := h.pipeline.Run(context.Background(), cfg, domain.KindScript, manifest, io.Discard, noCache)
	require.NoError(t, err)
	v1 := manifest.Entries()["main.js"]

	_, err = h.pipeline.Run(context.Background(), cfg, domain.KindScript, manifest, io.Discard, noCache)
	require.NoError(t, err)
	v2 := manifest.Entries()["main.js"]

	require.NotEqual(t, v1, v2)
	assert.NoFileExists(t, filepath.Join(h.dest, filepath.FromSlash(v1)))
	assert.Equal(t, "v2", h.read(t, v2))
}

func TestPipeline_NoEntries(t *testing.T) {
	h := newHarness(t)
	cfg := h.config(t, nil)

	res, err := h.pipeline.Run(context.Background(), cfg, domain.KindStyle, nil, io.Discard, noCache)
	require.NoError(t, err)
	assert.Empty(t, res.Artifacts)
}

func TestSteps(t *testing.T) {
	h := newHarness(t)
	scss := h.source(t, "main.scss", "")

	tests := []struct {
		name      string
		configure func(*domain.Builder)
		kind      domain.AssetKind
		want      []domain.Step
	}{
		{
			name: "plain",
			kind: domain.KindScript,
			want: []domain.Step{domain.StepCompile, domain.StepWrite},
		},
		{
			name:      "minify",
			configure: func(b *domain.Builder) { b.UseMinify(true) },
			kind:      domain.KindScript,
			want:      []domain.Step{domain.StepCompile, domain.StepMinify, domain.StepWrite},
		},
		{
			name:      "everything",
			configure: func(b *domain.Builder) { b.UseMinify(true).WriteSourcemap(true).WriteManifest(true) },
			kind:      domain.KindScript,
			want: []domain.Step{
				domain.StepCompile, domain.StepMinify, domain.StepSourcemaps, domain.StepMemoize, domain.StepWrite,
			},
		},
		{
			name: "inline sourcemaps need no extraction",
			configure: func(b *domain.Builder) {
				b.WriteSourcemap(true).SetSourcemapStyle(domain.SourcemapInline)
			},
			kind: domain.KindScript,
			want: []domain.Step{domain.StepCompile, domain.StepWrite},
		},
		{
			name:      "preprocessed styles",
			configure: func(b *domain.Builder) { b.AddStyleEntry(scss, "main") },
			kind:      domain.KindStyle,
			want:      []domain.Step{domain.StepPreprocess, domain.StepCompile, domain.StepWrite},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := h.config(t, tt.configure)
			assert.Equal(t, tt.want, pipeline.Steps(cfg, tt.kind))
		})
	}
}
