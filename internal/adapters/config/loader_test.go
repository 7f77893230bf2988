package config_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/meister/internal/adapters/config"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const fullConfig = `
version: "1"
task: assets
source: src
destination: dist
styles:
  dir: css
  entries:
    - path: src/styles/main.scss
      name: main
    - path: src/styles/pages/*.scss
scripts:
  dir: js
  entries:
    - path: src/scripts/app.js
bundler:
  format: esm
  splitting: true
  define:
    DEBUG: "false"
minifier:
  target: es2020
preprocessor:
  command: [sass, "{input}"]
  extensions: [.scss]
devServer:
  port: 8080
flags:
  minify: true
  manifest: true
hash: content
errors: fail
`

func newLoader(t *testing.T, workDir string, files fstest.MapFS) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()

	return &config.Loader{
		Logger:  log,
		FS:      config.NewMapFSAdapter("/project", files),
		WorkDir: workDir,
	}, log
}

func projectFiles(configBody string) fstest.MapFS {
	return fstest.MapFS{
		"meister.yaml":                   {Data: []byte(configBody)},
		"src/styles/main.scss":           {Data: []byte("body{}")},
		"src/styles/pages/about.scss":    {Data: []byte(".about{}")},
		"src/styles/pages/contact.scss":  {Data: []byte(".contact{}")},
		"src/styles/pages/notes.md":      {Data: []byte("# notes")},
		"src/scripts/app.js":             {Data: []byte("run()")},
		"src/scripts/components/menu.js": {Data: []byte("menu()")},
	}
}

func TestLoader_Load(t *testing.T) {
	loader, _ := newLoader(t, "/project", projectFiles(fullConfig))

	b, err := loader.Load("")
	require.NoError(t, err)

	cfg, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "assets", cfg.TaskName())
	assert.Equal(t, "/project/src", cfg.SourcePath())
	assert.Equal(t, "/project/dist", cfg.Destination())
	assert.Equal(t, "css", cfg.StyleDir())
	assert.Equal(t, "js", cfg.ScriptDir())
	assert.Equal(t, domain.EntryMap{
		"main":    "/project/src/styles/main.scss",
		"about":   "/project/src/styles/pages/about.scss",
		"contact": "/project/src/styles/pages/contact.scss",
	}, cfg.StyleEntries())
	assert.Equal(t, domain.EntryMap{"app": "/project/src/scripts/app.js"}, cfg.ScriptEntries())

	assert.Equal(t, "esm", cfg.Bundler().Get("format").String())
	assert.True(t, cfg.Bundler().Get("splitting").Bool())
	assert.Equal(t, map[string]string{"DEBUG": "false"}, cfg.Bundler().StringMap("define"))
	assert.Equal(t, "production", cfg.Bundler().Get("mode").String())
	assert.Equal(t, "es2020", cfg.Minifier().Get("target").String())

	assert.Equal(t, []string{"sass", "{input}"}, cfg.Preprocessor().Command)
	assert.Equal(t, domain.Flags{Minify: true, Manifest: true}, cfg.Flags())
	assert.Equal(t, domain.HashContent, cfg.HashMode())
	assert.Equal(t, domain.PolicyFail, cfg.ErrorPolicy())
	assert.Equal(t, 8080, cfg.DevServer().Port)
	assert.Equal(t, domain.DefaultDevServerHost, cfg.DevServer().Host)
	assert.Equal(t, "/project/dist", cfg.DevServer().Root)
}

func TestLoader_Load_SearchesParentDirectories(t *testing.T) {
	files := projectFiles(fullConfig)
	files["web/theme/.keep"] = &fstest.MapFile{}

	loader, _ := newLoader(t, "/project/web/theme", files)

	b, err := loader.Load(domain.ConfigFileName)
	require.NoError(t, err)

	cfg, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "/project/dist", cfg.Destination(), "paths resolve against the config file directory")
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		files       fstest.MapFS
		errContains string
	}{
		{
			name:        "explicit path not found",
			path:        "configs/meister.yaml",
			files:       projectFiles(fullConfig),
			errContains: domain.ErrConfigNotFound.Error(),
		},
		{
			name:        "no config anywhere",
			path:        "",
			files:       fstest.MapFS{"src/app.js": {Data: []byte("x")}},
			errContains: domain.ErrConfigNotFound.Error(),
		},
		{
			name:        "invalid yaml",
			path:        "",
			files:       projectFiles("flags: [minify"),
			errContains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:        "wrong field type",
			path:        "",
			files:       projectFiles("devServer:\n  port: eighty\n"),
			errContains: domain.ErrConfigParseFailed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := newLoader(t, "/project", tt.files)
			_, err := loader.Load(tt.path)
			require.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestLoader_Load_ValidationHappensOnBuild(t *testing.T) {
	loader, _ := newLoader(t, "/project", projectFiles("destination: dist\nhash: sha1\nscripts:\n  entries:\n    - path: src/scripts/app.js\n"))

	b, err := loader.Load("")
	require.NoError(t, err)

	_, err = b.Build()
	require.ErrorContains(t, err, "invalid hash mode")
}

func TestLoader_Load_WarnsOnUnknownVersion(t *testing.T) {
	loader, log := newLoader(t, "/project", projectFiles("version: \"2\"\ndestination: dist\nscripts:\n  entries:\n    - path: src/scripts/app.js\n"))
	log.EXPECT().Warn(gomock.Any(), "version", "2", "path", "/project/meister.yaml")

	_, err := loader.Load("")
	require.NoError(t, err)
}

func TestLoader_Load_DisabledPreprocessor(t *testing.T) {
	loader, _ := newLoader(t, "/project", projectFiles("destination: dist\npreprocessor:\n  command: []\nstyles:\n  entries:\n    - path: src/styles/main.scss\n"))

	b, err := loader.Load("")
	require.NoError(t, err)
	cfg, err := b.Build()
	require.NoError(t, err)

	assert.False(t, cfg.Preprocessor().Applies("main.scss"))
}
