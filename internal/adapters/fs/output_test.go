package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/meister/internal/adapters/fs"
	"go.trai.ch/meister/internal/core/domain"
)

func TestOutputWriter_WriteAndRemove(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "dist")
	w := fs.NewOutputWriter()

	artifacts := []domain.Artifact{
		{Path: "css/main.css", Contents: []byte("body{}")},
		{Path: "js/main.js", Contents: []byte("run()")},
		{Path: "js/main.js.map", Contents: []byte("{}"), IsMap: true},
	}
	require.NoError(t, w.Write(dest, artifacts))

	for _, a := range artifacts {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(a.Path)))
		require.NoError(t, err)
		assert.Equal(t, a.Contents, got)
	}

	require.NoError(t, w.Remove(dest, []string{"js/main.js.map", "js/never-written.js"}))
	_, err := os.Stat(filepath.Join(dest, "js", "main.js.map"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Join(dest, "js"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestOutputWriter_RejectsEscapingPaths(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "dist")
	w := fs.NewOutputWriter()

	for _, p := range []string{"../outside.js", "css/../../outside.css"} {
		err := w.Write(dest, []domain.Artifact{{Path: p, Contents: []byte("x")}})
		require.ErrorContains(t, err, domain.ErrOutputPathOutsideDestination.Error(), p)

		err = w.Remove(dest, []string{p})
		require.ErrorContains(t, err, domain.ErrOutputPathOutsideDestination.Error(), p)
	}
}

func TestOutputWriter_Clean(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "dist")
	w := fs.NewOutputWriter()

	require.NoError(t, w.Write(dest, []domain.Artifact{{Path: "css/main.css", Contents: []byte("a")}}))
	require.NoError(t, w.Clean(dest))

	_, err := os.Stat(dest)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, w.Clean(dest), "cleaning a missing destination is not an error")
}

func TestOutputWriter_WriteManifest(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "dist")
	m := domain.NewManifest()
	m.Record(domain.KindStyle, "main", "css/main.0123456789abcdef.css")

	require.NoError(t, fs.NewOutputWriter().WriteManifest(dest, m))

	got, err := os.ReadFile(domain.ManifestPath(dest))
	require.NoError(t, err)
	assert.JSONEq(t, `{"main.css": "css/main.0123456789abcdef.css"}`, string(got))
}
