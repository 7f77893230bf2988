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

// writeTree creates files (slash separated paths relative to root) with their name as content.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
		require.NoError(t, os.WriteFile(path, []byte(f), domain.FilePerm))
	}
}

func TestWalker_WalkFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		".git/config",
		"node_modules/lib/index.js",
		".meister/store/abc.json",
		"ignored/file",
		"styles/main.scss",
		"scripts/app.js",
	)

	files := make([]string, 0)
	for path := range fs.NewWalker().WalkFiles(root, []string{"ignored"}) {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
	}

	assert.ElementsMatch(t, []string{"styles/main.scss", "scripts/app.js"}, files)
}

func TestWalker_WalkFiles_EarlyStop(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.js", "b.js", "c.js")

	count := 0
	for range fs.NewWalker().WalkFiles(root, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
