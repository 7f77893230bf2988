package cas_test

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/meister/internal/adapters/cas"
	"go.trai.ch/meister/internal/core/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	store := cas.NewStore(filepath.Join(t.TempDir(), "store"))

	info := domain.BuildInfo{
		TaskName:  "styles",
		InputHash: "abc",
		BuildHash: "def",
		Inputs:    []string{"/project/src/styles/_vars.css"},
		Artifacts: []domain.Artifact{
			{Entry: domain.NewInternedString("main"), Kind: domain.KindStyle, Path: "css/main.css", Contents: []byte("body{}")},
			{Kind: domain.KindStyle, Path: "css/logo.png", Contents: []byte{0x89, 0x50}},
		},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Put(info))

	got, err := store.Get("styles")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, info.InputHash, got.InputHash)
	assert.Equal(t, info.BuildHash, got.BuildHash)
	assert.Equal(t, info.Inputs, got.Inputs)
	assert.True(t, info.Timestamp.Equal(got.Timestamp))
	require.Len(t, got.Artifacts, 2)
	assert.Equal(t, "main", got.Artifacts[0].Entry.String())
	assert.True(t, got.Artifacts[0].HasEntry())
	assert.False(t, got.Artifacts[1].HasEntry())
	assert.Equal(t, info.Artifacts[1].Contents, got.Artifacts[1].Contents)
}

func TestStore_GetMissing(t *testing.T) {
	store := cas.NewStore(filepath.Join(t.TempDir(), "store"))

	got, err := store.Get("scripts")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_GetCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := cas.NewStore(dir)

	hash := sha256.Sum256([]byte("styles"))
	filename := filepath.Join(dir, hex.EncodeToString(hash[:])+".json")
	require.NoError(t, os.WriteFile(filename, []byte("{not json"), domain.FilePerm))

	_, err := store.Get("styles")
	require.ErrorContains(t, err, domain.ErrStoreUnmarshalFailed.Error())
}

func TestStore_PutOverwrites(t *testing.T) {
	store := cas.NewStore(filepath.Join(t.TempDir(), "store"))

	require.NoError(t, store.Put(domain.BuildInfo{TaskName: "scripts", InputHash: "v1"}))
	require.NoError(t, store.Put(domain.BuildInfo{TaskName: "scripts", InputHash: "v2"}))

	got, err := store.Get("scripts")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.InputHash)
}

func TestStore_Purge(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	store := cas.NewStore(dir)

	require.NoError(t, store.Put(domain.BuildInfo{TaskName: "styles", InputHash: "v1"}))
	require.NoError(t, store.Purge())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	got, err := store.Get("styles")
	require.NoError(t, err)
	assert.Nil(t, got)
}
