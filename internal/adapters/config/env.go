package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/zerr"
)

// Environment variables that provide CLI flag defaults.
const (
	EnvProduction = "MEISTER_PRODUCTION"
	EnvWatch      = "MEISTER_WATCH"
	EnvServe      = "MEISTER_SERVE"
	EnvManifest   = "MEISTER_MANIFEST"
)

// LoadEnv loads dir/.env into the process environment. Variables that are
// already set win. A missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, domain.EnvFileName)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to load env file"), "path", path)
	}
	return nil
}

// EnvBool reads a boolean environment variable. Unset, empty and unparsable
// values yield fallback.
func EnvBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}
