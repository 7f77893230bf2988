package ports

import "go.trai.ch/meister/internal/core/domain"

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path and replays it onto a new builder.
	// The builder is returned unfinalized so callers can apply overrides before Build.
	Load(path string) (*domain.Builder, error)
}
