package ports

import (
	"context"

	"go.trai.ch/meister/internal/core/domain"
)

// DevServer serves the built assets and pushes reloads to connected browsers.
//
//go:generate mockgen -source=devserver.go -destination=mocks/mock_devserver.go -package=mocks
type DevServer interface {
	// Listen binds the listener and returns the bound address.
	Listen(cfg domain.DevServer) (string, error)
	// Serve handles requests until ctx is cancelled, then shuts down gracefully.
	Serve(ctx context.Context) error
	// Reload tells connected browsers that the build with the given hash is ready.
	Reload(hash string)
}
