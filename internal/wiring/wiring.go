// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/meister/internal/adapters/cas"
	_ "go.trai.ch/meister/internal/adapters/config"
	_ "go.trai.ch/meister/internal/adapters/devserver"
	_ "go.trai.ch/meister/internal/adapters/esbuild"
	_ "go.trai.ch/meister/internal/adapters/fs"
	_ "go.trai.ch/meister/internal/adapters/logger"
	_ "go.trai.ch/meister/internal/adapters/metrics"
	_ "go.trai.ch/meister/internal/adapters/notifier"
	_ "go.trai.ch/meister/internal/adapters/shell"
	_ "go.trai.ch/meister/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/meister/internal/app"
	_ "go.trai.ch/meister/internal/engine/pipeline"
)
