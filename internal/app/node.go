package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/meister/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/meister/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/meister/internal/adapters/devserver" //nolint:depguard // Wired in app layer
	"go.trai.ch/meister/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/meister/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/meister/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/meister/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/meister/internal/engine/pipeline"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			pipeline.NodeID,
			fs.OutputNodeID,
			cas.NodeID,
			watcher.WatcherNodeID,
			watcher.DebouncerNodeID,
			devserver.NodeID,
			metrics.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	pipe, err := graft.Dep[*pipeline.Pipeline](ctx)
	if err != nil {
		return nil, err
	}

	output, err := graft.Dep[ports.OutputWriter](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.BuildInfoStore](ctx)
	if err != nil {
		return nil, err
	}

	watch, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	debounce, err := graft.Dep[ports.DebouncerFactory](ctx)
	if err != nil {
		return nil, err
	}

	server, err := graft.Dep[ports.DevServer](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, pipe, output, store, watch, debounce, server, recorder, log), nil
}
