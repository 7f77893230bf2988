package watcher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/meister/internal/adapters/logger"
	"go.trai.ch/meister/internal/core/ports"
)

const (
	// WatcherNodeID is the unique identifier for the file watcher Graft node.
	WatcherNodeID graft.ID = "adapter.watcher"
	// DebouncerNodeID is the unique identifier for the debouncer factory Graft node.
	DebouncerNodeID graft.ID = "adapter.debouncer"
)

func init() {
	// Not cacheable: a watcher cannot be restarted after Stop.
	graft.Register(graft.Node[ports.Watcher]{
		ID:        WatcherNodeID,
		Cacheable: false,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Watcher, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			w, err := NewWatcher(log)
			if err != nil {
				return nil, err
			}
			return w, nil
		},
	})

	graft.Register(graft.Node[ports.DebouncerFactory]{
		ID:        DebouncerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DebouncerFactory, error) {
			return NewDebouncerFactory(DefaultDebounceWindow), nil
		},
	})
}
