package devserver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/meister/internal/adapters/logger"
	"go.trai.ch/meister/internal/adapters/metrics"
	"go.trai.ch/meister/internal/core/ports"
)

// NodeID is the unique identifier for the dev server Graft node.
const NodeID graft.ID = "adapter.devserver"

func init() {
	graft.Register(graft.Node[ports.DevServer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, metrics.NodeID},
		Run: func(ctx context.Context) (ports.DevServer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}
			return NewServer(log, m), nil
		},
	})
}
