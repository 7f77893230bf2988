package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/meister/internal/adapters/cas"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/meister/internal/adapters/esbuild"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/meister/internal/adapters/fs"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/meister/internal/adapters/logger"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/meister/internal/adapters/metrics"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/meister/internal/adapters/notifier" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/meister/internal/adapters/shell"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/meister/internal/core/ports"
)

// NodeID is the unique identifier for the pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[*Pipeline]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			esbuild.CompilerNodeID,
			esbuild.MinifierNodeID,
			shell.NodeID,
			fs.HasherNodeID,
			fs.ResolverNodeID,
			cas.NodeID,
			fs.OutputNodeID,
			notifier.NodeID,
			metrics.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Pipeline, error) {
			compiler, err := graft.Dep[ports.Compiler](ctx)
			if err != nil {
				return nil, err
			}

			minifier, err := graft.Dep[ports.Minifier](ctx)
			if err != nil {
				return nil, err
			}

			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.BuildInfoStore](ctx)
			if err != nil {
				return nil, err
			}

			output, err := graft.Dep[ports.OutputWriter](ctx)
			if err != nil {
				return nil, err
			}

			notify, err := graft.Dep[ports.Notifier](ctx)
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

			return New(compiler, minifier, executor, hasher, resolver, store, output, notify, recorder, log), nil
		},
	})
}
