package esbuild

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/meister/internal/core/ports"
)

const (
	// CompilerNodeID is the unique identifier for the compiler Graft node.
	CompilerNodeID graft.ID = "adapter.compiler"
	// MinifierNodeID is the unique identifier for the minifier Graft node.
	MinifierNodeID graft.ID = "adapter.minifier"
)

func init() {
	graft.Register(graft.Node[ports.Compiler]{
		ID:        CompilerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Compiler, error) {
			compiler, err := NewCompiler("")
			if err != nil {
				return nil, err
			}
			return compiler, nil
		},
	})

	graft.Register(graft.Node[ports.Minifier]{
		ID:        MinifierNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Minifier, error) {
			return NewMinifier(), nil
		},
	})
}
