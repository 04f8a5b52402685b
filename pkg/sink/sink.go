package sink

import (
	"context"

	"github.com/chazu/kubegraph/pkg/graph"
)

// Sink receives a completed graph
type Sink interface {
	Export(ctx context.Context, g *graph.Graph) error
}
