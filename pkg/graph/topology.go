package graph

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"

	"github.com/chazu/kubegraph/pkg/resource"
)

// Topology is the directed graph view of a Graph, keyed by node key string
type Topology struct {
	// graph is the underlying graph structure from dominikbraun/graph
	graph graph.Graph[string, resource.Node]

	// keys maps vertex hashes back to node keys for ordering
	keys map[string]resource.Key
}

func nodeHash(n resource.Node) string {
	return n.Key().String()
}

// Topology converts the Graph into a dominikbraun/graph directed graph.
// Adding an edge fails when either endpoint is missing, so a Topology can
// only be built from a graph without dangling edges.
func (g *Graph) Topology() (*Topology, error) {
	dg := graph.New(nodeHash, graph.Directed())
	keys := make(map[string]resource.Key, len(g.Nodes))

	for _, n := range g.Nodes {
		if err := dg.AddVertex(n, graph.VertexAttribute("kind", string(n.Kind))); err != nil {
			return nil, fmt.Errorf("failed to add vertex %s: %w", n.Key(), err)
		}
		keys[nodeHash(n)] = n.Key()
	}

	for _, e := range g.Edges {
		err := dg.AddEdge(e.From.String(), e.To.String(), graph.EdgeAttribute("relation", string(e.Relation)))
		if errors.Is(err, graph.ErrEdgeAlreadyExists) {
			// A second relation between the same pair keeps the first one
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to add edge %s: %w", e, err)
		}
	}

	return &Topology{graph: dg, keys: keys}, nil
}

// Sort returns the node keys with every edge source ahead of its target:
// Ingresses before Services, owners before what they own, Services before
// Pods. Nodes that become ready together are ordered by key. It fails when
// the edges form a cycle.
func (t *Topology) Sort() ([]resource.Key, error) {
	order, err := graph.StableTopologicalSort(t.graph, func(a, b string) bool {
		return t.keys[a].Compare(t.keys[b]) < 0
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute topological sort (possible cycle): %w", err)
	}

	keys := make([]resource.Key, len(order))
	for i, id := range order {
		keys[i] = t.keys[id]
	}
	return keys, nil
}
