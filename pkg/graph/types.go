package graph

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/chazu/kubegraph/pkg/resource"
)

// Relation is the kind of relationship an edge represents
type Relation string

const (
	// RelationOwns links an owner to a resource it created (owner references)
	RelationOwns Relation = "owns"

	// RelationSelects links a Service to a Pod matched by its selector
	RelationSelects Relation = "selects"

	// RelationRoutesTo links an Ingress to a backend Service
	RelationRoutesTo Relation = "routesTo"
)

// Relations returns every relation in a fixed order
func Relations() []Relation {
	return []Relation{RelationOwns, RelationSelects, RelationRoutesTo}
}

// Edge is a directed relationship between two nodes
type Edge struct {
	From     resource.Key `json:"from"`
	To       resource.Key `json:"to"`
	Relation Relation     `json:"relation"`

	// Label replaces the relation name when drawing. For routesTo it holds
	// the Ingress paths routed to the Service.
	Label string `json:"label,omitempty"`
}

// Compare orders edges by source, then target, then relation
func (e Edge) Compare(other Edge) int {
	return cmp.Or(
		e.From.Compare(other.From),
		e.To.Compare(other.To),
		cmp.Compare(e.Relation, other.Relation),
	)
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.From, e.Relation, e.To)
}

// Graph is the resolved resource graph of one run
type Graph struct {
	// Metadata contains information about the graph
	Metadata GraphMetadata `json:"metadata"`

	// Nodes contains every fetched resource, sorted by key
	Nodes []resource.Node `json:"nodes"`

	// Edges contains every resolved relationship, sorted
	Edges []Edge `json:"edges"`
}

// GraphMetadata contains metadata about the graph
type GraphMetadata struct {
	// Name is a human-readable name for the graph
	Name string `json:"name"`

	// Hash is a digest of nodes and edges
	Hash string `json:"hash,omitempty"`
}

// New sorts the nodes and edges, validates the result and computes its hash.
// The input slices are not modified.
func New(name string, nodes []resource.Node, edges []Edge) (*Graph, error) {
	sortedNodes := slices.Clone(nodes)
	slices.SortFunc(sortedNodes, func(a, b resource.Node) int {
		return a.Key().Compare(b.Key())
	})

	sortedEdges := slices.Clone(edges)
	slices.SortFunc(sortedEdges, Edge.Compare)
	sortedEdges = slices.Compact(sortedEdges)

	g := &Graph{
		Metadata: GraphMetadata{Name: name},
		Nodes:    sortedNodes,
		Edges:    sortedEdges,
	}
	if g.Nodes == nil {
		g.Nodes = []resource.Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph validation failed: %w", err)
	}

	g.SetHash()
	return g, nil
}

// ComputeHash computes a hash of the nodes and edges
func (g *Graph) ComputeHash() string {
	type hashableGraph struct {
		Nodes []resource.Node `json:"nodes"`
		Edges []Edge          `json:"edges"`
	}

	data, err := json.Marshal(hashableGraph{Nodes: g.Nodes, Edges: g.Edges})
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%x", xxhash.Sum64(data))
}

// SetHash computes and sets the Hash field
func (g *Graph) SetHash() {
	g.Metadata.Hash = g.ComputeHash()
}

// EdgeCounts returns the number of edges per relation
func (g *Graph) EdgeCounts() map[Relation]int {
	counts := make(map[Relation]int, len(Relations()))
	for _, e := range g.Edges {
		counts[e.Relation]++
	}
	return counts
}
