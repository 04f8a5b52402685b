package graph

import (
	"maps"

	"github.com/chazu/kubegraph/pkg/resource"
)

// Description is a renderable form of a Graph: display labels and styling
// hints per node and edge, in the graph's deterministic order
type Description struct {
	Name       string            `json:"name"`
	Hash       string            `json:"hash,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Nodes      []DescribedNode   `json:"nodes"`
	Edges      []DescribedEdge   `json:"edges"`
}

// DescribedNode is a node ready to draw
type DescribedNode struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Kind       resource.Kind     `json:"kind"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// DescribedEdge is an edge ready to draw
type DescribedEdge struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Relation   Relation          `json:"relation"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Styles holds drawing attributes: graph-wide, per node kind and per relation
type Styles struct {
	Graph map[string]string
	Nodes map[resource.Kind]map[string]string
	Edges map[Relation]map[string]string
}

// LineStyle returns the line style a relation is drawn with
func LineStyle(r Relation) string {
	switch r {
	case RelationOwns:
		return "solid"
	case RelationSelects:
		return "dashed"
	case RelationRoutesTo:
		return "dotted"
	default:
		return "solid"
	}
}

// Describe turns a Graph into a Description. Node labels are "<kind>: <name>"
// and each relation gets its line style; styles add to (and may override)
// those attributes. Nodes are listed in topological order so every edge
// points forward; edges keep the graph's order.
func Describe(g *Graph, styles Styles) (*Description, error) {
	nodes, err := drawOrder(g)
	if err != nil {
		return nil, err
	}

	desc := &Description{
		Name:       g.Metadata.Name,
		Hash:       g.Metadata.Hash,
		Attributes: maps.Clone(styles.Graph),
		Nodes:      make([]DescribedNode, 0, len(g.Nodes)),
		Edges:      make([]DescribedEdge, 0, len(g.Edges)),
	}

	for _, n := range nodes {
		attrs := map[string]string{}
		maps.Copy(attrs, styles.Nodes[n.Kind])
		attrs["label"] = n.DisplayLabel()

		desc.Nodes = append(desc.Nodes, DescribedNode{
			ID:         n.Key().String(),
			Label:      n.DisplayLabel(),
			Kind:       n.Kind,
			Attributes: attrs,
		})
	}

	for _, e := range g.Edges {
		label := string(e.Relation)
		if e.Label != "" {
			label = e.Label
		}
		attrs := map[string]string{
			"style": LineStyle(e.Relation),
			"label": label,
		}
		maps.Copy(attrs, styles.Edges[e.Relation])

		desc.Edges = append(desc.Edges, DescribedEdge{
			From:       e.From.String(),
			To:         e.To.String(),
			Relation:   e.Relation,
			Attributes: attrs,
		})
	}

	return desc, nil
}

// drawOrder returns the nodes in topological order. Owner references can
// form a loop, in which case the graph's key order is used.
func drawOrder(g *Graph) ([]resource.Node, error) {
	topo, err := g.Topology()
	if err != nil {
		return nil, err
	}
	keys, err := topo.Sort()
	if err != nil {
		return g.Nodes, nil
	}

	byKey := make(map[resource.Key]resource.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byKey[n.Key()] = n
	}
	nodes := make([]resource.Node, len(keys))
	for i, k := range keys {
		nodes[i] = byKey[k]
	}
	return nodes, nil
}
