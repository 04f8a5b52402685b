package graph

import (
	"fmt"
)

// Validate checks the integrity of the Graph
func (g *Graph) Validate() error {
	if g.Metadata.Name == "" {
		return fmt.Errorf("graph metadata.name is required")
	}

	// Check for duplicate node keys
	keys := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if node.Kind == "" || node.Name == "" {
			return fmt.Errorf("node kind and name are required: %+v", node.Key())
		}
		k := node.Key().String()
		if keys[k] {
			return fmt.Errorf("duplicate node: %s", k)
		}
		keys[k] = true
	}

	// Every edge must connect two nodes of this graph
	for _, edge := range g.Edges {
		if err := edge.Validate(keys); err != nil {
			return fmt.Errorf("edge %s: %w", edge, err)
		}
	}

	return nil
}

// Validate checks the integrity of an Edge against the set of node keys
func (e *Edge) Validate(nodeKeys map[string]bool) error {
	switch e.Relation {
	case RelationOwns, RelationSelects, RelationRoutesTo:
		// Valid
	default:
		return fmt.Errorf("invalid relation: %s", e.Relation)
	}

	if !nodeKeys[e.From.String()] {
		return fmt.Errorf("source %s does not exist", e.From)
	}
	if !nodeKeys[e.To.String()] {
		return fmt.Errorf("target %s does not exist", e.To)
	}
	if e.From == e.To {
		return fmt.Errorf("self-referencing edge")
	}

	return nil
}
