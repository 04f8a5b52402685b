package sink

import (
	"fmt"
	"strings"

	"github.com/chazu/kubegraph/pkg/graph"
	"github.com/chazu/kubegraph/pkg/resource"
)

// DefaultBatchSize is the number of rows sent per statement
const DefaultBatchSize = 1000

// Statement is a parameterised Cypher statement
type Statement struct {
	Cypher string
	Params map[string]any
}

// RelationshipType returns the Neo4j relationship type for a relation
func RelationshipType(r graph.Relation) string {
	switch r {
	case graph.RelationOwns:
		return "OWNS"
	case graph.RelationSelects:
		return "SELECTS"
	case graph.RelationRoutesTo:
		return "ROUTES_TO"
	default:
		return strings.ToUpper(string(r))
	}
}

// Statements returns the statements that merge g into a database: nodes
// grouped by kind first, then relationships grouped by relation, each group
// split into batches of at most batchSize rows. Labels and relationship
// types cannot be parameters, so they are part of the statement text; both
// come from closed sets.
func Statements(g *graph.Graph, batchSize int) []Statement {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	var stmts []Statement

	byKind := map[resource.Kind][]map[string]any{}
	for _, n := range g.Nodes {
		byKind[n.Kind] = append(byKind[n.Kind], nodeRow(n))
	}
	for _, kind := range resource.AllKinds() {
		cypher := fmt.Sprintf(`UNWIND $rows AS row
MERGE (n:K8s:%s {key: row.key})
SET n.kind = row.kind, n.namespace = row.namespace, n.name = row.name, n.graph = $graph`, kind)
		stmts = append(stmts, batch(cypher, g.Metadata.Name, byKind[kind], batchSize)...)
	}

	byRelation := map[graph.Relation][]map[string]any{}
	for _, e := range g.Edges {
		byRelation[e.Relation] = append(byRelation[e.Relation], map[string]any{
			"from": e.From.String(),
			"to":   e.To.String(),
		})
	}
	for _, r := range graph.Relations() {
		cypher := fmt.Sprintf(`UNWIND $rows AS row
MATCH (src:K8s {key: row.from})
MATCH (dst:K8s {key: row.to})
MERGE (src)-[:%s]->(dst)`, RelationshipType(r))
		stmts = append(stmts, batch(cypher, g.Metadata.Name, byRelation[r], batchSize)...)
	}

	return stmts
}

func nodeRow(n resource.Node) map[string]any {
	return map[string]any{
		"key":       n.Key().String(),
		"kind":      string(n.Kind),
		"namespace": n.Namespace,
		"name":      n.Name,
	}
}

func batch(cypher, graphName string, rows []map[string]any, size int) []Statement {
	var stmts []Statement
	for i := 0; i < len(rows); i += size {
		end := min(i+size, len(rows))
		stmts = append(stmts, Statement{
			Cypher: cypher,
			Params: map[string]any{"rows": rows[i:end], "graph": graphName},
		})
	}
	return stmts
}
