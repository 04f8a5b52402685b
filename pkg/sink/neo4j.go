package sink

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/chazu/kubegraph/pkg/errdefs"
	"github.com/chazu/kubegraph/pkg/graph"
)

// Neo4jOptions configures the Neo4j sink
type Neo4jOptions struct {
	URI      string
	User     string
	Password string
	Database string

	// BatchSize is the number of rows per statement. Defaults to
	// DefaultBatchSize.
	BatchSize int
}

// Neo4j merges graphs into a Neo4j database
type Neo4j struct {
	opts Neo4jOptions
}

var _ Sink = &Neo4j{}

// NewNeo4j creates a Neo4j sink
func NewNeo4j(opts Neo4jOptions) *Neo4j {
	return &Neo4j{opts: opts}
}

// Export writes g in one write transaction per statement. Failures are
// returned as *errdefs.ConnectivityError.
func (s *Neo4j) Export(ctx context.Context, g *graph.Graph) error {
	logger := log.FromContext(ctx).WithValues("uri", s.opts.URI, "database", s.opts.Database)

	if err := s.export(ctx, g); err != nil {
		return &errdefs.ConnectivityError{Endpoint: "neo4j at " + s.opts.URI, Err: err}
	}

	logger.Info("Exported graph to Neo4j", "nodes", len(g.Nodes), "edges", len(g.Edges))
	return nil
}

func (s *Neo4j) export(ctx context.Context, g *graph.Graph) error {
	driver, err := neo4j.NewDriverWithContext(s.opts.URI, neo4j.BasicAuth(s.opts.User, s.opts.Password, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j connectivity: %w", err)
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.opts.Database})
	defer session.Close(ctx)

	for _, stmt := range Statements(g, s.opts.BatchSize) {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt.Cypher, stmt.Params)
			return nil, err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
