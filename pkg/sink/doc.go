// Package sink exports a built graph to external stores.
//
// The Neo4j sink merges one node per resource and one relationship per edge,
// so exporting the same graph twice leaves the database unchanged.
package sink
