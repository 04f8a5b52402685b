// Package graph holds the resource graph of a namespace: the fetched nodes,
// the inferred edges between them, and the renderable description derived
// from both. It validates that every edge has both endpoints in the node set
// and hashes the graph so identical cluster state is recognisable.
package graph
