// Package fetch lists the workload, networking and pod objects of one
// namespace (or the whole cluster) and converts them into graph nodes.
//
// A Fetcher either returns every enabled kind or an error; it never returns
// a partial set of nodes. Errors are classified with package errdefs.
package fetch
