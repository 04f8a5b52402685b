// Package config loads kubegraph's configuration.
//
// The configuration is CUE. An embedded schema (#Config) declares every
// setting with its default; a user file is unified with the schema, so
// unknown fields and out-of-range values are rejected before anything runs.
//
// Example user file:
//
//	graph: rankdir: "TB"
//	kinds: ["Deployment", "ReplicaSet", "Pod", "Service"]
//	nodes: Pod: fillcolor: "lightgrey"
//	edges: selects: color: "blue"
package config
