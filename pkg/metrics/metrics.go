/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Fetch metrics
	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kubegraph_fetch_duration_seconds",
		Help:    "Duration of resource list calls against the API server",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"kind", "result"})

	fetchedObjects = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kubegraph_fetched_objects",
		Help: "Number of objects returned by the last list call per kind",
	}, []string{"kind"})

	// Graph metrics
	edgesResolved = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kubegraph_edges_resolved",
		Help: "Number of edges inferred per relation",
	}, []string{"relation"})

	graphNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kubegraph_graph_nodes",
		Help: "Number of nodes in the built graph",
	})

	// Render metrics
	renderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kubegraph_render_duration_seconds",
		Help:    "Duration of graph rendering",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
	}, []string{"format", "result"})
)

func init() {
	// Register with controller-runtime's registry
	metrics.Registry.MustRegister(
		fetchDuration,
		fetchedObjects,
		edgesResolved,
		graphNodes,
		renderDuration,
	)
}

// Result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// RecordFetch records one list call for a kind
func RecordFetch(kind, result string, durationSeconds float64, objects int) {
	fetchDuration.WithLabelValues(kind, result).Observe(durationSeconds)
	if result == ResultSuccess {
		fetchedObjects.WithLabelValues(kind).Set(float64(objects))
	}
}

// SetEdges sets the number of resolved edges for a relation
func SetEdges(relation string, count int) {
	edgesResolved.WithLabelValues(relation).Set(float64(count))
}

// SetNodes sets the number of nodes in the graph
func SetNodes(count int) {
	graphNodes.Set(float64(count))
}

// RecordRender records one render
func RecordRender(format, result string, durationSeconds float64) {
	renderDuration.WithLabelValues(format, result).Observe(durationSeconds)
}

// WriteTextfile dumps every registered metric to path in the Prometheus text
// format, for node-exporter's textfile collector or a CI artifact
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, metrics.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Result maps an error to a result label value
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
