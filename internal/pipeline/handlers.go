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

package pipeline

import (
	"context"

	"github.com/authzed/controller-idioms/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/chazu/kubegraph/pkg/fetch"
	"github.com/chazu/kubegraph/pkg/graph"
	"github.com/chazu/kubegraph/pkg/metrics"
	"github.com/chazu/kubegraph/pkg/relation"
	"github.com/chazu/kubegraph/pkg/render"
	"github.com/chazu/kubegraph/pkg/sink"
)

// Handler IDs for the run pipeline
const (
	FetchID   handler.Key = "fetch"
	ResolveID handler.Key = "resolve"
	BuildID   handler.Key = "build"
	RenderID  handler.Key = "render"
	ExportID  handler.Key = "export"
)

// Handlers contains the components used by each stage
type Handlers struct {
	fetcher  *fetch.Fetcher
	renderer *render.Renderer
	styles   graph.Styles
	sinks    []sink.Sink
}

// NewHandlers creates a new handler collection
func NewHandlers(
	fetcher *fetch.Fetcher,
	renderer *render.Renderer,
	styles graph.Styles,
	sinks ...sink.Sink,
) *Handlers {
	return &Handlers{
		fetcher:  fetcher,
		renderer: renderer,
		styles:   styles,
		sinks:    sinks,
	}
}

// FetchHandler lists the resources in scope
type FetchHandler struct {
	fetcher *fetch.Fetcher
	next    handler.Handler
}

func (h *FetchHandler) Handle(ctx context.Context) {
	scope := CtxScope.MustValue(ctx)

	nodes, err := h.fetcher.Fetch(ctx, scope)
	if err != nil {
		CtxOutcome.MustValue(ctx).Fail(FetchID, err)
		return
	}

	log.FromContext(ctx).Info("fetched resources", "namespace", scope.String(), "count", len(nodes))

	ctx = CtxNodes.WithValue(ctx, nodes)
	h.next.Handle(ctx)
}

// Fetch returns a handler builder for listing resources
func (r *Handlers) Fetch() handler.Builder {
	return func(next ...handler.Handler) handler.Handler {
		return handler.NewHandler(
			&FetchHandler{
				fetcher: r.fetcher,
				next:    handler.Handlers(next).MustOne(),
			},
			FetchID,
		)
	}
}

// ResolveHandler infers the edges between fetched resources
type ResolveHandler struct {
	next handler.Handler
}

func (h *ResolveHandler) Handle(ctx context.Context) {
	nodes := CtxNodes.MustValue(ctx)

	edges := relation.Resolve(nodes)

	counts := make(map[graph.Relation]int, len(graph.Relations()))
	for _, e := range edges {
		counts[e.Relation]++
	}
	for _, r := range graph.Relations() {
		metrics.SetEdges(string(r), counts[r])
	}

	log.FromContext(ctx).V(1).Info("resolved relations",
		"owns", counts[graph.RelationOwns],
		"selects", counts[graph.RelationSelects],
		"routesTo", counts[graph.RelationRoutesTo])

	ctx = CtxEdges.WithValue(ctx, edges)
	h.next.Handle(ctx)
}

// Resolve returns a handler builder for resolving relations
func (r *Handlers) Resolve() handler.Builder {
	return func(next ...handler.Handler) handler.Handler {
		return handler.NewHandler(
			&ResolveHandler{
				next: handler.Handlers(next).MustOne(),
			},
			ResolveID,
		)
	}
}

// BuildHandler assembles and validates the graph and applies styles
type BuildHandler struct {
	styles graph.Styles
	next   handler.Handler
}

func (h *BuildHandler) Handle(ctx context.Context) {
	logger := log.FromContext(ctx)
	scope := CtxScope.MustValue(ctx)
	nodes := CtxNodes.MustValue(ctx)
	edges := CtxEdges.MustValue(ctx)
	outcome := CtxOutcome.MustValue(ctx)

	g, err := graph.New(scope.String(), nodes, edges)
	if err != nil {
		outcome.Fail(BuildID, err)
		return
	}

	desc, err := graph.Describe(g, h.styles)
	if err != nil {
		outcome.Fail(BuildID, err)
		return
	}

	metrics.SetNodes(len(g.Nodes))
	outcome.Graph = g

	logger.Info("graph built successfully",
		"hash", g.Metadata.Hash,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges))

	ctx = CtxGraph.WithValue(ctx, g)
	ctx = CtxDescription.WithValue(ctx, desc)
	h.next.Handle(ctx)
}

// Build returns a handler builder for building the graph
func (r *Handlers) Build() handler.Builder {
	return func(next ...handler.Handler) handler.Handler {
		return handler.NewHandler(
			&BuildHandler{
				styles: r.styles,
				next:   handler.Handlers(next).MustOne(),
			},
			BuildID,
		)
	}
}

// RenderHandler writes the output file
type RenderHandler struct {
	renderer *render.Renderer
	next     handler.Handler
}

func (h *RenderHandler) Handle(ctx context.Context) {
	desc := CtxDescription.MustValue(ctx)
	target := CtxTarget.MustValue(ctx)
	outcome := CtxOutcome.MustValue(ctx)

	path, err := h.renderer.Render(ctx, desc, target)
	if err != nil {
		outcome.Fail(RenderID, err)
		return
	}
	outcome.Path = path

	log.FromContext(ctx).Info("graph rendered", "path", path)

	h.next.Handle(ctx)
}

// Render returns a handler builder for rendering the output
func (r *Handlers) Render() handler.Builder {
	return func(next ...handler.Handler) handler.Handler {
		return handler.NewHandler(
			&RenderHandler{
				renderer: r.renderer,
				next:     handler.Handlers(next).MustOne(),
			},
			RenderID,
		)
	}
}

// ExportHandler sends the graph to every configured sink. It ends the chain.
type ExportHandler struct {
	sinks []sink.Sink
}

func (h *ExportHandler) Handle(ctx context.Context) {
	g := CtxGraph.MustValue(ctx)

	for _, s := range h.sinks {
		if err := s.Export(ctx, g); err != nil {
			CtxOutcome.MustValue(ctx).Fail(ExportID, err)
			return
		}
	}
}

// Export returns a handler builder for exporting the graph
func (r *Handlers) Export() handler.Builder {
	return func(next ...handler.Handler) handler.Handler {
		return handler.NewHandler(
			&ExportHandler{
				sinks: r.sinks,
			},
			ExportID,
		)
	}
}
