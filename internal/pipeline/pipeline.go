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
	"fmt"

	"github.com/authzed/controller-idioms/handler"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/chazu/kubegraph/pkg/fetch"
	"github.com/chazu/kubegraph/pkg/graph"
	"github.com/chazu/kubegraph/pkg/render"
	"github.com/chazu/kubegraph/pkg/sink"
)

// Options configures a Pipeline
type Options struct {
	Fetch  fetch.Options
	Render render.Options
	Styles graph.Styles
	Sinks  []sink.Sink
}

// Pipeline runs fetch, resolve, build, render and export in order
type Pipeline struct {
	handlers *Handlers
	chain    handler.Handler
}

// Result describes a successful run
type Result struct {
	Path  string
	Scope fetch.Scope
	Graph *graph.Graph
	Hash  string
}

// New creates a pipeline reading from c
func New(c client.Reader, opts Options) *Pipeline {
	handlers := NewHandlers(
		fetch.New(c, opts.Fetch),
		render.NewRenderer(opts.Render),
		opts.Styles,
		opts.Sinks...,
	)

	chain := handler.Chain(
		handlers.Fetch(),   // List resources in scope
		handlers.Resolve(), // Infer owns/selects/routesTo edges
		handlers.Build(),   // Validate, hash and style the graph
		handlers.Render(),  // Write <output>.<format>
		handlers.Export(),  // Optional external sinks
	).Handler("kubegraph-run")

	return &Pipeline{
		handlers: handlers,
		chain:    chain,
	}
}

// Run executes the pipeline once. The returned error belongs to the
// errdefs taxonomy when it comes from the cluster or the renderer.
func (p *Pipeline) Run(ctx context.Context, scope fetch.Scope, target render.Target) (*Result, error) {
	logger := log.FromContext(ctx)
	logger.V(1).Info("starting run", "namespace", scope.String(), "output", target.Path())

	outcome := &Outcome{}
	ctx = CtxOutcome.WithValue(ctx, outcome)
	ctx = CtxScope.WithValue(ctx, scope)
	ctx = CtxTarget.WithValue(ctx, target)

	p.chain.Handle(ctx)

	if outcome.Err != nil {
		logger.V(1).Info("run failed", "stage", outcome.Stage, "error", outcome.Err.Error())
		return nil, outcome.Err
	}
	if outcome.Path == "" || outcome.Graph == nil {
		return nil, fmt.Errorf("pipeline finished without producing output")
	}

	return &Result{
		Path:  outcome.Path,
		Scope: scope,
		Graph: outcome.Graph,
		Hash:  outcome.Graph.Metadata.Hash,
	}, nil
}
