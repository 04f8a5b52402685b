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
	"github.com/authzed/controller-idioms/handler"
	"github.com/authzed/controller-idioms/typedctx"

	"github.com/chazu/kubegraph/pkg/fetch"
	"github.com/chazu/kubegraph/pkg/graph"
	"github.com/chazu/kubegraph/pkg/render"
	"github.com/chazu/kubegraph/pkg/resource"
)

// Context keys for the run pipeline
//
// Each handler reads what earlier handlers stored and adds its own result
// before calling the next one.
var (
	// CtxOutcome collects the result of a run
	CtxOutcome = typedctx.NewKey[*Outcome]()

	// CtxScope is the namespace scope of the run
	CtxScope = typedctx.NewKey[fetch.Scope]()

	// CtxTarget is the output file
	CtxTarget = typedctx.NewKey[render.Target]()

	// CtxNodes are the fetched resources
	CtxNodes = typedctx.NewKey[[]resource.Node]()

	// CtxEdges are the resolved relations
	CtxEdges = typedctx.NewKey[[]graph.Edge]()

	// CtxGraph is the validated graph
	CtxGraph = typedctx.NewKey[*graph.Graph]()

	// CtxDescription is the styled graph ready to render
	CtxDescription = typedctx.NewKey[*graph.Description]()
)

// Outcome is filled in as the pipeline runs. A failing handler records its
// error and does not call the next handler.
type Outcome struct {
	Path  string
	Graph *graph.Graph

	Err   error
	Stage handler.Key
}

// Fail records err as the result of stage
func (o *Outcome) Fail(stage handler.Key, err error) {
	o.Err = err
	o.Stage = stage
}
