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
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"github.com/chazu/kubegraph/internal/testutil"
	"github.com/chazu/kubegraph/pkg/config"
	"github.com/chazu/kubegraph/pkg/errdefs"
	"github.com/chazu/kubegraph/pkg/fetch"
	"github.com/chazu/kubegraph/pkg/render"
	"github.com/chazu/kubegraph/pkg/sink"
)

var _ = Describe("Pipeline", func() {
	var (
		ctx  context.Context
		dir  string
		opts Options
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		opts = Options{Styles: config.Default().Styles()}
	})

	target := func(format string) render.Target {
		return render.Target{Base: filepath.Join(dir, "cluster"), Format: format}
	}

	Context("When graphing the httpbin namespace", func() {
		var c client.Client

		BeforeEach(func() {
			c = fake.NewClientBuilder().WithObjects(testutil.HTTPBin()...).Build()
		})

		It("should write a DOT file with every relation", func() {
			res, err := New(c, opts).Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target(render.FormatDOT))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Path).To(Equal(filepath.Join(dir, "cluster.dot")))
			Expect(res.Scope.String()).To(Equal(testutil.HTTPBinNamespace))

			By("checking the graph")
			Expect(res.Graph.Nodes).To(HaveLen(11))
			Expect(res.Graph.Edges).To(HaveLen(12))
			Expect(res.Hash).To(Equal(res.Graph.ComputeHash()))

			By("checking the DOT output")
			data, err := os.ReadFile(res.Path)
			Expect(err).NotTo(HaveOccurred())
			dot := string(data)

			Expect(dot).To(HavePrefix(`digraph "httpbin" {`))
			Expect(dot).To(ContainSubstring(`graph [dpi="300", rankdir="LR", size="13"];`))
			Expect(dot).To(ContainSubstring(
				`"Deployment/httpbin/httpbin-v1" [fillcolor="lightblue", label="Deployment: httpbin-v1", shape="folder", style="filled"];`))
			Expect(dot).To(ContainSubstring(
				`"Deployment/httpbin/httpbin-v1" -> "ReplicaSet/httpbin/httpbin-v1-7d9c8f6b5" [label="owns", style="solid"];`))
			Expect(dot).To(ContainSubstring(
				`"ReplicaSet/httpbin/httpbin-v2-7d9c8f6b5" -> "Pod/httpbin/httpbin-v2-7d9c8f6b5-1" [label="owns", style="solid"];`))
			Expect(dot).To(ContainSubstring(
				`"Service/httpbin/httpbin-v1-service" -> "Pod/httpbin/httpbin-v1-7d9c8f6b5-0" [label="selects", style="dashed"];`))
			Expect(dot).To(ContainSubstring(
				`"Ingress/httpbin/httpbin-ingress" -> "Service/httpbin/httpbin-v2-service" [label="/httpbin-v2-service", style="dotted"];`))
			Expect(dot).NotTo(ContainSubstring(
				`"Service/httpbin/httpbin-v1-service" -> "Pod/httpbin/httpbin-v2-7d9c8f6b5-0"`))

			By("declaring every edge source before its target")
			pos := func(id string) int { return strings.Index(dot, "\t\""+id+"\" [") }
			deploy := pos("Deployment/httpbin/httpbin-v1")
			rs := pos("ReplicaSet/httpbin/httpbin-v1-7d9c8f6b5")
			pod := pos("Pod/httpbin/httpbin-v1-7d9c8f6b5-0")
			svc := pos("Service/httpbin/httpbin-v1-service")
			ing := pos("Ingress/httpbin/httpbin-ingress")
			Expect([]int{deploy, rs, pod, svc, ing}).NotTo(ContainElement(-1))
			Expect(deploy).To(BeNumerically("<", rs))
			Expect(rs).To(BeNumerically("<", pod))
			Expect(ing).To(BeNumerically("<", svc))
			Expect(svc).To(BeNumerically("<", pod))
		})

		It("should produce identical output for identical cluster state", func() {
			p := New(c, opts)

			first, err := p.Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target(render.FormatDOT))
			Expect(err).NotTo(HaveOccurred())
			firstData, err := os.ReadFile(first.Path)
			Expect(err).NotTo(HaveOccurred())

			second, err := p.Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target(render.FormatDOT))
			Expect(err).NotTo(HaveOccurred())
			secondData, err := os.ReadFile(second.Path)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Hash).To(Equal(first.Hash))
			Expect(secondData).To(Equal(firstData))
		})

		It("should list the same graph with concurrent fetching", func() {
			sequential, err := New(c, opts).Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target(render.FormatJSON))
			Expect(err).NotTo(HaveOccurred())

			opts.Fetch.Concurrency = 4
			parallel, err := New(c, opts).Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target(render.FormatJSON))
			Expect(err).NotTo(HaveOccurred())

			Expect(parallel.Hash).To(Equal(sequential.Hash))
		})

		It("should export the graph to every sink", func() {
			s := &recordingSink{}
			opts.Sinks = []sink.Sink{s}

			res, err := New(c, opts).Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target(render.FormatYAML))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.exported).To(HaveLen(1))
			Expect(s.exported[0].Metadata.Hash).To(Equal(res.Hash))
		})

		It("should keep the rendered file when an export fails", func() {
			opts.Sinks = []sink.Sink{&recordingSink{err: &errdefs.ConnectivityError{Endpoint: "neo4j", Err: errors.New("refused")}}}

			_, err := New(c, opts).Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target(render.FormatDOT))
			Expect(errdefs.IsConnectivity(err)).To(BeTrue())
			Expect(filepath.Join(dir, "cluster.dot")).To(BeAnExistingFile())
		})
	})

	Context("When the namespace has no resources", func() {
		It("should write an empty graph", func() {
			c := fake.NewClientBuilder().WithObjects(testutil.Namespace("empty")).Build()

			res, err := New(c, opts).Run(ctx, fetch.InNamespace("empty"), target(render.FormatDOT))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Graph.Nodes).To(BeEmpty())
			Expect(res.Graph.Edges).To(BeEmpty())

			data, err := os.ReadFile(res.Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("digraph \"empty\" {\n\tgraph [dpi=\"300\", rankdir=\"LR\", size=\"13\"];\n}\n"))
		})
	})

	Context("When graphing all namespaces", func() {
		It("should include resources from every namespace", func() {
			objs := append(testutil.HTTPBin(),
				testutil.Namespace("other"),
				testutil.Service("other", "api", map[string]string{"app": "api"}),
				testutil.Pod("other", "api-0", map[string]string{"app": "api"}),
			)
			c := fake.NewClientBuilder().WithObjects(objs...).Build()

			res, err := New(c, opts).Run(ctx, fetch.AllNamespaces(), target(render.FormatJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Scope.String()).To(Equal("all"))
			Expect(res.Graph.Metadata.Name).To(Equal("all"))
			Expect(res.Graph.Nodes).To(HaveLen(13))
			Expect(res.Graph.Edges).To(HaveLen(13))
		})
	})

	Context("When the run fails", func() {
		It("should report a missing namespace and write nothing", func() {
			c := fake.NewClientBuilder().WithObjects(testutil.HTTPBin()...).Build()

			res, err := New(c, opts).Run(ctx, fetch.InNamespace("ghost"), target(render.FormatDOT))
			Expect(res).To(BeNil())
			Expect(errdefs.IsNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(`namespace "ghost" not found`))
			Expect(filepath.Join(dir, "cluster.dot")).NotTo(BeAnExistingFile())
		})

		It("should report an unreachable control plane and write nothing", func() {
			c := fake.NewClientBuilder().
				WithObjects(testutil.HTTPBin()...).
				WithInterceptorFuncs(interceptor.Funcs{
					List: func(ctx context.Context, c client.WithWatch, list client.ObjectList, opts ...client.ListOption) error {
						if _, ok := list.(*corev1.PodList); ok {
							return errors.New("dial tcp 10.0.0.1:6443: i/o timeout")
						}
						return c.List(ctx, list, opts...)
					},
				}).
				Build()

			res, err := New(c, opts).Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target(render.FormatDOT))
			Expect(res).To(BeNil())
			Expect(errdefs.IsConnectivity(err)).To(BeTrue())
			Expect(filepath.Join(dir, "cluster.dot")).NotTo(BeAnExistingFile())
		})

		It("should report a render failure", func() {
			c := fake.NewClientBuilder().WithObjects(testutil.HTTPBin()...).Build()
			opts.Render.GraphvizBin = filepath.Join(dir, "no-such-dot")

			_, err := New(c, opts).Run(ctx, fetch.InNamespace(testutil.HTTPBinNamespace), target("png"))
			Expect(errdefs.IsRender(err)).To(BeTrue())
		})
	})
})
