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

package command

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/cli-runtime/pkg/genericiooptions"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/chazu/kubegraph/internal/pipeline"
	"github.com/chazu/kubegraph/pkg/config"
	"github.com/chazu/kubegraph/pkg/errdefs"
	"github.com/chazu/kubegraph/pkg/fetch"
	"github.com/chazu/kubegraph/pkg/metrics"
	"github.com/chazu/kubegraph/pkg/render"
	"github.com/chazu/kubegraph/pkg/sink"
)

// Options holds the command line state of a kubegraph run
type Options struct {
	ConfigFlags *genericclioptions.ConfigFlags
	genericiooptions.IOStreams

	AllNamespaces bool
	Output        string
	Format        string
	ConfigFile    string
	GraphvizBin   string
	Concurrency   int
	MetricsFile   string
	Neo4j         sink.Neo4jOptions

	zapOpts zap.Options

	// newClient builds the API reader; replaced in tests
	newClient func(*genericclioptions.ConfigFlags) (client.Reader, error)
}

// NewOptions returns options with the built-in defaults
func NewOptions(streams genericiooptions.IOStreams) *Options {
	defaults := config.Default()

	return &Options{
		ConfigFlags: genericclioptions.NewConfigFlags(true),
		IOStreams:   streams,
		Output:      defaults.Output,
		Format:      defaults.Format,
		GraphvizBin: defaults.GraphvizBin,
		Concurrency: defaults.Concurrency,
		zapOpts:     zap.Options{Level: zapcore.WarnLevel},
		newClient:   newClient,
	}
}

// AddFlags registers every flag on flags
func (o *Options) AddFlags(flags *pflag.FlagSet) {
	o.ConfigFlags.AddFlags(flags)

	flags.BoolVarP(&o.AllNamespaces, "all-namespaces", "A", false,
		"Graph resources across all namespaces")
	flags.StringVarP(&o.Output, "output", "o", o.Output,
		"Output file name without extension")
	flags.StringVarP(&o.Format, "format", "T", o.Format,
		"Output format: dot, json, yaml or any Graphviz format (png, svg, pdf, ...)")
	flags.StringVar(&o.ConfigFile, "config", "",
		"Path to a CUE configuration file")
	flags.StringVar(&o.GraphvizBin, "graphviz-bin", o.GraphvizBin,
		"Graphviz dot executable used for image formats")
	flags.IntVar(&o.Concurrency, "concurrency", o.Concurrency,
		"Number of resource kinds listed at once")
	flags.StringVar(&o.MetricsFile, "metrics-file", "",
		"Write Prometheus metrics to this file when the run ends")

	flags.StringVar(&o.Neo4j.URI, "neo4j-uri", "",
		"Export the graph to the Neo4j database at this URI (bolt:// or neo4j://)")
	flags.StringVar(&o.Neo4j.User, "neo4j-user", "neo4j", "Neo4j user")
	flags.StringVar(&o.Neo4j.Password, "neo4j-password", "",
		"Neo4j password (defaults to $NEO4J_PASSWORD)")
	flags.StringVar(&o.Neo4j.Database, "neo4j-database", "", "Neo4j database name")

	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	o.zapOpts.BindFlags(zapFlags)
	flags.AddGoFlagSet(zapFlags)
}

// settings is the merged result of configuration file and flags
type settings struct {
	scope  fetch.Scope
	target render.Target
	opts   pipeline.Options
}

// Complete loads the configuration file and applies the flags on top
func (o *Options) Complete(cmd *cobra.Command) (*settings, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = o.Output
	}
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("graphviz-bin") {
		cfg.GraphvizBin = o.GraphvizBin
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = o.Concurrency
	}

	scope := o.scope(cfg)

	kinds, err := cfg.EnabledKinds()
	if err != nil {
		return nil, err
	}

	s := &settings{
		scope: scope,
		target: render.Target{
			Base:   cfg.Output,
			Format: strings.ToLower(cfg.Format),
		},
		opts: pipeline.Options{
			Fetch: fetch.Options{
				Kinds:       kinds,
				Concurrency: cfg.Concurrency,
			},
			Render: render.Options{GraphvizBin: cfg.GraphvizBin},
			Styles: cfg.Styles(),
		},
	}

	if o.Neo4j.URI != "" {
		neo4jOpts := o.Neo4j
		if neo4jOpts.Password == "" {
			neo4jOpts.Password = os.Getenv("NEO4J_PASSWORD")
		}
		s.opts.Sinks = append(s.opts.Sinks, sink.NewNeo4j(neo4jOpts))
	}

	return s, nil
}

// scope resolves the namespace: -A, then -n, then the configuration file.
// Without any of them every namespace is graphed.
func (o *Options) scope(cfg *config.Config) fetch.Scope {
	if o.AllNamespaces {
		return fetch.AllNamespaces()
	}
	if ns := *o.ConfigFlags.Namespace; ns != "" {
		return fetch.InNamespace(ns)
	}
	if cfg.Namespace != "" && !cfg.AllNamespaces {
		return fetch.InNamespace(cfg.Namespace)
	}
	return fetch.AllNamespaces()
}

// Validate checks flag values that the configuration schema does not cover
func (o *Options) Validate() error {
	if o.Concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", o.Concurrency)
	}
	if o.Output == "" {
		return fmt.Errorf("--output must not be empty")
	}
	if o.Format == "" {
		return fmt.Errorf("--format must not be empty")
	}
	return nil
}

// Run executes one kubegraph run and prints where the output went
func (o *Options) Run(ctx context.Context, cmd *cobra.Command) (err error) {
	logger := zap.New(zap.UseFlagOptions(&o.zapOpts), zap.WriteTo(o.ErrOut))
	log.SetLogger(logger)
	ctx = log.IntoContext(ctx, logger)

	if o.MetricsFile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(o.MetricsFile); werr != nil {
				logger.Error(werr, "failed to write metrics file")
			}
		}()
	}

	s, err := o.Complete(cmd)
	if err != nil {
		return err
	}

	c, err := o.newClient(o.ConfigFlags)
	if err != nil {
		return err
	}

	res, err := pipeline.New(c, s.opts).Run(ctx, s.scope, s.target)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.Out, "%s %s (namespace: %s)\n", successPrefix("Graph generated:"), res.Path, res.Scope)
	return nil
}

// newClient builds a controller-runtime client from the kubeconfig flags
func newClient(flags *genericclioptions.ConfigFlags) (client.Reader, error) {
	restConfig, err := flags.ToRESTConfig()
	if err != nil {
		return nil, &errdefs.ConnectivityError{Endpoint: "control plane", Err: err}
	}

	c, err := client.New(restConfig, client.Options{})
	if err != nil {
		return nil, &errdefs.ConnectivityError{Endpoint: "control plane", Err: err}
	}
	return c, nil
}
