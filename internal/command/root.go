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
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/cli-runtime/pkg/genericiooptions"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Version is set at build time
var Version = "dev"

var (
	successPrefix = color.New(color.FgGreen).SprintFunc()
	errorPrefix   = color.New(color.FgRed, color.Bold).SprintFunc()
)

// NewRootCommand creates the kubegraph command
func NewRootCommand(streams genericiooptions.IOStreams) *cobra.Command {
	return newRootCommand(NewOptions(streams))
}

// NewRootCommandWithClient creates the kubegraph command reading from c
// instead of the cluster named by the kubeconfig flags
func NewRootCommandWithClient(streams genericiooptions.IOStreams, c client.Reader) *cobra.Command {
	o := NewOptions(streams)
	o.newClient = func(_ *genericclioptions.ConfigFlags) (client.Reader, error) {
		return c, nil
	}
	return newRootCommand(o)
}

func newRootCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kubegraph",
		Short: "Draw the resources of a Kubernetes namespace as a graph",
		Long: "kubegraph lists the Deployments, ReplicaSets, StatefulSets, DaemonSets,\n" +
			"Jobs, CronJobs, Pods, Services and Ingresses of a namespace and draws\n" +
			"how they relate: controllers own their children, Services select Pods\n" +
			"and Ingresses route to Services.",
		Example: "  kubegraph -n httpbin\n" +
			"  kubegraph -A -o cluster -T svg\n" +
			"  kubegraph -n shop -T json --config kubegraph.cue",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetIn(o.In)
	cmd.SetOut(o.Out)
	cmd.SetErr(o.ErrOut)
	o.AddFlags(cmd.Flags())

	return cmd
}

// Execute runs kubegraph with the process arguments and returns the exit code
func Execute(ctx context.Context) int {
	streams := genericiooptions.IOStreams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
	return ExecuteCommand(ctx, NewRootCommand(streams), streams)
}

// ExecuteCommand runs cmd, printing any failure as "Error: <message>"
func ExecuteCommand(ctx context.Context, cmd *cobra.Command, streams genericiooptions.IOStreams) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(streams.ErrOut, "%s %v\n", errorPrefix("Error:"), err)
		return 1
	}
	return 0
}
