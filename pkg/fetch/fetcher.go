package fetch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sourcegraph/conc/pool"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/chazu/kubegraph/pkg/errdefs"
	"github.com/chazu/kubegraph/pkg/metrics"
	"github.com/chazu/kubegraph/pkg/resource"
)

// Options configures a Fetcher
type Options struct {
	// Kinds to list, in order. Defaults to resource.AllKinds().
	Kinds []resource.Kind

	// Concurrency is the number of kinds listed at once. Defaults to 1.
	Concurrency int
}

// Fetcher lists cluster objects through a controller-runtime reader
type Fetcher struct {
	client      client.Reader
	kinds       []resource.Kind
	concurrency int
}

// New creates a Fetcher reading from c
func New(c client.Reader, opts Options) *Fetcher {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = resource.AllKinds()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Fetcher{
		client:      c,
		kinds:       slices.Clone(kinds),
		concurrency: concurrency,
	}
}

// Kinds returns the kinds the fetcher lists
func (f *Fetcher) Kinds() []resource.Kind {
	return slices.Clone(f.kinds)
}

// Fetch returns every node of every enabled kind within scope, sorted by key.
// If any list call fails, no nodes are returned.
func (f *Fetcher) Fetch(ctx context.Context, scope Scope) ([]resource.Node, error) {
	logger := log.FromContext(ctx).WithValues("namespace", scope.String())

	if err := f.checkNamespace(ctx, scope); err != nil {
		return nil, err
	}

	// One slot per kind so the result does not depend on completion order
	results := make([][]resource.Node, len(f.kinds))

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(f.concurrency)

	for i, kind := range f.kinds {
		p.Go(func(ctx context.Context) error {
			nodes, err := f.list(ctx, kind, scope)
			if err != nil {
				return err
			}
			results[i] = nodes
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		logger.V(1).Info("Fetch failed, discarding partial results", "error", err.Error())
		return nil, err
	}

	nodes := slices.Concat(results...)
	slices.SortFunc(nodes, func(a, b resource.Node) int {
		return a.Key().Compare(b.Key())
	})
	nodes = slices.CompactFunc(nodes, func(a, b resource.Node) bool {
		return a.Key() == b.Key()
	})
	if nodes == nil {
		nodes = []resource.Node{}
	}

	logger.V(1).Info("Fetched resources", "kinds", len(f.kinds), "nodes", len(nodes))
	return nodes, nil
}

// checkNamespace fails with a NotFoundError when a single-namespace scope
// names a namespace that does not exist. A caller that may not read
// namespaces skips the check.
func (f *Fetcher) checkNamespace(ctx context.Context, scope Scope) error {
	ns := scope.ListNamespace()
	if ns == "" {
		return nil
	}

	err := f.client.Get(ctx, client.ObjectKey{Name: ns}, &corev1.Namespace{})
	switch {
	case err == nil:
		return nil
	case apierrors.IsForbidden(err):
		log.FromContext(ctx).V(1).Info("Cannot get namespace, skipping existence check", "namespace", ns)
		return nil
	case apierrors.IsNotFound(err):
		return &errdefs.NotFoundError{Kind: "Namespace", Namespace: ns, Err: err}
	default:
		return errdefs.Classify(err, "Namespace", ns)
	}
}

// list fetches and converts one kind
func (f *Fetcher) list(ctx context.Context, kind resource.Kind, scope Scope) ([]resource.Node, error) {
	logger := log.FromContext(ctx).WithValues("kind", kind)
	ns := scope.ListNamespace()

	list, err := newList(kind)
	if err != nil {
		return nil, err
	}

	var opts []client.ListOption
	if ns != "" {
		opts = append(opts, client.InNamespace(ns))
	}

	start := time.Now()
	err = f.client.List(ctx, list, opts...)
	duration := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordFetch(string(kind), metrics.ResultFailure, duration, 0)
		return nil, errdefs.Classify(err, string(kind), ns)
	}

	items, err := meta.ExtractList(list)
	if err != nil {
		metrics.RecordFetch(string(kind), metrics.ResultFailure, duration, 0)
		return nil, fmt.Errorf("failed to read %s list: %w", kind, err)
	}

	nodes := make([]resource.Node, 0, len(items))
	for _, item := range items {
		obj, ok := item.(client.Object)
		if !ok {
			return nil, fmt.Errorf("unexpected item type %T in %s list", item, kind)
		}
		node, err := resource.FromObject(obj)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	metrics.RecordFetch(string(kind), metrics.ResultSuccess, duration, len(nodes))
	logger.V(1).Info("Listed resources", "count", len(nodes))
	return nodes, nil
}

// newList returns an empty typed list for kind
func newList(kind resource.Kind) (client.ObjectList, error) {
	switch kind {
	case resource.KindDeployment:
		return &appsv1.DeploymentList{}, nil
	case resource.KindReplicaSet:
		return &appsv1.ReplicaSetList{}, nil
	case resource.KindStatefulSet:
		return &appsv1.StatefulSetList{}, nil
	case resource.KindDaemonSet:
		return &appsv1.DaemonSetList{}, nil
	case resource.KindJob:
		return &batchv1.JobList{}, nil
	case resource.KindCronJob:
		return &batchv1.CronJobList{}, nil
	case resource.KindPod:
		return &corev1.PodList{}, nil
	case resource.KindService:
		return &corev1.ServiceList{}, nil
	case resource.KindIngress:
		return &networkingv1.IngressList{}, nil
	default:
		return nil, fmt.Errorf("unsupported resource kind: %s", kind)
	}
}
