package fetch

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"github.com/chazu/kubegraph/internal/testutil"
	"github.com/chazu/kubegraph/pkg/errdefs"
	"github.com/chazu/kubegraph/pkg/resource"
)

func keys(nodes []resource.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Key().String()
	}
	return out
}

// failList makes List fail with err for lists of the given type
func failList(match client.ObjectList, err error) interceptor.Funcs {
	return interceptor.Funcs{
		List: func(ctx context.Context, c client.WithWatch, list client.ObjectList, opts ...client.ListOption) error {
			if reflect.TypeOf(list) == reflect.TypeOf(match) {
				return err
			}
			return c.List(ctx, list, opts...)
		},
	}
}

func TestFetchHTTPBin(t *testing.T) {
	c := fake.NewClientBuilder().WithObjects(testutil.HTTPBin()...).Build()

	nodes, err := New(c, Options{}).Fetch(context.Background(), InNamespace(testutil.HTTPBinNamespace))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := keys(testutil.HTTPBinNodes())
	got := keys(nodes)
	if len(got) != len(want) {
		t.Fatalf("got %d nodes, want %d: %v", len(got), len(want), got)
	}

	// Sorted by key: the fixture's Deployments come first
	if got[0] != "Deployment/httpbin/httpbin-v1" {
		t.Errorf("first node = %s, want Deployment/httpbin/httpbin-v1", got[0])
	}

	for i := 1; i < len(nodes); i++ {
		if nodes[i-1].Key().Compare(nodes[i].Key()) >= 0 {
			t.Errorf("nodes not sorted at %d: %s >= %s", i, got[i-1], got[i])
		}
	}

	for _, n := range nodes {
		if n.Kind == resource.KindService && len(n.Selector) == 0 {
			t.Errorf("service %s lost its selector", n.Name)
		}
		if n.Kind == resource.KindPod && len(n.OwnerRefs) != 1 {
			t.Errorf("pod %s owner refs = %v", n.Name, n.OwnerRefs)
		}
		if n.Kind == resource.KindIngress && len(n.BackendRefs) != 2 {
			t.Errorf("ingress backends = %v", n.BackendRefs)
		}
	}
}

func TestFetchScopes(t *testing.T) {
	objs := append(testutil.HTTPBin(),
		testutil.Namespace("other"),
		testutil.Pod("other", "lonely", map[string]string{"app": "lonely"}),
		testutil.Namespace("empty"),
	)

	tests := []struct {
		name  string
		scope Scope
		want  int
	}{
		{name: "single namespace", scope: InNamespace("other"), want: 1},
		{name: "empty namespace", scope: InNamespace("empty"), want: 0},
		{name: "all namespaces", scope: AllNamespaces(), want: len(testutil.HTTPBinNodes()) + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fake.NewClientBuilder().WithObjects(objs...).Build()

			nodes, err := New(c, Options{}).Fetch(context.Background(), tt.scope)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if nodes == nil {
				t.Fatal("Fetch() returned nil slice, want empty")
			}
			if len(nodes) != tt.want {
				t.Errorf("got %d nodes, want %d: %v", len(nodes), tt.want, keys(nodes))
			}
		})
	}
}

func TestFetchMissingNamespace(t *testing.T) {
	c := fake.NewClientBuilder().WithObjects(testutil.HTTPBin()...).Build()

	nodes, err := New(c, Options{}).Fetch(context.Background(), InNamespace("ghost"))
	if err == nil {
		t.Fatal("expected error for missing namespace")
	}
	if nodes != nil {
		t.Errorf("nodes = %v, want nil", nodes)
	}
	if !errdefs.IsNotFound(err) {
		t.Errorf("error %v is not a NotFoundError", err)
	}
	if !strings.Contains(err.Error(), `namespace "ghost" not found`) {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestFetchNamespaceGetForbidden(t *testing.T) {
	c := fake.NewClientBuilder().
		WithObjects(testutil.HTTPBin()...).
		WithInterceptorFuncs(interceptor.Funcs{
			Get: func(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
				if _, ok := obj.(*corev1.Namespace); ok {
					return apierrors.NewForbidden(schema.GroupResource{Resource: "namespaces"}, key.Name, errors.New("denied"))
				}
				return c.Get(ctx, key, obj, opts...)
			},
		}).
		Build()

	nodes, err := New(c, Options{}).Fetch(context.Background(), InNamespace(testutil.HTTPBinNamespace))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(nodes) != len(testutil.HTTPBinNodes()) {
		t.Errorf("got %d nodes, want %d", len(nodes), len(testutil.HTTPBinNodes()))
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name  string
		funcs interceptor.Funcs
		check func(error) bool
		want  string
	}{
		{
			name: "forbidden list",
			funcs: failList(&corev1.PodList{},
				apierrors.NewForbidden(schema.GroupResource{Resource: "pods"}, "", errors.New("denied"))),
			check: errdefs.IsAuthorization,
			want:  "not authorized to list Pod",
		},
		{
			name:  "unauthorized",
			funcs: failList(&corev1.ServiceList{}, apierrors.NewUnauthorized("bad token")),
			check: errdefs.IsAuthorization,
			want:  "not authorized to list Service",
		},
		{
			name:  "connection refused",
			funcs: failList(&corev1.PodList{}, errors.New("dial tcp 127.0.0.1:6443: connect: connection refused")),
			check: errdefs.IsConnectivity,
			want:  "cannot reach control plane",
		},
		{
			name:  "server error",
			funcs: failList(&corev1.PodList{}, apierrors.NewServiceUnavailable("etcd down")),
			check: errdefs.IsConnectivity,
			want:  "cannot reach control plane",
		},
		{
			name: "unknown resource type",
			funcs: failList(&corev1.ServiceList{},
				&meta.NoKindMatchError{GroupKind: schema.GroupKind{Kind: "Service"}}),
			check: errdefs.IsNotFound,
			want:  "Service in namespace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fake.NewClientBuilder().
				WithObjects(testutil.HTTPBin()...).
				WithInterceptorFuncs(tt.funcs).
				Build()

			nodes, err := New(c, Options{}).Fetch(context.Background(), InNamespace(testutil.HTTPBinNamespace))
			if err == nil {
				t.Fatal("expected error")
			}
			if nodes != nil {
				t.Errorf("partial results returned: %v", keys(nodes))
			}
			if !tt.check(err) {
				t.Errorf("error %v has the wrong class", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestFetchConcurrencyIsDeterministic(t *testing.T) {
	objs := append(testutil.HTTPBin(),
		testutil.Namespace("other"),
		testutil.Service("other", "api", map[string]string{"app": "api"}),
		testutil.Pod("other", "api-0", map[string]string{"app": "api"}),
	)
	c := fake.NewClientBuilder().WithObjects(objs...).Build()

	sequential, err := New(c, Options{Concurrency: 1}).Fetch(context.Background(), AllNamespaces())
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := New(c, Options{Concurrency: 4}).Fetch(context.Background(), AllNamespaces())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(keys(sequential), keys(parallel)) {
		t.Errorf("results differ:\nsequential: %v\nparallel:   %v", keys(sequential), keys(parallel))
	}
}

func TestFetchKindSubset(t *testing.T) {
	c := fake.NewClientBuilder().WithObjects(testutil.HTTPBin()...).Build()

	f := New(c, Options{Kinds: []resource.Kind{resource.KindService, resource.KindIngress}})
	nodes, err := f.Fetch(context.Background(), InNamespace(testutil.HTTPBinNamespace))
	if err != nil {
		t.Fatal(err)
	}

	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3: %v", len(nodes), keys(nodes))
	}
	for _, n := range nodes {
		if n.Kind != resource.KindService && n.Kind != resource.KindIngress {
			t.Errorf("unexpected kind %s", n.Kind)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	f := New(fake.NewClientBuilder().Build(), Options{Concurrency: -3})

	if f.concurrency != 1 {
		t.Errorf("concurrency = %d, want 1", f.concurrency)
	}
	if !reflect.DeepEqual(f.Kinds(), resource.AllKinds()) {
		t.Errorf("Kinds() = %v", f.Kinds())
	}
}

func TestScope(t *testing.T) {
	tests := []struct {
		scope     Scope
		list      string
		formatted string
	}{
		{InNamespace("httpbin"), "httpbin", "httpbin"},
		{InNamespace(""), "default", "default"},
		{AllNamespaces(), "", "all"},
		{Scope{Namespace: "ignored", AllNamespaces: true}, "", "all"},
	}

	for _, tt := range tests {
		if got := tt.scope.ListNamespace(); got != tt.list {
			t.Errorf("%+v.ListNamespace() = %q, want %q", tt.scope, got, tt.list)
		}
		if got := tt.scope.String(); got != tt.formatted {
			t.Errorf("%+v.String() = %q, want %q", tt.scope, got, tt.formatted)
		}
	}
}
