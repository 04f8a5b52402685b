package resource

import (
	"cmp"
	"fmt"
	"strings"
)

// Kind identifies the type of a fetched resource
type Kind string

const (
	// KindDeployment is an apps/v1 Deployment
	KindDeployment Kind = "Deployment"

	// KindReplicaSet is an apps/v1 ReplicaSet
	KindReplicaSet Kind = "ReplicaSet"

	// KindStatefulSet is an apps/v1 StatefulSet
	KindStatefulSet Kind = "StatefulSet"

	// KindDaemonSet is an apps/v1 DaemonSet
	KindDaemonSet Kind = "DaemonSet"

	// KindJob is a batch/v1 Job
	KindJob Kind = "Job"

	// KindCronJob is a batch/v1 CronJob
	KindCronJob Kind = "CronJob"

	// KindPod is a core/v1 Pod
	KindPod Kind = "Pod"

	// KindService is a core/v1 Service
	KindService Kind = "Service"

	// KindIngress is a networking.k8s.io/v1 Ingress
	KindIngress Kind = "Ingress"
)

// AllKinds returns every supported kind in fetch order
func AllKinds() []Kind {
	return []Kind{
		KindDeployment,
		KindReplicaSet,
		KindStatefulSet,
		KindDaemonSet,
		KindJob,
		KindCronJob,
		KindPod,
		KindService,
		KindIngress,
	}
}

// ParseKind returns the Kind matching s, ignoring case
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported resource kind: %s", s)
}

// Key uniquely identifies a node: kind, namespace and name
type Key struct {
	Kind      Kind   `json:"kind"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// String renders the key as Kind/namespace/name
func (k Key) String() string {
	return string(k.Kind) + "/" + k.Namespace + "/" + k.Name
}

// Compare orders keys by kind, then namespace, then name
func (k Key) Compare(other Key) int {
	return cmp.Or(
		cmp.Compare(k.Kind, other.Kind),
		cmp.Compare(k.Namespace, other.Namespace),
		cmp.Compare(k.Name, other.Name),
	)
}

// OwnerRef points at the resource that created and manages this one
type OwnerRef struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// BackendRef is one Ingress backend. Path is the HTTP path routed to the
// Service, empty for the default backend.
type BackendRef struct {
	Service string `json:"service"`
	Path    string `json:"path,omitempty"`
}

// Node is an immutable snapshot of one API object taken at fetch time
type Node struct {
	Kind      Kind              `json:"kind"`
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	Labels    map[string]string `json:"labels,omitempty"`

	// OwnerRefs lists owners in the order the API returned them
	OwnerRefs []OwnerRef `json:"ownerRefs,omitempty"`

	// Selector holds matchLabels for Services and workload controllers
	Selector map[string]string `json:"selector,omitempty"`

	// BackendRefs lists backends in rule order, Ingress only
	BackendRefs []BackendRef `json:"backendRefs,omitempty"`
}

// Key returns the identity of the node
func (n Node) Key() Key {
	return Key{Kind: n.Kind, Namespace: n.Namespace, Name: n.Name}
}

// DisplayLabel is the human-readable label used when drawing the node
func (n Node) DisplayLabel() string {
	return fmt.Sprintf("%s: %s", n.Kind, n.Name)
}
