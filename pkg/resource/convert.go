package resource

import (
	"fmt"
	"maps"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// FromObject converts a typed API object into a Node
func FromObject(obj client.Object) (Node, error) {
	switch o := obj.(type) {
	case *appsv1.Deployment:
		return FromDeployment(o), nil
	case *appsv1.ReplicaSet:
		return FromReplicaSet(o), nil
	case *appsv1.StatefulSet:
		return FromStatefulSet(o), nil
	case *appsv1.DaemonSet:
		return FromDaemonSet(o), nil
	case *batchv1.Job:
		return FromJob(o), nil
	case *batchv1.CronJob:
		return FromCronJob(o), nil
	case *corev1.Pod:
		return FromPod(o), nil
	case *corev1.Service:
		return FromService(o), nil
	case *networkingv1.Ingress:
		return FromIngress(o), nil
	default:
		return Node{}, fmt.Errorf("unsupported object type %T", obj)
	}
}

// FromDeployment converts a Deployment
func FromDeployment(d *appsv1.Deployment) Node {
	n := fromMeta(KindDeployment, &d.ObjectMeta)
	n.Selector = matchLabels(d.Spec.Selector)
	return n
}

// FromReplicaSet converts a ReplicaSet
func FromReplicaSet(rs *appsv1.ReplicaSet) Node {
	n := fromMeta(KindReplicaSet, &rs.ObjectMeta)
	n.Selector = matchLabels(rs.Spec.Selector)
	return n
}

// FromStatefulSet converts a StatefulSet
func FromStatefulSet(s *appsv1.StatefulSet) Node {
	n := fromMeta(KindStatefulSet, &s.ObjectMeta)
	n.Selector = matchLabels(s.Spec.Selector)
	return n
}

// FromDaemonSet converts a DaemonSet
func FromDaemonSet(ds *appsv1.DaemonSet) Node {
	n := fromMeta(KindDaemonSet, &ds.ObjectMeta)
	n.Selector = matchLabels(ds.Spec.Selector)
	return n
}

// FromJob converts a Job
func FromJob(j *batchv1.Job) Node {
	return fromMeta(KindJob, &j.ObjectMeta)
}

// FromCronJob converts a CronJob
func FromCronJob(cj *batchv1.CronJob) Node {
	return fromMeta(KindCronJob, &cj.ObjectMeta)
}

// FromPod converts a Pod
func FromPod(p *corev1.Pod) Node {
	return fromMeta(KindPod, &p.ObjectMeta)
}

// FromService converts a Service
func FromService(s *corev1.Service) Node {
	n := fromMeta(KindService, &s.ObjectMeta)
	if len(s.Spec.Selector) > 0 {
		n.Selector = maps.Clone(s.Spec.Selector)
	}
	return n
}

// FromIngress converts an Ingress. The default backend comes first, then
// every HTTP path backend in rule order. Resource backends are ignored.
func FromIngress(ing *networkingv1.Ingress) Node {
	n := fromMeta(KindIngress, &ing.ObjectMeta)

	if b := ing.Spec.DefaultBackend; b != nil && b.Service != nil {
		n.BackendRefs = append(n.BackendRefs, BackendRef{Service: b.Service.Name})
	}
	for _, rule := range ing.Spec.Rules {
		if rule.HTTP == nil {
			continue
		}
		for _, path := range rule.HTTP.Paths {
			if path.Backend.Service == nil {
				continue
			}
			n.BackendRefs = append(n.BackendRefs, BackendRef{
				Service: path.Backend.Service.Name,
				Path:    path.Path,
			})
		}
	}
	return n
}

func fromMeta(kind Kind, meta *metav1.ObjectMeta) Node {
	n := Node{
		Kind:      kind,
		Name:      meta.Name,
		Namespace: meta.Namespace,
	}
	if len(meta.Labels) > 0 {
		n.Labels = maps.Clone(meta.Labels)
	}
	for _, ref := range meta.OwnerReferences {
		n.OwnerRefs = append(n.OwnerRefs, OwnerRef{Kind: Kind(ref.Kind), Name: ref.Name})
	}
	return n
}

// matchLabels keeps only the equality part of a label selector
func matchLabels(sel *metav1.LabelSelector) map[string]string {
	if sel == nil || len(sel.MatchLabels) == 0 {
		return nil
	}
	return maps.Clone(sel.MatchLabels)
}
