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

// Package testutil builds cluster fixtures shared by the package tests.
package testutil

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/chazu/kubegraph/pkg/resource"
)

// HTTPBinNamespace is the namespace the httpbin fixture lives in
const HTTPBinNamespace = "httpbin"

// HTTPBin returns the reference manifest as API objects: two httpbin
// Deployments with two replicas each (ReplicaSets and Pods included, as the
// controllers would have created them), one Service per version and an
// Ingress routing to both Services.
func HTTPBin() []client.Object {
	objs := []client.Object{Namespace(HTTPBinNamespace)}
	for _, version := range []string{"v1", "v2"} {
		objs = append(objs, httpbinVersion(version)...)
	}
	objs = append(objs, Ingress(HTTPBinNamespace, "httpbin-ingress", "httpbin-v1-service", "httpbin-v2-service"))
	return objs
}

// HTTPBinNodes returns the HTTPBin fixture converted to nodes
func HTTPBinNodes() []resource.Node {
	return Nodes(HTTPBin())
}

// Nodes converts objects to nodes, skipping kinds that have no node form
func Nodes(objs []client.Object) []resource.Node {
	var nodes []resource.Node
	for _, obj := range objs {
		n, err := resource.FromObject(obj)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func httpbinVersion(version string) []client.Object {
	name := "httpbin-" + version
	selector := map[string]string{"app": "httpbin", "version": version}
	rsName := name + "-7d9c8f6b5"

	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: HTTPBinNamespace,
			Labels:    map[string]string{"app": "httpbin"},
			UID:       uid(name),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](2),
			Selector: &metav1.LabelSelector{MatchLabels: selector},
		},
	}

	rs := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:            rsName,
			Namespace:       HTTPBinNamespace,
			Labels:          withHash(selector),
			UID:             uid(rsName),
			OwnerReferences: []metav1.OwnerReference{ownerRef("apps/v1", "Deployment", name)},
		},
		Spec: appsv1.ReplicaSetSpec{
			Replicas: ptr.To[int32](2),
			Selector: &metav1.LabelSelector{MatchLabels: withHash(selector)},
		},
	}

	objs := []client.Object{deploy, rs}
	for i := range 2 {
		objs = append(objs, Pod(HTTPBinNamespace, fmt.Sprintf("%s-%d", rsName, i), withHash(selector),
			ownerRef("apps/v1", "ReplicaSet", rsName)))
	}
	objs = append(objs, Service(HTTPBinNamespace, name+"-service", selector))
	return objs
}

// Namespace returns a Namespace object
func Namespace(name string) *corev1.Namespace {
	return &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
}

// Pod returns a Pod with the given labels and owners
func Pod(namespace, name string, labels map[string]string, owners ...metav1.OwnerReference) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:            name,
			Namespace:       namespace,
			Labels:          labels,
			UID:             uid(name),
			OwnerReferences: owners,
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: "httpbin", Image: "docker.io/kennethreitz/httpbin"}},
		},
	}
}

// Service returns a ClusterIP Service with the given selector
func Service(namespace, name string, selector map[string]string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec: corev1.ServiceSpec{
			Selector: selector,
			Ports:    []corev1.ServicePort{{Name: "http", Port: 8000}},
		},
	}
}

// Ingress returns an Ingress with one path per backend service, in order
func Ingress(namespace, name string, backends ...string) *networkingv1.Ingress {
	prefix := networkingv1.PathTypePrefix
	paths := make([]networkingv1.HTTPIngressPath, 0, len(backends))
	for _, b := range backends {
		paths = append(paths, networkingv1.HTTPIngressPath{
			Path:     "/" + b,
			PathType: &prefix,
			Backend: networkingv1.IngressBackend{
				Service: &networkingv1.IngressServiceBackend{
					Name: b,
					Port: networkingv1.ServiceBackendPort{Number: 8000},
				},
			},
		})
	}

	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{Paths: paths},
				},
			}},
		},
	}
}

func ownerRef(apiVersion, kind, name string) metav1.OwnerReference {
	return metav1.OwnerReference{
		APIVersion: apiVersion,
		Kind:       kind,
		Name:       name,
		UID:        uid(name),
		Controller: ptr.To(true),
	}
}

func withHash(sel map[string]string) map[string]string {
	out := map[string]string{"pod-template-hash": "7d9c8f6b5"}
	for k, v := range sel {
		out[k] = v
	}
	return out
}

func uid(name string) types.UID {
	return types.UID("uid-" + name)
}
