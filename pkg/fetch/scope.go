package fetch

import (
	corev1 "k8s.io/api/core/v1"
)

// Scope selects the namespace a run covers
type Scope struct {
	// Namespace to list. Ignored when AllNamespaces is set; empty means
	// the default namespace.
	Namespace string

	// AllNamespaces lists cluster-wide
	AllNamespaces bool
}

// AllNamespaces is the scope covering the whole cluster
func AllNamespaces() Scope {
	return Scope{AllNamespaces: true}
}

// InNamespace is the scope covering a single namespace
func InNamespace(namespace string) Scope {
	return Scope{Namespace: namespace}
}

// ListNamespace returns the namespace to pass to list calls, "" for all
func (s Scope) ListNamespace() string {
	if s.AllNamespaces {
		return ""
	}
	if s.Namespace == "" {
		return corev1.NamespaceDefault
	}
	return s.Namespace
}

// String returns the namespace name or "all"
func (s Scope) String() string {
	if s.AllNamespaces {
		return "all"
	}
	return s.ListNamespace()
}
