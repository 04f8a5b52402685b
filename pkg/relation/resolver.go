package relation

import (
	"slices"
	"strings"

	"github.com/chazu/kubegraph/pkg/graph"
	"github.com/chazu/kubegraph/pkg/resource"
)

// Resolve computes every edge between the given nodes, sorted by source,
// target and relation, without duplicates
func Resolve(nodes []resource.Node) []graph.Edge {
	idx := newIndex(nodes)

	edges := ownerEdges(nodes, idx)
	edges = append(edges, SelectorEdges(nodes)...)
	edges = append(edges, backendEdges(nodes, idx)...)

	slices.SortFunc(edges, graph.Edge.Compare)
	return slices.Compact(edges)
}

// index is the set of fetched node keys
type index map[resource.Key]struct{}

func newIndex(nodes []resource.Node) index {
	idx := make(index, len(nodes))
	for _, n := range nodes {
		idx[n.Key()] = struct{}{}
	}
	return idx
}

func (i index) has(k resource.Key) bool {
	_, ok := i[k]
	return ok
}

// OwnerEdges emits owner -> node for every owner reference whose target was
// fetched. Owners are looked up in the node's own namespace; a reference to
// the node itself is ignored.
func OwnerEdges(nodes []resource.Node) []graph.Edge {
	return ownerEdges(nodes, newIndex(nodes))
}

func ownerEdges(nodes []resource.Node, idx index) []graph.Edge {
	var edges []graph.Edge
	for _, n := range nodes {
		for _, ref := range n.OwnerRefs {
			owner := resource.Key{Kind: ref.Kind, Namespace: n.Namespace, Name: ref.Name}
			if owner == n.Key() || !idx.has(owner) {
				continue
			}
			edges = append(edges, graph.Edge{
				From:     owner,
				To:       n.Key(),
				Relation: graph.RelationOwns,
			})
		}
	}
	return edges
}

// SelectorEdges emits Service -> Pod for every Pod in the Service's
// namespace whose labels satisfy the Service selector
func SelectorEdges(nodes []resource.Node) []graph.Edge {
	podsByNamespace := make(map[string][]resource.Node)
	for _, n := range nodes {
		if n.Kind == resource.KindPod {
			podsByNamespace[n.Namespace] = append(podsByNamespace[n.Namespace], n)
		}
	}

	var edges []graph.Edge
	for _, svc := range nodes {
		if svc.Kind != resource.KindService {
			continue
		}
		for _, pod := range podsByNamespace[svc.Namespace] {
			if !Matches(svc.Selector, pod.Labels) {
				continue
			}
			edges = append(edges, graph.Edge{
				From:     svc.Key(),
				To:       pod.Key(),
				Relation: graph.RelationSelects,
			})
		}
	}
	return edges
}

// BackendEdges emits Ingress -> Service for every backend name that matches
// a fetched Service in the Ingress namespace. Backends naming the same
// Service share one edge labelled with their paths in rule order.
func BackendEdges(nodes []resource.Node) []graph.Edge {
	return backendEdges(nodes, newIndex(nodes))
}

func backendEdges(nodes []resource.Node, idx index) []graph.Edge {
	var edges []graph.Edge
	for _, ing := range nodes {
		if ing.Kind != resource.KindIngress {
			continue
		}
		var services []string
		paths := map[string][]string{}
		for _, ref := range ing.BackendRefs {
			svc := resource.Key{Kind: resource.KindService, Namespace: ing.Namespace, Name: ref.Service}
			if !idx.has(svc) {
				continue
			}
			if _, seen := paths[ref.Service]; !seen {
				services = append(services, ref.Service)
				paths[ref.Service] = nil
			}
			if ref.Path != "" && !slices.Contains(paths[ref.Service], ref.Path) {
				paths[ref.Service] = append(paths[ref.Service], ref.Path)
			}
		}
		for _, name := range services {
			edges = append(edges, graph.Edge{
				From:     ing.Key(),
				To:       resource.Key{Kind: resource.KindService, Namespace: ing.Namespace, Name: name},
				Relation: graph.RelationRoutesTo,
				Label:    strings.Join(paths[name], ", "),
			})
		}
	}
	return edges
}
