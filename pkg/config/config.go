package config

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/chazu/kubegraph/pkg/graph"
	"github.com/chazu/kubegraph/pkg/resource"
)

// Config is a validated kubegraph configuration
type Config struct {
	Namespace     string           `json:"namespace,omitempty"`
	AllNamespaces bool             `json:"allNamespaces"`
	Output        string           `json:"output"`
	Format        string           `json:"format"`
	GraphvizBin   string           `json:"graphvizBin"`
	Concurrency   int              `json:"concurrency"`
	Graph         GraphAttributes  `json:"graph"`
	Kinds         []string         `json:"kinds"`
	Nodes         map[string]Style `json:"nodes"`
	Edges         map[string]Style `json:"edges"`
}

// GraphAttributes are the graph-wide drawing attributes
type GraphAttributes struct {
	Rankdir string `json:"rankdir"`
	Size    string `json:"size"`
	DPI     int    `json:"dpi"`
}

// Style holds drawing attributes for a node kind or a relation
type Style struct {
	Shape     string `json:"shape,omitempty"`
	Fillcolor string `json:"fillcolor,omitempty"`
	Style     string `json:"style,omitempty"`
	Color     string `json:"color,omitempty"`
	Fontname  string `json:"fontname,omitempty"`
}

// Attributes returns the non-empty attributes keyed by their DOT names
func (s Style) Attributes() map[string]string {
	attrs := map[string]string{}
	for name, value := range map[string]string{
		"shape":     s.Shape,
		"fillcolor": s.Fillcolor,
		"style":     s.Style,
		"color":     s.Color,
		"fontname":  s.Fontname,
	} {
		if value != "" {
			attrs[name] = value
		}
	}
	return attrs
}

// EnabledKinds returns the kinds to fetch, in configured order without
// duplicates
func (c *Config) EnabledKinds() ([]resource.Kind, error) {
	kinds := make([]resource.Kind, 0, len(c.Kinds))
	for _, s := range c.Kinds {
		k, err := resource.ParseKind(s)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no resource kinds enabled")
	}
	return kinds, nil
}

// Styles converts the configuration into drawing styles
func (c *Config) Styles() graph.Styles {
	styles := graph.Styles{
		Graph: map[string]string{
			"rankdir": c.Graph.Rankdir,
			"size":    c.Graph.Size,
			"dpi":     strconv.Itoa(c.Graph.DPI),
		},
		Nodes: make(map[resource.Kind]map[string]string, len(c.Nodes)),
		Edges: make(map[graph.Relation]map[string]string, len(c.Edges)),
	}

	for kind, style := range c.Nodes {
		styles.Nodes[resource.Kind(kind)] = style.Attributes()
	}
	for relation, style := range c.Edges {
		styles.Edges[graph.Relation(relation)] = style.Attributes()
	}

	return styles
}
