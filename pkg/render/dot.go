package render

import (
	"io"
	"slices"
	"strings"
	"text/template"

	"github.com/chazu/kubegraph/pkg/graph"
)

var dotTemplate = template.Must(template.New("dot").Funcs(template.FuncMap{
	"quote": quote,
	"attrs": attrs,
}).Parse(`digraph {{ quote .Name }} {
{{- if .Attributes }}
	graph [{{ attrs .Attributes }}];
{{- end }}
{{- range .Nodes }}
	{{ quote .ID }} [{{ attrs .Attributes }}];
{{- end }}
{{- range .Edges }}
	{{ quote .From }} -> {{ quote .To }} [{{ attrs .Attributes }}];
{{- end }}
}
`))

// WriteDOT writes desc as a Graphviz digraph. Nodes and edges keep the
// description's order and attributes are sorted by name, so equal
// descriptions produce identical text.
func WriteDOT(w io.Writer, desc *graph.Description) error {
	return dotTemplate.Execute(w, desc)
}

// DOT returns desc as Graphviz text
func DOT(desc *graph.Description) (string, error) {
	var b strings.Builder
	if err := WriteDOT(&b, desc); err != nil {
		return "", err
	}
	return b.String(), nil
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")

// quote returns s as a double-quoted DOT ID
func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// attrs formats an attribute list: name="value", ...
func attrs(m map[string]string) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + quote(m[name])
	}
	return strings.Join(parts, ", ")
}
