package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/chazu/kubegraph/pkg/errdefs"
	"github.com/chazu/kubegraph/pkg/graph"
	"github.com/chazu/kubegraph/pkg/metrics"
)

// Formats produced without Graphviz
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultGraphvizBin is the executable used for image formats
const DefaultGraphvizBin = "dot"

// Target is the file a render writes: <Base>.<Format>
type Target struct {
	Base   string
	Format string
}

// Path returns the output file path
func (t Target) Path() string {
	return t.Base + "." + t.Format
}

// Options configures a Renderer
type Options struct {
	// GraphvizBin is the dot executable. Defaults to "dot" on PATH.
	GraphvizBin string
}

// Renderer writes descriptions to files
type Renderer struct {
	graphvizBin string
}

// NewRenderer creates a Renderer
func NewRenderer(opts Options) *Renderer {
	bin := opts.GraphvizBin
	if bin == "" {
		bin = DefaultGraphvizBin
	}
	return &Renderer{graphvizBin: bin}
}

// Render writes desc to target and returns the path written. Any failure is
// returned as an *errdefs.RenderError.
func (r *Renderer) Render(ctx context.Context, desc *graph.Description, target Target) (string, error) {
	logger := log.FromContext(ctx).WithValues("format", target.Format)
	path := target.Path()

	start := time.Now()
	err := r.render(ctx, desc, target, path)
	metrics.RecordRender(target.Format, metrics.Result(err), time.Since(start).Seconds())

	if err != nil {
		return "", &errdefs.RenderError{Path: path, Format: target.Format, Err: err}
	}

	logger.V(1).Info("Rendered graph", "path", path, "nodes", len(desc.Nodes), "edges", len(desc.Edges))
	return path, nil
}

func (r *Renderer) render(ctx context.Context, desc *graph.Description, target Target, path string) error {
	if target.Base == "" {
		return fmt.Errorf("output name is required")
	}

	switch target.Format {
	case "":
		return fmt.Errorf("output format is required")
	case FormatDOT:
		text, err := DOT(desc)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(text), 0o644)
	case FormatJSON:
		data, err := json.MarshalIndent(desc, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, append(data, '\n'), 0o644)
	case FormatYAML:
		data, err := yaml.Marshal(desc)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		return r.graphviz(ctx, desc, target.Format, path)
	}
}

// graphviz pipes the DOT text through the dot executable
func (r *Renderer) graphviz(ctx context.Context, desc *graph.Description, format, path string) error {
	var stdin bytes.Buffer
	if err := WriteDOT(&stdin, desc); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.graphvizBin, "-T"+format, "-o", path)
	cmd.Stdin = &stdin
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", r.graphvizBin, err, msg)
		}
		return fmt.Errorf("%s: %w", r.graphvizBin, err)
	}
	return nil
}
