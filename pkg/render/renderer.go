package render

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timothycrosley/blox/pkg/blox"
)

// RendererConfig configures the instrumented renderer.
type RendererConfig struct {
	// Formatted enables indented output with one node per line.
	Formatted bool

	// Indent is the string used for each indentation level in formatted
	// mode. Defaults to blox.DefaultIndentUnit.
	Indent string

	// Logger receives render failures and debug timings.
	// Default: slog.Default()
	Logger *slog.Logger

	// Metrics, if set, records every render.
	Metrics *Metrics

	// TracerName selects the OpenTelemetry tracer (default: "blox").
	TracerName string
}

// Renderer renders node trees with tracing, metrics and logging around
// blox.Node.Output. It holds no per-render state and is safe for
// concurrent use on distinct trees.
type Renderer struct {
	config RendererConfig
	opts   blox.Options
	tracer trace.Tracer
	logger *slog.Logger
}

// NewRenderer creates a Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = blox.DefaultIndentUnit
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Renderer{
		config: config,
		opts:   blox.Options{Formatted: config.Formatted, IndentUnit: config.Indent},
		tracer: Tracer(config.TracerName),
		logger: logger.With("component", "render"),
	}
}

// Config returns the renderer configuration.
func (r *Renderer) Config() RendererConfig {
	return r.config
}

// Options returns the blox render options derived from the configuration.
func (r *Renderer) Options() blox.Options {
	return r.opts
}

// RenderToString renders n to a string. name labels the render in
// metrics, spans and logs.
func (r *Renderer) RenderToString(ctx context.Context, name string, n blox.Node) (string, error) {
	var b strings.Builder
	if err := r.RenderToWriter(ctx, &b, name, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderToWriter renders n to w.
func (r *Renderer) RenderToWriter(ctx context.Context, w io.Writer, name string, n blox.Node) error {
	_, span := StartSpan(ctx, r.tracer, "render", name,
		attribute.Bool("blox.formatted", r.config.Formatted),
		attribute.String("blox.root", blox.Label(n)),
	)

	start := time.Now()
	cw := &countingWriter{w: w}
	err := n.Output(cw, r.opts)
	elapsed := time.Since(start)

	span.SetAttributes(attribute.Int64("blox.bytes", cw.n))
	EndSpan(span, err)
	r.config.Metrics.ObserveRender(name, elapsed, cw.n, err)

	if err != nil {
		r.logger.Error("render failed", "template", name, "error", err)
		return err
	}
	r.logger.Debug("rendered", "template", name, "bytes", cw.n, "duration", elapsed)
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
