// Package render wraps blox rendering with the operational concerns of a
// server: OpenTelemetry spans, Prometheus metrics, structured logging and
// chunked streaming to an http.ResponseWriter.
//
// The markup itself always comes from blox.Node.Output; this package never
// changes what is written, only observes it.
//
// # Basic Usage
//
//	r := render.NewRenderer(render.RendererConfig{
//	    Formatted: true,
//	    Metrics:   render.NewMetrics(render.WithRegistry(reg)),
//	})
//	html, err := r.RenderToString(ctx, "home", page)
//
// # Streaming
//
// For large pages, StreamingRenderer flushes every ChunkSize bytes:
//
//	sr := render.NewStreamingRenderer(w, config)
//	err := sr.Render(r.Context(), "report", table)
//
// # Tracing
//
// Spans are named "blox.<operation>" and carry the template name. They use
// the global tracer provider; without one configured they are no-ops.
package render
