package render

import (
	"context"
	"io"
	"net/http"

	"github.com/timothycrosley/blox/pkg/blox"
)

// DefaultChunkSize is the number of bytes written between flushes.
const DefaultChunkSize = 4096

// StreamingRenderer wraps Renderer with chunked output. Markup is flushed
// whenever ChunkSize bytes have accumulated and once at the end, so the
// client sees the head of a large page early.
type StreamingRenderer struct {
	*Renderer
	ChunkSize int

	flusher http.Flusher
	w       io.Writer
}

// NewStreamingRenderer creates a streaming renderer writing to w. If w
// implements http.Flusher, content is flushed incrementally.
func NewStreamingRenderer(w http.ResponseWriter, config RendererConfig) *StreamingRenderer {
	return NewStreamingRendererTo(w, NewRenderer(config))
}

// NewStreamingRendererTo is like NewStreamingRenderer for any writer and
// an existing Renderer.
func NewStreamingRendererTo(w io.Writer, r *Renderer) *StreamingRenderer {
	flusher, _ := w.(http.Flusher)
	return &StreamingRenderer{
		Renderer:  r,
		ChunkSize: DefaultChunkSize,
		flusher:   flusher,
		w:         w,
	}
}

// Render streams n to the underlying writer.
func (s *StreamingRenderer) Render(ctx context.Context, name string, n blox.Node) error {
	cw := &chunkWriter{w: s.w, size: s.ChunkSize, flush: s.flush}
	err := s.RenderToWriter(ctx, cw, name, n)
	s.flush()
	return err
}

func (s *StreamingRenderer) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

type chunkWriter struct {
	w       io.Writer
	size    int
	pending int
	flush   func()
}

func (c *chunkWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.pending += n
	if c.size > 0 && c.pending >= c.size {
		c.flush()
		c.pending = 0
	}
	return n, err
}

// FlushableWriter wraps an io.Writer with a counting Flush, for exercising
// streaming without an http.ResponseWriter.
type FlushableWriter struct {
	io.Writer
	FlushCount int
}

// Flush implements http.Flusher.
func (w *FlushableWriter) Flush() {
	w.FlushCount++
}
