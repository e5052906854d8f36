package server

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timothycrosley/blox/internal/errors"
	"github.com/timothycrosley/blox/pkg/blox"
	"github.com/timothycrosley/blox/pkg/dom"
	"github.com/timothycrosley/blox/pkg/render"
	"github.com/timothycrosley/blox/pkg/templates"
)

// TreePrefix serves the node tree of a template as text.
const TreePrefix = "/_blox/tree/"

// Options configures the preview server.
type Options struct {
	// Templates supplies the pages. Required.
	Templates *templates.Set

	// Render configures output formatting, metrics and tracing.
	Render render.RendererConfig

	// Gatherer, if set, is exposed at /metrics.
	Gatherer prometheus.Gatherer

	// Watcher, if set, drives live reload: pages get ReloadScript and
	// connected browsers reload when templates change.
	Watcher *templates.Watcher

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// ShutdownTimeout bounds graceful shutdown (default: 5s).
	ShutdownTimeout time.Duration
}

// Server renders templates over HTTP.
type Server struct {
	opts     Options
	router   chi.Router
	renderer *render.Renderer
	reload   *ReloadHub
	logger   *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a preview server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")
	if opts.Render.Logger == nil {
		opts.Render.Logger = logger
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		opts:     opts,
		renderer: render.NewRenderer(opts.Render),
		logger:   logger,
	}
	if opts.Watcher != nil {
		s.reload = NewReloadHub(logger)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if s.reload != nil {
		r.Handle(ReloadPath, s.reload)
	}
	r.Get(TreePrefix+"*", s.handleTree)
	r.Get("/", s.handleIndex)
	r.Get("/*", s.handleRender)

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Reload returns the live reload hub, or nil when reload is off.
func (s *Server) Reload() *ReloadHub {
	return s.reload
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	if s.reload != nil {
		go s.forwardChanges(ctx)
	}

	s.logger.Info("server running", "addr", ln.Addr().String(), "reload", s.reload != nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the server and closes reload connections.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if s.reload != nil {
		s.reload.Close()
	}
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// forwardChanges relays watcher bursts to connected browsers.
func (s *Server) forwardChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case names, ok := <-s.opts.Watcher.Changes():
			if !ok {
				return
			}
			s.reload.ClearError()
			s.reload.NotifyReload(names)
			s.logger.Info("reloaded browsers", "templates", names, "clients", s.reload.ClientCount())
		}
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func templateName(r *http.Request) string {
	return strings.Trim(chi.URLParam(r, "*"), "/")
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := templateName(r)
	if name == "" {
		s.handleIndex(w, r)
		return
	}

	tmpl, err := s.opts.Templates.Build(r.Context(), name)
	if err != nil {
		s.fail(w, name, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	sr := render.NewStreamingRendererTo(w, s.renderer)
	if err := sr.Render(r.Context(), name, tmpl); err != nil {
		// Headers are gone; the renderer has logged the failure.
		return
	}
	if s.reload != nil {
		io.WriteString(w, ReloadScript)
	}
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	name := templateName(r)
	tmpl, err := s.opts.Templates.Build(r.Context(), name)
	if err != nil {
		s.fail(w, name, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, blox.Tree(tmpl))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	names, err := s.opts.Templates.List()
	if err != nil {
		s.fail(w, "", err)
		return
	}

	doc := dom.NewDocument()
	doc.SetTitle("Templates")
	doc.Add(dom.H1("Templates"))
	items := make([]blox.Node, 0, len(names))
	for _, name := range names {
		items = append(items, dom.Li(
			dom.A(blox.A("href", "/"+name), name),
			" ",
			dom.A(blox.A("href", TreePrefix+name), "tree"),
		))
	}
	doc.Add(dom.Ul(items))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderToWriter(r.Context(), w, "index", doc); err != nil {
		return
	}
	if s.reload != nil {
		io.WriteString(w, ReloadScript)
	}
}

// fail writes err as plain text with a status derived from its code.
func (s *Server) fail(w http.ResponseWriter, name string, err error) {
	status := http.StatusInternalServerError
	if stderrors.Is(err, templates.ErrNotFound) {
		status = http.StatusNotFound
	} else if s.reload != nil {
		s.reload.NotifyError(err.Error())
	}
	s.logger.Warn("request failed", "template", name, "status", status, "code", errors.Code(err))
	http.Error(w, err.Error(), status)
}
