package templates

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timothycrosley/blox/pkg/compile"
	"github.com/timothycrosley/blox/pkg/registry"
	"github.com/timothycrosley/blox/pkg/render"
)

// Options configures a Set.
type Options struct {
	// Loader reads template source. Required.
	Loader Loader

	// Registry resolves tags when compiling and building. Required.
	Registry *registry.Registry

	// Strict, Fallback and Queries are passed to compile.Compile.
	Strict   bool
	Fallback registry.Constructor
	Queries  map[string]string

	// TTL is how long a compiled program is kept. Zero keeps programs
	// until they are invalidated.
	TTL time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, if set, records compilations and builds.
	Metrics *render.Metrics

	// TracerName selects the OpenTelemetry tracer (default: "blox").
	TracerName string
}

// Set loads, compiles and caches templates by name. Compiled programs are
// shared; every Build returns a fresh tree. A Set is safe for concurrent
// use.
type Set struct {
	opts   Options
	cache  *gocache.Cache
	logger *slog.Logger
	tracer trace.Tracer

	// mu serializes compilation so a cold template is compiled once.
	mu sync.Mutex
}

// New creates a template set.
func New(opts Options) *Set {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if opts.TTL > 0 {
		expiration = opts.TTL
		cleanup = 2 * opts.TTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		opts:   opts,
		cache:  gocache.New(expiration, cleanup),
		logger: logger.With("component", "templates"),
		tracer: render.Tracer(opts.TracerName),
	}
}

// Registry returns the registry templates are built with.
func (s *Set) Registry() *registry.Registry {
	return s.opts.Registry
}

// Program returns the compiled program for name, compiling it on first
// use or after expiry.
func (s *Set) Program(ctx context.Context, name string) (*compile.Program, error) {
	if p, ok := s.cached(name); ok {
		return p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.cached(name); ok {
		return p, nil
	}

	ctx, span := render.StartSpan(ctx, s.tracer, "compile", name)
	start := time.Now()
	p, err := s.compile(ctx, name)
	elapsed := time.Since(start)
	if p != nil {
		span.SetAttributes(attribute.Int("blox.instructions", len(p.Code)))
	}
	render.EndSpan(span, err)
	s.opts.Metrics.ObserveCompile(name, elapsed, err)

	if err != nil {
		s.logger.Error("compile failed", "template", name, "error", err)
		return nil, err
	}
	s.logger.Info("compiled", "template", name, "instructions", len(p.Code), "duration", elapsed)
	s.cache.Set(name, p, gocache.DefaultExpiration)
	return p, nil
}

func (s *Set) cached(name string) (*compile.Program, bool) {
	v, ok := s.cache.Get(name)
	if !ok {
		return nil, false
	}
	p, ok := v.(*compile.Program)
	return p, ok
}

func (s *Set) compile(ctx context.Context, name string) (*compile.Program, error) {
	f, err := s.opts.Loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	src, err := f.Parse()
	if err != nil {
		return nil, err
	}
	return compile.Compile(src, compile.Options{
		Registry: s.opts.Registry,
		Strict:   s.opts.Strict,
		Fallback: s.opts.Fallback,
		Queries:  s.opts.Queries,
		File:     f.Path,
	})
}

// Build returns a fresh tree for name.
func (s *Set) Build(ctx context.Context, name string) (*compile.Template, error) {
	p, err := s.Program(ctx, name)
	if err != nil {
		return nil, err
	}

	_, span := render.StartSpan(ctx, s.tracer, "build", name)
	t, err := p.Build(s.opts.Registry)
	render.EndSpan(span, err)
	s.opts.Metrics.ObserveBuild(name, err)
	if err != nil {
		s.logger.Error("build failed", "template", name, "error", err)
		return nil, err
	}
	return t, nil
}

// Invalidate drops the cached program for each name.
func (s *Set) Invalidate(names ...string) {
	for _, name := range names {
		s.cache.Delete(name)
	}
	s.logger.Debug("invalidated", "templates", names)
}

// InvalidateAll drops every cached program.
func (s *Set) InvalidateAll() {
	s.cache.Flush()
	s.logger.Debug("invalidated all templates")
}

// Lister is implemented by loaders that can enumerate their templates.
type Lister interface {
	List() ([]string, error)
}

// List returns the template names the loader knows about. Loaders that
// cannot enumerate report the cached names instead.
func (s *Set) List() ([]string, error) {
	if l, ok := s.opts.Loader.(Lister); ok {
		return l.List()
	}
	return s.Cached(), nil
}

// Cached returns the names of the programs currently cached, sorted.
func (s *Set) Cached() []string {
	return slices.Sorted(maps.Keys(s.cache.Items()))
}
