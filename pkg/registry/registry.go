// Package registry maps element names to node constructors.
//
// A Registry is populated once, typically by a tag catalogue such as
// pkg/dom, and then read by hand-written code and by compiled templates:
//
//	reg := registry.New("ui")
//	reg.Register(func() blox.Node { return NewCard() })
//	card, err := reg.Build("card", blox.A("id", "intro"))
//
// Names are case-insensitive. Registering a name twice replaces the first
// constructor. Registries are safe for concurrent reads, but population
// should finish before templates are built concurrently.
package registry

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/timothycrosley/blox/internal/errors"
	"github.com/timothycrosley/blox/pkg/blox"
)

// ErrUnknownElement is returned when building a name with no constructor.
var ErrUnknownElement = errors.Sentinel("E001")

// Constructor creates a fresh node.
type Constructor func() blox.Node

// Registry is a thread-safe name to constructor table.
type Registry struct {
	name string

	mu       sync.RWMutex
	items    map[string]Constructor
	fallback Constructor
}

// New creates an empty registry. The name is used as the prefix when the
// registry is composed into another one.
func New(name string) *Registry {
	return &Registry{
		name:  name,
		items: make(map[string]Constructor),
	}
}

// Name returns the registry name.
func (r *Registry) Name() string {
	return r.name
}

// Register stores ctor under the lowercase alias, or under the name the
// constructed node reports when no alias is given: its DefaultName, its
// tag, or finally its type name. It returns the name used.
func (r *Registry) Register(ctor Constructor, alias ...string) string {
	name := ""
	if len(alias) > 0 && alias[0] != "" {
		name = alias[0]
	} else {
		name = DefaultName(ctor())
	}
	name = strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = ctor
	return name
}

// DefaultName derives the registration name of a node.
func DefaultName(n blox.Node) string {
	if d, ok := n.(interface{ DefaultName() string }); ok {
		if name := d.DefaultName(); name != "" {
			return name
		}
	}
	if t, ok := n.(blox.Tagged); ok && t.Elem().Tag() != "" {
		return t.Elem().Tag()
	}
	typ := reflect.TypeOf(n)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ.Name()
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.items[strings.ToLower(name)]
	return ctor, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Build constructs the node registered under name and applies attrs to it
// with Put. Attributes require the node to be Tagged.
func (r *Registry) Build(name string, attrs ...blox.Attr) (blox.Node, error) {
	ctor, ok := r.Lookup(name)
	if !ok {
		return nil, errors.New("E001").WithDetailf("%q in registry %q", name, r.name)
	}
	n := ctor()
	if len(attrs) == 0 {
		return n, nil
	}
	t, ok := n.(blox.Tagged)
	if !ok {
		return nil, errors.New("E002").WithDetailf("%q builds %T, which takes no attributes", name, n)
	}
	for _, a := range attrs {
		if err := t.Elem().Put(a.Name, a.Value); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// MustBuild is like Build but panics on error.
func (r *Registry) MustBuild(name string, attrs ...blox.Attr) blox.Node {
	n, err := r.Build(name, attrs...)
	if err != nil {
		panic(err)
	}
	return n
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// SetFallback sets the constructor used by compiled templates for tags
// that are not registered. Direct Build calls never use it.
func (r *Registry) SetFallback(ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = ctor
}

// Fallback returns the fallback constructor, if any.
func (r *Registry) Fallback() (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback, r.fallback != nil
}

// Resolve returns the constructor for name, falling back to the fallback
// constructor when one is set.
func (r *Registry) Resolve(name string) (Constructor, bool) {
	if ctor, ok := r.Lookup(name); ok {
		return ctor, true
	}
	return r.Fallback()
}

// ComposeOption configures Compose.
type ComposeOption func(*composeConfig)

type composeConfig struct {
	prefixes map[*Registry]string
	name     string
}

// WithPrefix overrides the prefix of one contributing registry. An empty
// prefix disables prefixed names for it.
func WithPrefix(r *Registry, prefix string) ComposeOption {
	return func(c *composeConfig) { c.prefixes[r] = prefix }
}

// Named sets the name of the composed registry.
func Named(name string) ComposeOption {
	return func(c *composeConfig) { c.name = name }
}

// Compose returns a new registry holding the union of regs. Later
// registries win on name clashes. Every contributing registry with a
// non-empty prefix, its name unless overridden, is also reachable as
// "prefix-name". The first fallback found is kept.
func Compose(regs []*Registry, opts ...ComposeOption) *Registry {
	cfg := composeConfig{prefixes: make(map[*Registry]string)}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := New(cfg.name)
	for _, r := range regs {
		prefix, ok := cfg.prefixes[r]
		if !ok {
			prefix = r.name
		}
		prefix = strings.ToLower(prefix)

		r.mu.RLock()
		for name, ctor := range r.items {
			out.items[name] = ctor
			if prefix != "" {
				out.items[prefix+"-"+name] = ctor
			}
		}
		if out.fallback == nil {
			out.fallback = r.fallback
		}
		r.mu.RUnlock()
	}
	return out
}
