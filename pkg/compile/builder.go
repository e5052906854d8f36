package compile

import (
	"slices"

	"github.com/timothycrosley/blox/internal/errors"
	"github.com/timothycrosley/blox/pkg/blox"
	"github.com/timothycrosley/blox/pkg/registry"
)

// Builder executes build steps against a registry. It is shared by
// Program.Build and by generated Go code. After the first failure every
// step is a no-op and Err reports that failure.
type Builder struct {
	reg      *registry.Registry
	fallback registry.Constructor
	ctors    map[string]registry.Constructor
	err      error
}

// NewBuilder creates a builder resolving tags in reg. fallback, if not
// nil, is used for tags reg does not register, ahead of reg's own
// fallback.
func NewBuilder(reg *registry.Registry, fallback registry.Constructor) *Builder {
	return &Builder{
		reg:      reg,
		fallback: fallback,
		ctors:    make(map[string]registry.Constructor),
	}
}

// resolve looks tag up in reg. Unregistered tags get fallback when set,
// else the registry's fallback.
func resolve(reg *registry.Registry, fallback registry.Constructor, tag string) (registry.Constructor, bool) {
	if ctor, ok := reg.Lookup(tag); ok {
		return ctor, true
	}
	if fallback != nil {
		return fallback, true
	}
	return reg.Fallback()
}

// Err returns the first build failure.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err *errors.BloxError, at string) {
	if b.err == nil {
		b.err = err.WithNode("", at)
	}
}

// Build constructs tag and adds it to parent.
func (b *Builder) Build(tag string, parent blox.Node, at string) blox.Node {
	if b.err != nil {
		return blox.NewInvalid()
	}
	ctor, ok := b.ctors[tag]
	if !ok {
		ctor, ok = resolve(b.reg, b.fallback, tag)
		if !ok {
			b.fail(errors.New("E041").WithDetailf("<%s> in registry %q", tag, b.reg.Name()), at)
			return blox.NewInvalid()
		}
		b.ctors[tag] = ctor
	}

	n := ctor()
	h, ok := parent.(blox.Holder)
	if !ok {
		b.fail(errors.New("E030").WithDetailf("%s cannot hold children", blox.Label(parent)), at)
		return n
	}
	h.Add(n)
	return n
}

// SetText sets the text property of n.
func (b *Builder) SetText(n blox.Node, text, at string) {
	if b.err != nil {
		return
	}
	if t, ok := n.(blox.TextHolder); ok {
		t.SetText(text)
		return
	}
	b.AddText(n, text, at)
}

// AddText appends a Text child to n.
func (b *Builder) AddText(n blox.Node, text, at string) {
	if b.err != nil {
		return
	}
	h, ok := n.(blox.Holder)
	if !ok {
		b.fail(errors.New("E030").WithDetailf("%s cannot hold text", blox.Label(n)), at)
		return
	}
	h.Add(blox.NewText(text))
}

// SetAttr puts name=value on n.
func (b *Builder) SetAttr(n blox.Node, name, value, at string) {
	if b.err != nil {
		return
	}
	if err := setAttr(n, name, value); err != nil {
		b.fail(errors.New("E045").Wrap(err).WithDetail(err.Error()), at)
	}
}

// Slot returns the nested attachment point name of n.
func (b *Builder) Slot(n blox.Node, name, at string) blox.Node {
	if b.err != nil {
		return blox.NewInvalid()
	}
	if nest, ok := n.(blox.Nester); ok {
		if s, ok := nest.Slot(name); ok {
			return s
		}
	}
	b.fail(errors.New("E045").WithDetailf("%s has no %q slot", blox.Label(n), name), at)
	return blox.NewInvalid()
}

func setAttr(n blox.Node, name, value string) error {
	t, ok := n.(blox.Tagged)
	if !ok {
		return errors.New("E002").WithDetailf("%s takes no attributes", blox.Label(n))
	}
	return t.Elem().Put(name, value)
}

// Template is a built template: the top-level nodes of the source plus
// the accessor and query tables.
type Template struct {
	blox.Container

	accessors map[string]blox.Node
	names     []string
	queries   map[string][]blox.Node
	queryList []string
}

func newTemplate(p *Program) *Template {
	t := &Template{
		accessors: make(map[string]blox.Node, len(p.Accessors)),
		names:     p.Accessors,
		queries:   make(map[string][]blox.Node, len(p.Queries)),
		queryList: p.Queries,
	}
	t.SetOwner(t)
	for _, q := range p.Queries {
		t.queries[q] = []blox.Node{}
	}
	return t
}

// Get returns the node exposed under accessor.
func (t *Template) Get(accessor string) (blox.Node, bool) {
	n, ok := t.accessors[accessor]
	return n, ok
}

// MustGet is like Get but panics when accessor is unknown.
func (t *Template) MustGet(accessor string) blox.Node {
	n, ok := t.accessors[accessor]
	if !ok {
		panic(errors.New("E012").WithDetailf("no accessor %q", accessor))
	}
	return n
}

// Query returns the nodes matched by the named query in document order.
// Every declared query has a non-nil list.
func (t *Template) Query(name string) []blox.Node {
	return t.queries[name]
}

// Accessors returns the accessor names in source order.
func (t *Template) Accessors() []string {
	return slices.Clone(t.names)
}

// Queries returns the query names in sorted order.
func (t *Template) Queries() []string {
	return slices.Clone(t.queryList)
}

// Build runs the program against reg and returns a fresh tree. Tags are
// resolved through reg, then the fallback given to Compile, then reg's
// own fallback.
func (p *Program) Build(reg *registry.Registry) (*Template, error) {
	t := newTemplate(p)
	b := NewBuilder(reg, p.fallback)
	vars := make([]blox.Node, len(p.Vars))
	vars[0] = t

	for _, in := range p.Code {
		switch in.Op {
		case OpBuild:
			vars[in.Var] = b.Build(in.Tag, vars[in.Parent], in.Path)
		case OpSlot:
			vars[in.Var] = b.Slot(vars[in.Parent], in.Name, in.Path)
		case OpSetText:
			b.SetText(vars[in.Var], in.Value, in.Path)
		case OpAddText:
			b.AddText(vars[in.Var], in.Value, in.Path)
		case OpSetAttr:
			b.SetAttr(vars[in.Var], in.Name, in.Value, in.Path)
		case OpExpose:
			t.accessors[in.Name] = vars[in.Var]
		case OpQuery:
			t.queries[in.Name] = append(t.queries[in.Name], vars[in.Var])
		}
		if err := b.Err(); err != nil {
			if be, ok := err.(*errors.BloxError); ok && p.File != "" {
				be.WithNode(p.File, be.Location.Node)
			}
			return nil, err
		}
	}
	return t, nil
}

// MustBuild is like Build but panics on error.
func (p *Program) MustBuild(reg *registry.Registry) *Template {
	t, err := p.Build(reg)
	if err != nil {
		panic(err)
	}
	return t
}
