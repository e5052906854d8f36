package compile

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/timothycrosley/blox/internal/errors"
	"github.com/timothycrosley/blox/pkg/blox"
	"github.com/timothycrosley/blox/pkg/registry"
)

// Sentinels for errors.Is. ErrCompile matches every compile error.
var (
	ErrCompile           = errors.CategorySentinel(errors.CategoryCompile)
	ErrUnregisteredTag   = errors.Sentinel("E041")
	ErrDuplicateAccessor = errors.Sentinel("E042")
	ErrInvalidQuery      = errors.Sentinel("E043")
	ErrSourceParse       = errors.Sentinel("E044")
	ErrBuild             = errors.Sentinel("E045")
)

// AccessorAttr is the reserved attribute naming the template field that
// exposes an element. It is never rendered.
const AccessorAttr = "accessor"

// Options configures Compile.
type Options struct {
	// Registry resolves tags at compile time. Tags must also resolve in
	// the registry later passed to Program.Build.
	Registry *registry.Registry

	// Strict rejects duplicate accessors instead of keeping the last one.
	Strict bool

	// Fallback is used for unregistered tags in place of the registry's
	// own fallback.
	Fallback registry.Constructor

	// Queries maps result list names to CSS selectors.
	Queries map[string]string

	// File names the template in error locations.
	File string
}

// Op is a build instruction kind.
type Op uint8

const (
	// OpBuild constructs Tag and adds it to Parent, storing it in Var.
	OpBuild Op = iota
	// OpSetText sets the text property of Var.
	OpSetText
	// OpAddText adds a Text child to Var.
	OpAddText
	// OpSetAttr puts Name=Value on Var.
	OpSetAttr
	// OpExpose stores Var as accessor Name.
	OpExpose
	// OpSlot stores the nested attachment point Name of Parent in Var.
	OpSlot
	// OpQuery appends Var to query list Name.
	OpQuery
)

var opNames = [...]string{"build", "set_text", "add_text", "set_attr", "expose", "slot", "query"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// Instruction is one step of a build procedure. Var 0 is the template.
type Instruction struct {
	Op     Op
	Var    int
	Parent int
	Tag    string
	Name   string
	Value  string
	Path   string
}

// Program is a compiled template: a flat build procedure plus the names
// of its accessors and queries. A Program is immutable and may be built
// concurrently.
type Program struct {
	File      string
	Code      []Instruction
	Vars      []string
	Tags      []string
	Accessors []string
	Queries   []string

	fallback registry.Constructor
}

type compiler struct {
	opts     Options
	prog     *Program
	protos  map[string]blox.Node
	exposed map[string]bool
	counts  map[string]int
	used    map[string]bool
	queries *matcher
}

// Compile walks src once and returns the equivalent build procedure.
func Compile(src *Source, opts Options) (*Program, error) {
	if opts.Registry == nil {
		opts.Registry = registry.New("")
	}
	if src.Tag != "" {
		src = Fragment(src)
	}

	m, err := newMatcher(src, opts.Queries)
	if err != nil {
		return nil, err
	}

	c := &compiler{
		opts:    opts,
		prog:    &Program{File: opts.File, Vars: []string{"template"}, fallback: opts.Fallback},
		protos:  make(map[string]blox.Node),
		exposed: make(map[string]bool),
		counts:  make(map[string]int),
		used:    map[string]bool{"template": true},
		queries: m,
	}
	c.prog.Queries = slices.Sorted(maps.Keys(opts.Queries))

	root := blox.NewContainer()
	if err := c.text(0, root, src.Text, "", false); err != nil {
		return nil, err
	}
	if err := c.children(src, 0, root, ""); err != nil {
		return nil, err
	}
	return c.prog, nil
}

func (c *compiler) emit(in Instruction) {
	c.prog.Code = append(c.prog.Code, in)
}

// newVar allocates a variable named after tag and its running count.
func (c *compiler) newVar(tag string) int {
	c.counts[tag]++
	name := ident(strings.ToLower(tag)) + strconv.Itoa(c.counts[tag])
	for c.used[name] {
		name += "_"
	}
	c.used[name] = true
	c.prog.Vars = append(c.prog.Vars, name)
	return len(c.prog.Vars) - 1
}

// prototype returns a sample node for tag, used to inspect what the
// constructed node supports.
func (c *compiler) prototype(tag, at string) (blox.Node, error) {
	if p, ok := c.protos[tag]; ok {
		return p, nil
	}
	ctor, ok := resolve(c.opts.Registry, c.opts.Fallback, tag)
	if !ok {
		return nil, errors.New("E041").WithDetailf("<%s>", tag).WithNode(c.opts.File, at)
	}
	p := ctor()
	c.protos[tag] = p
	c.prog.Tags = append(c.prog.Tags, tag)
	return p, nil
}

// element emits the build procedure for src as a child of parent.
func (c *compiler) element(src *Source, parent int, parentProto blox.Node, at string) error {
	if _, ok := parentProto.(blox.Holder); !ok {
		return c.leaf(parentProto, at)
	}
	proto, err := c.prototype(src.Tag, at)
	if err != nil {
		return err
	}

	v := c.newVar(src.Tag)
	c.emit(Instruction{Op: OpBuild, Var: v, Parent: parent, Tag: src.Tag, Path: at})
	for _, name := range c.queries.matches(src) {
		c.emit(Instruction{Op: OpQuery, Var: v, Name: name, Path: at})
	}
	return c.contents(src, v, proto, at)
}

// contents emits text, attributes and children of src onto v.
func (c *compiler) contents(src *Source, v int, proto blox.Node, at string) error {
	if err := c.text(v, proto, src.Text, at, true); err != nil {
		return err
	}
	if err := c.attrs(src, v, proto, at); err != nil {
		return err
	}
	return c.children(src, v, proto, at)
}

func (c *compiler) text(v int, proto blox.Node, text, at string, settable bool) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if _, ok := proto.(blox.TextHolder); ok && settable {
		c.emit(Instruction{Op: OpSetText, Var: v, Value: text, Path: at})
		return nil
	}
	if _, ok := proto.(blox.Holder); !ok {
		return c.leaf(proto, at)
	}
	c.emit(Instruction{Op: OpAddText, Var: v, Value: text, Path: at})
	return nil
}

// attrs emits set_attr for every attribute and expose for the accessor.
// Values are applied to the prototype so conversion errors surface at
// compile time.
func (c *compiler) attrs(src *Source, v int, proto blox.Node, at string) error {
	accessor, explicit := src.Get(AccessorAttr)
	for _, a := range src.Attrs {
		if a.Name == AccessorAttr {
			continue
		}
		if err := setAttr(proto, a.Name, a.Value); err != nil {
			return errors.FromError(err, "E045").WithNode(c.opts.File, at)
		}
		c.emit(Instruction{Op: OpSetAttr, Var: v, Name: a.Name, Value: a.Value, Path: at})
	}
	if !explicit {
		accessor, _ = src.Get("id")
	}
	if accessor == "" {
		return nil
	}

	name := ident(accessor)
	if c.exposed[name] {
		if c.opts.Strict {
			return errors.New("E042").WithDetailf("%q", name).WithNode(c.opts.File, at)
		}
	} else {
		c.exposed[name] = true
		c.prog.Accessors = append(c.prog.Accessors, name)
	}
	c.emit(Instruction{Op: OpExpose, Var: v, Name: name, Path: at})
	return nil
}

func (c *compiler) children(src *Source, v int, proto blox.Node, at string) error {
	nest, _ := proto.(blox.Nester)
	for i, child := range src.Children {
		childAt := path(at, child.Tag, i)
		if nest != nil && slices.Contains(nest.Slots(), child.Tag) {
			if err := c.slot(child, v, nest, childAt); err != nil {
				return err
			}
		} else if err := c.element(child, v, proto, childAt); err != nil {
			return err
		}
		if err := c.text(v, proto, child.Tail, at, false); err != nil {
			return err
		}
	}
	return nil
}

// slot attaches src's contents to the nested attachment point of the same
// name instead of building a new node.
func (c *compiler) slot(src *Source, parent int, nest blox.Nester, at string) error {
	proto, _ := nest.Slot(src.Tag)
	v := c.newVar(src.Tag)
	c.emit(Instruction{Op: OpSlot, Var: v, Parent: parent, Name: src.Tag, Path: at})
	for _, name := range c.queries.matches(src) {
		c.emit(Instruction{Op: OpQuery, Var: v, Name: name, Path: at})
	}
	return c.contents(src, v, proto, at)
}

func (c *compiler) leaf(proto blox.Node, at string) error {
	return errors.New("E030").WithDetailf("%s cannot hold children or text", blox.Label(proto)).WithNode(c.opts.File, at)
}

// ident turns s into a Go identifier fragment: characters outside letters,
// digits and underscore become underscores and a leading digit is
// prefixed with one.
func ident(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r) || (unicode.IsDigit(r) && i > 0):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
