package blox

import (
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/timothycrosley/blox/internal/errors"
	"github.com/timothycrosley/blox/pkg/signal"
)

// Attr is a name/value pair applied to an element with Put.
type Attr struct {
	Name  string
	Value any
}

// A is shorthand for Attr{name, value}.
func A(name string, value any) Attr {
	return Attr{Name: name, Value: value}
}

// ElementOption configures a new element.
type ElementOption func(*Element)

// SelfClosing makes the element render as <tag/> with no end tag.
func SelfClosing() ElementOption {
	return func(e *Element) { e.selfClosing = true }
}

// WithSchema replaces the element's declared attributes. The default is
// GlobalSchema.
func WithSchema(s *Schema) ElementOption {
	return func(e *Element) { e.schema = s }
}

// WithAttrs applies attributes with Put. Errors panic, as the attributes
// are fixed at the call site.
func WithAttrs(attrs ...Attr) ElementOption {
	return func(e *Element) { e.attrInit = append(e.attrInit, attrs...) }
}

// bag is the free-form attribute map. Keys keep insertion order.
type bag struct {
	keys   []string
	values map[string]any
}

// Element is a node rendering a single tag. Declared attributes are
// resolved through the element's Schema; anything else lives in a
// free-form attribute bag.
type Element struct {
	tag         string
	selfClosing bool
	schema      *Schema
	direct      map[string]any
	attrs       *bag
	signals     signal.Emitter
	attrInit    []Attr
}

// NewElement creates an element for tag.
func NewElement(tag string, opts ...ElementOption) *Element {
	e := &Element{}
	e.init(tag, opts)
	return e
}

func (e *Element) init(tag string, opts []ElementOption) {
	e.tag = tag
	e.schema = GlobalSchema
	for _, opt := range opts {
		opt(e)
	}
	e.signals.Declare(e.schema.Signals()...)
	for _, a := range e.attrInit {
		if err := e.Put(a.Name, a.Value); err != nil {
			panic(err)
		}
	}
	e.attrInit = nil
}

// Tag returns the element name.
func (e *Element) Tag() string { return e.tag }

// IsSelfClosing reports whether the element renders without an end tag.
func (e *Element) IsSelfClosing() bool { return e.selfClosing }

// Schema returns the declared attributes of the element.
func (e *Element) Schema() *Schema { return e.schema }

// Elem implements Tagged.
func (e *Element) Elem() *Element { return e }

// DefaultName is the name the element registers under by default.
func (e *Element) DefaultName() string { return e.tag }

// Descriptor returns the declared attribute named name.
func (e *Element) Descriptor(name string) (Descriptor, bool) {
	return e.schema.Lookup(name)
}

// Get reads a declared attribute.
func (e *Element) Get(name string) (any, error) {
	d, ok := e.schema.Lookup(name)
	if !ok {
		return nil, e.unknown(name)
	}
	return d.Get(e)
}

// Set writes a declared attribute.
func (e *Element) Set(name string, v any) error {
	d, ok := e.schema.Lookup(name)
	if !ok {
		return e.unknown(name)
	}
	return d.Set(e, v)
}

// Delete unsets a declared attribute.
func (e *Element) Delete(name string) error {
	d, ok := e.schema.Lookup(name)
	if !ok {
		return e.unknown(name)
	}
	d.Delete(e)
	return nil
}

func (e *Element) unknown(name string) error {
	return errors.New("E011").WithDetailf("<%s> has no declared attribute %q", e.tag, name)
}

// Put writes name through its descriptor when declared and into the
// attribute bag otherwise.
func (e *Element) Put(name string, v any) error {
	if d, ok := e.schema.Lookup(name); ok {
		return d.Set(e, v)
	}
	e.SetAttr(name, v)
	return nil
}

// Attr returns a free-form attribute. A key that was never set yields an
// error matching ErrMissingAttribute.
func (e *Element) Attr(key string) (any, error) {
	if e.attrs != nil {
		if v, ok := e.attrs.values[key]; ok {
			return v, nil
		}
	}
	return nil, errors.New("E010").WithDetailf("<%s> has no attribute %q", e.tag, key)
}

// SetAttr sets a free-form attribute. New keys render after existing ones.
func (e *Element) SetAttr(key string, v any) {
	if e.attrs == nil {
		e.attrs = &bag{values: make(map[string]any)}
	}
	if _, ok := e.attrs.values[key]; !ok {
		e.attrs.keys = append(e.attrs.keys, key)
	}
	e.attrs.values[key] = v
}

// DelAttr removes a free-form attribute if present.
func (e *Element) DelAttr(key string) {
	if e.attrs == nil {
		return
	}
	if _, ok := e.attrs.values[key]; !ok {
		return
	}
	delete(e.attrs.values, key)
	e.attrs.keys = slices.DeleteFunc(e.attrs.keys, func(k string) bool { return k == key })
}

// HasAttr reports whether a free-form attribute is set.
func (e *Element) HasAttr(key string) bool {
	if e.attrs == nil {
		return false
	}
	_, ok := e.attrs.values[key]
	return ok
}

// Attrs iterates over the free-form attributes in insertion order.
func (e *Element) Attrs() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if e.attrs == nil {
			return
		}
		for _, k := range e.attrs.keys {
			if !yield(k, e.attrs.values[k]) {
				return
			}
		}
	}
}

func (e *Element) setDirect(name string, v any) {
	if e.direct == nil {
		e.direct = make(map[string]any)
	}
	e.direct[name] = v
}

// ID returns the id attribute. Without a declared id it is read from
// the attribute bag.
func (e *Element) ID() string {
	if e.schema.Has(ID.Name()) {
		return ID.Value(e)
	}
	v, _ := e.Attr(ID.Name())
	return stringify(v)
}

// SetID sets the id attribute, in the attribute bag when the schema
// does not declare one.
func (e *Element) SetID(id string) {
	if e.schema.Has(ID.Name()) {
		ID.SetValue(e, id)
		return
	}
	e.SetAttr(ID.Name(), id)
}

// AddClass adds class names, keeping the first occurrence of each.
func (e *Element) AddClass(names ...string) {
	if e.schema.Has(Class.Name()) {
		Class.Add(e, names...)
		return
	}
	list := e.bagClasses()
	for _, n := range names {
		list = append(list, strings.Fields(n)...)
	}
	e.setBagClasses(uniq(list))
}

// RemoveClass removes class names.
func (e *Element) RemoveClass(names ...string) {
	if e.schema.Has(Class.Name()) {
		Class.Remove(e, names...)
		return
	}
	e.setBagClasses(slices.DeleteFunc(e.bagClasses(), func(n string) bool {
		return slices.Contains(names, n)
	}))
}

// HasClass reports whether name is one of the element's classes.
func (e *Element) HasClass(name string) bool {
	if e.schema.Has(Class.Name()) {
		return Class.Has(e, name)
	}
	return slices.Contains(e.bagClasses(), name)
}

// bagClasses returns the class names held in the attribute bag.
func (e *Element) bagClasses() []string {
	v, _ := e.Attr(Class.Name())
	return strings.Fields(stringify(v))
}

func (e *Element) setBagClasses(names []string) {
	if len(names) == 0 {
		e.DelAttr(Class.Name())
		return
	}
	e.SetAttr(Class.Name(), strings.Join(names, " "))
}

// Connect subscribes h to one of the signals declared by the schema.
func (e *Element) Connect(name string, h signal.Handler) (*signal.Subscription, error) {
	return e.signals.Connect(name, h)
}

// Emit sends payload to the handlers of name.
func (e *Element) Emit(name string, payload any) {
	e.signals.Emit(name, payload)
}

// StartTag renders the opening tag with all non-empty attributes: declared
// ones in schema order, then the bag in insertion order.
func (e *Element) StartTag() string {
	var rendered []string
	for _, d := range e.schema.list() {
		if s, ok := d.Render(e); ok {
			rendered = append(rendered, s)
		}
	}
	for k, v := range e.Attrs() {
		if d, ok := e.schema.Lookup(k); ok {
			if _, claimed := d.(bagBacked); claimed {
				continue
			}
		}
		if s, ok := renderPair(k, v); ok {
			rendered = append(rendered, s)
		}
	}

	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.tag)
	if len(rendered) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(rendered, " "))
	}
	if e.selfClosing {
		b.WriteString("/>")
	} else {
		b.WriteString(">")
	}
	return b.String()
}

// EndTag renders the closing tag, or "" for a self-closing element.
func (e *Element) EndTag() string {
	if e.selfClosing {
		return ""
	}
	return "</" + e.tag + ">"
}

// Output implements Node.
func (e *Element) Output(w io.Writer, opts Options) error {
	out := &writer{w: w}
	out.str(e.StartTag())
	out.str(e.EndTag())
	if opts.TopLevel() {
		out.str("\n")
	}
	return out.err
}

// ElementWithChildren is a tag that holds child nodes. Index operations
// (At, SetAt, DeleteAt) address children; named operations (Get, Set,
// Attr, SetAttr) address attributes.
type ElementWithChildren struct {
	Element
	Container
}

// NewElementWithChildren creates a paired tag element.
func NewElementWithChildren(tag string, opts ...ElementOption) *ElementWithChildren {
	e := &ElementWithChildren{}
	e.Init(tag, opts...)
	return e
}

// Init prepares an ElementWithChildren embedded in a larger type. Call
// SetOwner afterwards with the outermost node.
func (e *ElementWithChildren) Init(tag string, opts ...ElementOption) {
	e.Element.init(tag, opts)
	e.Container.owner = e
}

// With appends children and returns e.
func (e *ElementWithChildren) With(children ...Node) *ElementWithChildren {
	for _, c := range children {
		e.Add(c)
	}
	return e
}

// Output implements Node.
func (e *ElementWithChildren) Output(w io.Writer, opts Options) error {
	out := &writer{w: w}
	e.outputTo(out, opts)
	return out.err
}

func (e *ElementWithChildren) outputTo(out *writer, opts Options) {
	out.str(e.StartTag())
	if !e.selfClosing {
		if opts.Formatted && len(e.children) > 0 {
			child := opts.nested()
			for _, n := range e.children {
				out.str("\n")
				out.indent(child)
				out.node(n, child)
			}
			out.str("\n")
			out.indent(opts)
		} else {
			for _, n := range e.children {
				out.node(n, opts)
			}
		}
		out.str(e.EndTag())
	}
	if opts.TopLevel() {
		out.str("\n")
	}
}
