package blox

import (
	"io"
	"iter"
	"strings"
)

// DefaultIndentUnit is the indentation used by formatted output when
// Options.IndentUnit is empty.
const DefaultIndentUnit = "  "

// Options controls how a node writes itself.
type Options struct {
	// Formatted enables indented, one-node-per-line output.
	Formatted bool

	// Indent is the current nesting depth in formatted mode.
	Indent int

	// IndentUnit is written Indent times before a nested node.
	IndentUnit string

	// inner is set for nodes written by a parent, which owns the trailing
	// newline of formatted output.
	inner bool
}

func (o Options) unit() string {
	if o.IndentUnit == "" {
		return DefaultIndentUnit
	}
	return o.IndentUnit
}

func (o Options) nested() Options {
	o.Indent++
	o.inner = true
	return o
}

// TopLevel reports whether a formatted node ends its output with a newline.
func (o Options) TopLevel() bool {
	return o.Formatted && o.Indent == 0 && !o.inner
}

// Option configures Render.
type Option func(*Options)

// Formatted enables indented output.
func Formatted() Option {
	return func(o *Options) { o.Formatted = true }
}

// WithIndentUnit sets the string used for one level of indentation.
func WithIndentUnit(unit string) Option {
	return func(o *Options) { o.IndentUnit = unit }
}

// WithIndent sets the starting depth of formatted output.
func WithIndent(depth int) Option {
	return func(o *Options) { o.Indent = depth }
}

// Node is the smallest renderable unit. Output must not modify the node.
// Implementations are pointer types; nodes are compared by identity.
type Node interface {
	Output(w io.Writer, opts Options) error
}

// Holder is a node with an ordered, mutable list of children.
type Holder interface {
	Node
	Add(child Node) Node
	Insert(pos int, child Node) Node
	Remove(child Node) error
	Contains(child Node) bool
	Len() int
	At(i int) Node
	All() iter.Seq[Node]
}

// Tagged is a node that renders as a single tag.
type Tagged interface {
	Node
	Elem() *Element
}

// TextHolder is implemented by elements with a dedicated text property,
// such as title.
type TextHolder interface {
	Node
	SetText(text string)
	Text() string
}

// Nester is implemented by nodes exposing named sub-nodes as nested
// attachment points, such as a document's head and body.
type Nester interface {
	Node
	Slots() []string
	Slot(name string) (Node, bool)
}

// Render writes n into a fresh buffer and returns the markup.
func Render(n Node, opts ...Option) (string, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	var b strings.Builder
	if err := n.Output(&b, o); err != nil {
		return "", err
	}
	return b.String(), nil
}

// MustRender is like Render but panics on error. Rendering into memory only
// fails if a node's own Output fails.
func MustRender(n Node, opts ...Option) string {
	s, err := Render(n, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Append adds child to parent and returns it with its own type, so nested
// construction can continue on the child.
func Append[T Node](parent Holder, child T) T {
	parent.Add(child)
	return child
}

// writer collects the first write error so output code stays linear.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) str(s string) {
	if w.err != nil || s == "" {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *writer) node(n Node, opts Options) {
	if w.err != nil {
		return
	}
	w.err = n.Output(w.w, opts)
}

func (w *writer) indent(opts Options) {
	w.str(strings.Repeat(opts.unit(), opts.Indent))
}

// Invalid renders in place of a node that could not be built.
type Invalid struct{}

// NewInvalid creates an Invalid node.
func NewInvalid() *Invalid { return &Invalid{} }

// Output implements Node.
func (*Invalid) Output(w io.Writer, _ Options) error {
	_, err := io.WriteString(w, "<h2>Invalid</h2>")
	return err
}

// DefaultName implements the registry naming hook.
func (*Invalid) DefaultName() string { return "invalid" }
