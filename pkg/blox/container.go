package blox

import (
	"io"
	"iter"
	"slices"

	"github.com/timothycrosley/blox/internal/errors"
)

// Container is a node holding an ordered, mutable sequence of children.
// It renders its children one after another with no markup of its own.
//
// The same child may be added more than once; every Add appends. Moving a
// node between containers does not unlink it from its previous parent.
type Container struct {
	children []Node

	// owner is the node that embeds this container, used to reject cycles.
	owner Node
}

// NewContainer creates a container seeded with children.
func NewContainer(children ...Node) *Container {
	c := &Container{}
	c.owner = c
	for _, child := range children {
		c.Add(child)
	}
	return c
}

// SetOwner records the node embedding c, which a child may not contain.
func (c *Container) SetOwner(owner Node) {
	c.owner = owner
}

func (c *Container) self() Node {
	if c.owner != nil {
		return c.owner
	}
	return c
}

// Add appends child and returns it, so nesting can continue on the child.
func (c *Container) Add(child Node) Node {
	c.checkCycle(child)
	c.children = append(c.children, child)
	return child
}

// Insert places child at pos, shifting later children right. A position
// past the end appends; a negative position counts from the end.
func (c *Container) Insert(pos int, child Node) Node {
	c.checkCycle(child)
	pos = c.clamp(pos)
	c.children = slices.Insert(c.children, pos, child)
	return child
}

func (c *Container) clamp(pos int) int {
	if pos < 0 {
		pos += len(c.children)
	}
	return max(0, min(pos, len(c.children)))
}

// Remove deletes the first occurrence of child. It returns an error
// matching ErrMissingChild when child is not present.
func (c *Container) Remove(child Node) error {
	i := slices.Index(c.children, child)
	if i < 0 {
		return errors.New("E012").WithDetailf("%T is not a child of %T", child, c.self())
	}
	c.children = slices.Delete(c.children, i, i+1)
	return nil
}

// Contains reports whether child is one of the children.
func (c *Container) Contains(child Node) bool {
	return slices.Contains(c.children, child)
}

// Len returns the number of children.
func (c *Container) Len() int {
	return len(c.children)
}

// At returns the child at index i. It panics if i is out of range.
func (c *Container) At(i int) Node {
	return c.children[i]
}

// SetAt replaces the child at index i.
func (c *Container) SetAt(i int, child Node) {
	c.checkCycle(child)
	c.children[i] = child
}

// DeleteAt removes the child at index i.
func (c *Container) DeleteAt(i int) {
	c.children = slices.Delete(c.children, i, i+1)
}

// All iterates over the children in order.
func (c *Container) All() iter.Seq[Node] {
	return slices.Values(c.children)
}

// Children returns a copy of the child list.
func (c *Container) Children() []Node {
	return slices.Clone(c.children)
}

// checkCycle panics when child is the owner or contains it. The walk is
// best effort and only follows Holder children.
func (c *Container) checkCycle(child Node) {
	if child == nil {
		panic(errors.New("E030").WithDetail("cannot add a nil node"))
	}
	owner := c.self()
	if child == owner || holds(child, owner) {
		panic(errors.New("E030").WithDetailf("adding %T would create a cycle", child))
	}
}

// holds reports whether target is reachable below n. Rooted nodes are
// searched through their root.
func holds(n, target Node) bool {
	if r, ok := n.(Rooted); ok {
		root := r.Root()
		return root == target || holds(root, target)
	}
	h, ok := n.(Holder)
	if !ok {
		return false
	}
	for child := range h.All() {
		if child == target || holds(child, target) {
			return true
		}
	}
	return false
}

// Output implements Node.
func (c *Container) Output(w io.Writer, opts Options) error {
	out := &writer{w: w}
	c.outputChildren(out, opts)
	if opts.TopLevel() && len(c.children) > 0 {
		out.str("\n")
	}
	return out.err
}

// outputChildren writes the children. In formatted mode every child after
// the first starts on a new line at the current indent.
func (c *Container) outputChildren(out *writer, opts Options) {
	child := opts
	child.inner = true
	for i, n := range c.children {
		if opts.Formatted && i > 0 {
			out.str("\n")
			out.indent(opts)
		}
		out.node(n, child)
	}
}
