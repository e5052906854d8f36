package blox

import (
	"fmt"
	"strconv"
	"strings"

	tp "github.com/xlab/treeprint"
)

// Rooted is implemented by nodes that wrap a single root element together
// with other output, such as a document with its doctype.
type Rooted interface {
	Node
	Root() Node
}

// Tree returns an indented outline of n and its descendants for debugging.
// Elements are labelled with their tag, id and name; text with its value.
func Tree(n Node) string {
	p := tp.NewWithRoot(Label(n))
	addChildren(p, n)
	return p.String()
}

func addChildren(p tp.Tree, n Node) {
	if r, ok := n.(Rooted); ok {
		root := r.Root()
		addChildren(p.AddBranch(Label(root)), root)
		return
	}
	h, ok := n.(Holder)
	if !ok {
		return
	}
	for child := range h.All() {
		if _, holder := child.(Holder); holder {
			addChildren(p.AddBranch(Label(child)), child)
			continue
		}
		p.AddNode(Label(child))
	}
}

// Label is the one-line description of n used by Tree.
func Label(n Node) string {
	switch v := n.(type) {
	case *SafeText:
		return "SafeText(" + strconv.Quote(v.Value()) + ")"
	case *Text:
		return "Text(" + strconv.Quote(v.Value()) + ")"
	case Rooted:
	case Tagged:
		e := v.Elem()
		ids := []string{e.Tag()}
		if id, ok := e.direct[ID.Name()].(string); ok && id != "" {
			ids = append(ids, `id="`+id+`"`)
		}
		if name, ok := e.direct[Name.Name()].(string); ok && name != "" {
			ids = append(ids, `name="`+name+`"`)
		}
		return strings.Join(ids, " ")
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*")
}
