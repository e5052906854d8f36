package compile

import (
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/timothycrosley/blox/internal/errors"
)

// Source is one element of a parsed template. Text is the character data
// before the first child element and Tail the character data after the
// element's end tag, up to the next sibling.
//
// A Source with an empty Tag is a fragment: its children are the
// top-level elements of the template and its Text the leading text.
type Source struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Tail     string
	Children []*Source
}

// Attr is a source attribute. Order follows the source.
type Attr struct {
	Name  string
	Value string
}

// Get returns the value of the named attribute.
func (s *Source) Get(name string) (string, bool) {
	for _, a := range s.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Fragment wraps elements in a fragment Source.
func Fragment(children ...*Source) *Source {
	return &Source{Children: children}
}

// ParseXML reads well-formed XHTML or XML template source. The document
// element becomes the single child of the returned fragment.
func ParseXML(r io.Reader) (*Source, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, errors.New("E044").Wrap(err).WithDetail(err.Error())
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("E044").WithDetail("no root element")
	}
	return Fragment(fromEtree(root)), nil
}

func fromEtree(e *etree.Element) *Source {
	s := &Source{
		Tag:  e.FullTag(),
		Text: e.Text(),
		Tail: e.Tail(),
	}
	for _, a := range e.Attr {
		s.Attrs = append(s.Attrs, Attr{Name: a.FullKey(), Value: a.Value})
	}
	for _, child := range e.ChildElements() {
		s.Children = append(s.Children, fromEtree(child))
	}
	return s
}

// ParseHTML reads HTML5 template source. Input starting with a doctype or
// an html tag is parsed as a full document whose html element becomes the
// only top-level element; anything else is parsed as a body fragment.
func ParseHTML(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("E061").Wrap(err).WithDetail(err.Error())
	}
	text := string(data)

	if isDocument(text) {
		doc, err := html.Parse(strings.NewReader(text))
		if err != nil {
			return nil, errors.New("E044").Wrap(err).WithDetail(err.Error())
		}
		for n := doc.FirstChild; n != nil; n = n.NextSibling {
			if n.Type == html.ElementNode {
				return Fragment(fromHTML(n)), nil
			}
		}
		return nil, errors.New("E044").WithDetail("no html element")
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(text), context)
	if err != nil {
		return nil, errors.New("E044").Wrap(err).WithDetail(err.Error())
	}
	frag := &Source{}
	collect(frag, nodes)
	return frag, nil
}

func isDocument(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

func fromHTML(n *html.Node) *Source {
	s := &Source{Tag: n.Data}
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		s.Attrs = append(s.Attrs, Attr{Name: name, Value: a.Val})
	}
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	collect(s, children)
	return s
}

// collect converts sibling nodes, folding text into the parent's Text or
// the preceding element's Tail.
func collect(parent *Source, nodes []*html.Node) {
	var last *Source
	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			if last == nil {
				parent.Text += n.Data
			} else {
				last.Tail += n.Data
			}
		case html.ElementNode:
			last = fromHTML(n)
			parent.Children = append(parent.Children, last)
		}
	}
}

// path returns the location of child i of parent for error messages, such
// as "div[1]/p[2]".
func path(parent string, tag string, i int) string {
	seg := tag + "[" + strconv.Itoa(i+1) + "]"
	if parent == "" {
		return seg
	}
	return parent + "/" + seg
}
