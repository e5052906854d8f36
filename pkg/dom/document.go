package dom

import (
	"io"
	"iter"

	"github.com/timothycrosley/blox/pkg/blox"
)

// DocType renders the HTML5 document type declaration.
type DocType struct{}

// NewDocType creates a DocType node.
func NewDocType() *DocType { return &DocType{} }

// Output implements blox.Node.
func (*DocType) Output(w io.Writer, opts blox.Options) error {
	_, err := io.WriteString(w, "<!DOCTYPE html>")
	return err
}

// Title is the document title. Its content is a single text value rather
// than a list of children.
type Title struct {
	*blox.Element
	text *blox.Text
}

// NewTitle creates a title element holding text.
func NewTitle(text string) *Title {
	return &Title{
		Element: blox.NewElement("title", blox.WithSchema(Schema("title"))),
		text:    blox.NewText(text),
	}
}

// Text returns the title text.
func (t *Title) Text() string { return t.text.Value() }

// SetText replaces the title text.
func (t *Title) SetText(text string) { t.text.SetValue(text) }

// Output implements blox.Node.
func (t *Title) Output(w io.Writer, opts blox.Options) error {
	if _, err := io.WriteString(w, t.StartTag()); err != nil {
		return err
	}
	if err := t.text.Output(w, opts); err != nil {
		return err
	}
	end := t.EndTag()
	if opts.TopLevel() {
		end += "\n"
	}
	_, err := io.WriteString(w, end)
	return err
}

// Document is a complete HTML page: a doctype followed by an html element.
// The head, body and title are created on first use. Children added to a
// Document go to its body.
type Document struct {
	DocType *DocType
	HTML    *blox.ElementWithChildren

	head  *blox.ElementWithChildren
	body  *blox.ElementWithChildren
	title *Title
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{
		DocType: NewDocType(),
		HTML:    blox.NewElementWithChildren("html", blox.WithSchema(Schema("html"))),
	}
	return d
}

// Head returns the head element, creating it as the first child of html.
func (d *Document) Head() *blox.ElementWithChildren {
	if d.head == nil {
		d.head = blox.NewElementWithChildren("head", blox.WithSchema(Schema("head")))
		d.HTML.Insert(0, d.head)
	}
	return d.head
}

// Body returns the body element, creating it after the head.
func (d *Document) Body() *blox.ElementWithChildren {
	if d.body == nil {
		d.body = blox.NewElementWithChildren("body", blox.WithSchema(Schema("body")))
		d.HTML.Add(d.body)
	}
	return d.body
}

// TitleElement returns the title element, creating it inside the head.
func (d *Document) TitleElement() *Title {
	if d.title == nil {
		d.title = NewTitle("")
		d.Head().Insert(0, d.title)
	}
	return d.title
}

// Title returns the document title text.
func (d *Document) Title() string {
	if d.title == nil {
		return ""
	}
	return d.title.Text()
}

// SetTitle sets the document title text.
func (d *Document) SetTitle(title string) {
	d.TitleElement().SetText(title)
}

// Elem implements blox.Tagged. Attributes of a document are those of its
// html element.
func (d *Document) Elem() *blox.Element { return d.HTML.Elem() }

// Root implements blox.Rooted.
func (d *Document) Root() blox.Node { return d.HTML }

// Slots implements blox.Nester.
func (d *Document) Slots() []string {
	return []string{"head", "body", "title"}
}

// Slot implements blox.Nester, creating the named part on first use.
func (d *Document) Slot(name string) (blox.Node, bool) {
	switch name {
	case "head":
		return d.Head(), true
	case "body":
		return d.Body(), true
	case "title":
		return d.TitleElement(), true
	}
	return nil, false
}

// Add appends child to the body.
func (d *Document) Add(child blox.Node) blox.Node { return d.Body().Add(child) }

// Insert inserts child into the body.
func (d *Document) Insert(pos int, child blox.Node) blox.Node { return d.Body().Insert(pos, child) }

// Remove removes child from the body.
func (d *Document) Remove(child blox.Node) error { return d.Body().Remove(child) }

// Contains reports whether child is in the body.
func (d *Document) Contains(child blox.Node) bool {
	return d.body != nil && d.body.Contains(child)
}

// Len returns the number of body children.
func (d *Document) Len() int {
	if d.body == nil {
		return 0
	}
	return d.body.Len()
}

// At returns the body child at index i.
func (d *Document) At(i int) blox.Node { return d.Body().At(i) }

// All iterates over the body children.
func (d *Document) All() iter.Seq[blox.Node] {
	return func(yield func(blox.Node) bool) {
		if d.body == nil {
			return
		}
		for n := range d.body.All() {
			if !yield(n) {
				return
			}
		}
	}
}

// Output implements blox.Node.
func (d *Document) Output(w io.Writer, opts blox.Options) error {
	if err := d.DocType.Output(w, opts); err != nil {
		return err
	}
	if opts.Formatted {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return d.HTML.Output(w, opts)
}
