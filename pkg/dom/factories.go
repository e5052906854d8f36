package dom

import (
	"fmt"

	"github.com/timothycrosley/blox/internal/errors"
	"github.com/timothycrosley/blox/pkg/blox"
)

// New creates a standard tag from a mixed argument list. Arguments can be
// nil, blox.Attr, []blox.Attr, blox.Node, []blox.Node or string (added as
// escaped text). Children passed to a void tag panic.
func New(tag string, args ...any) blox.Tagged {
	el := Element(tag)
	var holder blox.Holder
	if h, ok := el.(blox.Holder); ok {
		holder = h
	}
	add := func(n blox.Node) {
		if holder == nil {
			panic(errors.New("E030").WithDetailf("<%s> cannot hold %T", tag, n))
		}
		holder.Add(n)
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case blox.Attr:
			mustPut(el, v)
		case []blox.Attr:
			for _, a := range v {
				mustPut(el, a)
			}
		case string:
			add(blox.NewText(v))
		case blox.Node:
			add(v)
		case []blox.Node:
			for _, n := range v {
				add(n)
			}
		default:
			panic(fmt.Sprintf("dom.New(%q): unsupported argument %T", tag, arg))
		}
	}
	return el
}

func mustPut(el blox.Tagged, a blox.Attr) {
	if err := el.Elem().Put(a.Name, a.Value); err != nil {
		panic(err)
	}
}

// Document metadata

func Meta(args ...any) blox.Tagged { return New("meta", args...) }
func Link(args ...any) blox.Tagged { return New("link", args...) }

// Content sectioning

func Header(args ...any) blox.Tagged  { return New("header", args...) }
func Footer(args ...any) blox.Tagged  { return New("footer", args...) }
func Main(args ...any) blox.Tagged    { return New("main", args...) }
func Nav(args ...any) blox.Tagged     { return New("nav", args...) }
func Section(args ...any) blox.Tagged { return New("section", args...) }
func Article(args ...any) blox.Tagged { return New("article", args...) }
func H1(args ...any) blox.Tagged      { return New("h1", args...) }
func H2(args ...any) blox.Tagged      { return New("h2", args...) }
func H3(args ...any) blox.Tagged      { return New("h3", args...) }

// Text content

func Div(args ...any) blox.Tagged  { return New("div", args...) }
func P(args ...any) blox.Tagged    { return New("p", args...) }
func Span(args ...any) blox.Tagged { return New("span", args...) }
func Pre(args ...any) blox.Tagged  { return New("pre", args...) }
func Ul(args ...any) blox.Tagged   { return New("ul", args...) }
func Ol(args ...any) blox.Tagged   { return New("ol", args...) }
func Li(args ...any) blox.Tagged   { return New("li", args...) }
func Hr(args ...any) blox.Tagged   { return New("hr", args...) }

// Inline text

func A(args ...any) blox.Tagged      { return New("a", args...) }
func Strong(args ...any) blox.Tagged { return New("strong", args...) }
func Em(args ...any) blox.Tagged     { return New("em", args...) }
func Code(args ...any) blox.Tagged   { return New("code", args...) }
func Br(args ...any) blox.Tagged     { return New("br", args...) }

// Forms

func Form(args ...any) blox.Tagged     { return New("form", args...) }
func Input(args ...any) blox.Tagged    { return New("input", args...) }
func Textarea(args ...any) blox.Tagged { return New("textarea", args...) }
func Select(args ...any) blox.Tagged   { return New("select", args...) }
func Option(args ...any) blox.Tagged   { return New("option", args...) }
func Button(args ...any) blox.Tagged   { return New("button", args...) }
func Label(args ...any) blox.Tagged    { return New("label", args...) }

// Tables

func Table(args ...any) blox.Tagged { return New("table", args...) }
func Thead(args ...any) blox.Tagged { return New("thead", args...) }
func Tbody(args ...any) blox.Tagged { return New("tbody", args...) }
func Tr(args ...any) blox.Tagged    { return New("tr", args...) }
func Th(args ...any) blox.Tagged    { return New("th", args...) }
func Td(args ...any) blox.Tagged    { return New("td", args...) }

// Embedded content

func Img(args ...any) blox.Tagged    { return New("img", args...) }
func Script(args ...any) blox.Tagged { return New("script", args...) }
