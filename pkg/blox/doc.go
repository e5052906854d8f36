// Package blox provides the HTML object model: typed nodes for text and
// elements composed into trees, declarative attribute descriptors, and the
// rendering pass that serializes a tree to markup.
//
// # Core Types
//
// Node is anything that can write itself to an io.Writer. Text and SafeText
// are leaves; Container holds an ordered list of children; Element renders a
// single tag; ElementWithChildren combines Element and Container.
//
//	div := blox.NewElementWithChildren("div")
//	p := blox.Append(div, blox.NewElementWithChildren("p"))
//	p.Add(blox.NewText("hello & welcome"))
//
//	html, _ := blox.Render(div)
//	// <div><p>hello &amp; welcome</p></div>
//
// # Attributes
//
// Every element has a Schema listing its declared attributes. Descriptors come
// in three families: Direct (a typed per-element slot, like id and class),
// Attribute (stored in the element's free-form attribute bag) and Transform
// (a bag attribute converted to a typed value, like Bool and Int). Flag is a
// bag attribute for HTML boolean attributes such as disabled, present when
// true and removed when false. Schemas are merged explicitly with NewSchema,
// base declarations first.
//
// Free-form attributes outside the schema live in the bag and render after
// declared attributes, in insertion order. Empty values are never rendered.
//
// # Rendering
//
// Output is the single rendering primitive; Render is sugar that writes into a
// strings.Builder. Formatted output indents nested children with IndentUnit.
//
// # Safety
//
// Text and attribute values are HTML-escaped unless marked safe, either by the
// SafeText node variant or per value with the Safe type.
//
// # Ownership
//
// A node belongs to at most one parent, and a tree is mutated by one owner at
// a time. Rendering only reads, so distinct trees may render concurrently.
package blox
