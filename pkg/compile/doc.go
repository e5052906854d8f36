// Package compile precompiles static HTML templates into build procedures.
//
// A template is parsed once into a Source tree, either with ParseXML for
// well-formed XHTML or with ParseHTML for HTML5. Compile walks it in a
// single pre-order pass and produces a Program: a flat list of
// instructions that constructs the equivalent node tree through a
// registry. Building a Program never looks at the source again.
//
//	src, _ := compile.ParseHTML(strings.NewReader(`<div id="title"><p>hello</p></div>`))
//	prog, _ := compile.Compile(src, compile.Options{Registry: dom.Tags})
//	t, _ := prog.Build(dom.Tags)
//	title, _ := t.Get("title")
//
// # Accessors
//
// An element with an accessor attribute, or failing that an id, is
// exposed on the built Template under that name. The accessor attribute
// itself is never rendered.
//
// # Queries
//
// Options.Queries maps names to CSS selectors. Every matching element is
// appended to the named list on the built Template.
//
// # Slots
//
// When a product implements blox.Nester, child elements named after one
// of its slots fill that slot instead of creating new nodes. A Document
// template uses this for head, body and title.
//
// # Code generation
//
// Program.WriteGo emits the build procedure as Go source declaring a
// struct with a field per accessor and query.
package compile
