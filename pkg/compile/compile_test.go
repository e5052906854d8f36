package compile

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timothycrosley/blox/pkg/blox"
	"github.com/timothycrosley/blox/pkg/dom"
	"github.com/timothycrosley/blox/pkg/registry"
)

func compileHTML(t *testing.T, src string, opts Options) (*Program, error) {
	t.Helper()
	s, err := ParseHTML(strings.NewReader(src))
	require.NoError(t, err)
	if opts.Registry == nil {
		opts.Registry = dom.Tags
	}
	return Compile(s, opts)
}

func buildHTML(t *testing.T, src string, opts Options) *Template {
	t.Helper()
	prog, err := compileHTML(t, src, opts)
	require.NoError(t, err)
	tmpl, err := prog.Build(dom.Tags)
	require.NoError(t, err)
	return tmpl
}

func TestCompile_MatchesDirectConstruction(t *testing.T) {
	direct := dom.Div(dom.P("hello"), dom.Span("world"))
	tmpl := buildHTML(t, `<div><p>hello</p><span>world</span></div>`, Options{})

	want := blox.MustRender(direct)
	assert.Equal(t, "<div><p>hello</p><span>world</span></div>", want)
	assert.Equal(t, want, blox.MustRender(tmpl))
	assert.Equal(t, blox.MustRender(direct, blox.Formatted()), blox.MustRender(tmpl, blox.Formatted()))
}

func TestCompile_Instructions(t *testing.T) {
	prog, err := compileHTML(t, `<div><p>hello</p><span>world</span></div>`, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"template", "div1", "p1", "span1"}, prog.Vars)
	assert.Equal(t, []Instruction{
		{Op: OpBuild, Var: 1, Parent: 0, Tag: "div", Path: "div[1]"},
		{Op: OpBuild, Var: 2, Parent: 1, Tag: "p", Path: "div[1]/p[1]"},
		{Op: OpAddText, Var: 2, Value: "hello", Path: "div[1]/p[1]"},
		{Op: OpBuild, Var: 3, Parent: 1, Tag: "span", Path: "div[1]/span[2]"},
		{Op: OpAddText, Var: 3, Value: "world", Path: "div[1]/span[2]"},
	}, prog.Code)
	assert.Equal(t, []string{"div", "p", "span"}, prog.Tags)
	assert.Equal(t, "set_attr", OpSetAttr.String())
}

func TestCompile_IDAccessor(t *testing.T) {
	tmpl := buildHTML(t, `<div><h1 id="title">Welcome</h1></div>`, Options{})

	title, ok := tmpl.Get("title")
	require.True(t, ok)
	assert.Equal(t, `<h1 id="title">Welcome</h1>`, blox.MustRender(title))
	assert.Equal(t, []string{"title"}, tmpl.Accessors())
	assert.Same(t, title, tmpl.MustGet("title"))
	assert.Panics(t, func() { tmpl.MustGet("missing") })
}

func TestCompile_ExplicitAccessor(t *testing.T) {
	tmpl := buildHTML(t, `<ul accessor="main-nav" id="nav"><li accessor="first">a</li></ul>`, Options{})

	nav, ok := tmpl.Get("main_nav")
	require.True(t, ok, "accessor names are made identifier safe")
	_, ok = tmpl.Get("nav")
	assert.False(t, ok, "an explicit accessor takes precedence over id")

	assert.Equal(t, `<ul id="nav"><li>a</li></ul>`, blox.MustRender(nav))
	assert.Equal(t, []string{"main_nav", "first"}, tmpl.Accessors())
}

func TestCompile_DuplicateAccessor(t *testing.T) {
	src := `<div><p id="a">one</p><span accessor="a">two</span></div>`

	tmpl := buildHTML(t, src, Options{})
	a, ok := tmpl.Get("a")
	require.True(t, ok)
	assert.Equal(t, "<span>two</span>", blox.MustRender(a), "last accessor wins")
	assert.Equal(t, []string{"a"}, tmpl.Accessors())

	_, err := compileHTML(t, src, Options{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateAccessor))
	assert.True(t, errors.Is(err, ErrCompile))
	assert.Contains(t, err.Error(), "div[1]/span[2]")
}

func TestCompile_Queries(t *testing.T) {
	opts := Options{Queries: map[string]string{
		"items": "li",
		"first": "ul > li:first-child",
		"none":  "table",
		"wide":  ".wide",
	}}
	tmpl := buildHTML(t, `<ul><li class="wide">a</li><li>b</li></ul><p class="wide">c</p>`, opts)

	assert.Equal(t, []string{"first", "items", "none", "wide"}, tmpl.Queries())

	items := tmpl.Query("items")
	require.Len(t, items, 2)
	assert.Equal(t, "<li>b</li>", blox.MustRender(items[1]))

	first := tmpl.Query("first")
	require.Len(t, first, 1)
	assert.Same(t, items[0], first[0])

	assert.NotNil(t, tmpl.Query("none"))
	assert.Empty(t, tmpl.Query("none"))

	wide := tmpl.Query("wide")
	require.Len(t, wide, 2)
	assert.Equal(t, `<p class="wide">c</p>`, blox.MustRender(wide[1]))

	assert.Nil(t, tmpl.Query("undeclared"))
}

func TestCompile_InvalidQuery(t *testing.T) {
	_, err := compileHTML(t, `<div></div>`, Options{Queries: map[string]string{"bad": "[["}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidQuery))
	assert.True(t, errors.Is(err, ErrCompile))
}

func TestCompile_DocumentSlots(t *testing.T) {
	src := `<!DOCTYPE html><html lang="en"><head><title>Hi</title></head><body><p id="greeting">x</p></body></html>`
	tmpl := buildHTML(t, src, Options{})

	assert.Equal(t,
		`<!DOCTYPE html><html lang="en"><head><title>Hi</title></head><body><p id="greeting">x</p></body></html>`,
		blox.MustRender(tmpl))

	require.Equal(t, 1, tmpl.Len())
	doc, ok := tmpl.At(0).(*dom.Document)
	require.True(t, ok)
	p, ok := tmpl.Get("greeting")
	require.True(t, ok)
	assert.True(t, doc.Contains(p), "body children are added to the document body")
}

func TestCompile_SlotText(t *testing.T) {
	s := Fragment(&Source{
		Tag: "document",
		Children: []*Source{
			{Tag: "title", Text: "Slotted", Attrs: []Attr{{Name: "accessor", Value: "heading"}}},
		},
	})
	prog, err := Compile(s, Options{Registry: dom.Tags})
	require.NoError(t, err)
	assert.Equal(t, OpSlot, prog.Code[1].Op)
	assert.Equal(t, OpSetText, prog.Code[2].Op)

	tmpl, err := prog.Build(dom.Tags)
	require.NoError(t, err)
	doc := tmpl.At(0).(*dom.Document)
	assert.Equal(t, "Slotted", doc.Title())

	heading, ok := tmpl.Get("heading")
	require.True(t, ok)
	assert.Same(t, doc.TitleElement(), heading)
}

func TestCompile_UnregisteredTag(t *testing.T) {
	reg := registry.New("plain")
	reg.Register(func() blox.Node { return blox.NewElementWithChildren("div") })

	_, err := compileHTML(t, `<div><blink></blink></div>`, Options{Registry: reg, File: "page.html"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnregisteredTag))
	assert.Contains(t, err.Error(), "page.html (div[1]/blink[1])")

	invalid := func() blox.Node { return blox.NewInvalid() }
	prog, err := compileHTML(t, `<div><blink></blink></div>`, Options{Registry: reg, Fallback: invalid})
	require.NoError(t, err)
	tmpl, err := prog.Build(reg)
	require.NoError(t, err)
	assert.Equal(t, "<div><h2>Invalid</h2></div>", blox.MustRender(tmpl))
}

func TestCompile_RegistryFallback(t *testing.T) {
	tmpl := buildHTML(t, `<section><made-up></made-up></section>`, Options{})
	assert.Equal(t, "<section><h2>Invalid</h2></section>", blox.MustRender(tmpl))

	span := func() blox.Node { return blox.NewElementWithChildren("span") }
	tmpl = buildHTML(t, `<section><made-up></made-up><p>kept</p></section>`, Options{Fallback: span})
	assert.Equal(t, "<section><span></span><p>kept</p></section>", blox.MustRender(tmpl),
		"an explicit fallback comes before the registry's")
}

func TestCompile_LeafProducts(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"text in void element", `<div><br>oops</br></div>`, "div[1]/br[1]"},
		{"child of void element", `<div><img src="a.png"><span/></img></div>`, "div[1]/img[1]/span[1]"},
		{"tail after void element", `<p><br/>after</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseXML(strings.NewReader(tt.src))
			require.NoError(t, err)

			_, err = Compile(s, Options{Registry: dom.Tags})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, blox.ErrStructuralMisuse))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompile_AttributeConversion(t *testing.T) {
	_, err := compileHTML(t, `<input maxlength="lots">`, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, blox.ErrParse))

	tmpl := buildHTML(t, `<input type="checkbox" maxlength="3" data-x="y">`, Options{})
	assert.Equal(t, `<input type="checkbox" maxlength="3" data-x="y"/>`, blox.MustRender(tmpl))
}

func TestCompile_WhitespaceAndTail(t *testing.T) {
	src := "<div>\n  <p>hi</p>\n  between\n  <em>x</em>\n</div>"
	s, err := ParseXML(strings.NewReader(src))
	require.NoError(t, err)
	prog, err := Compile(s, Options{Registry: dom.Tags})
	require.NoError(t, err)
	tmpl, err := prog.Build(dom.Tags)
	require.NoError(t, err)
	assert.Equal(t, "<div><p>hi</p>between<em>x</em></div>", blox.MustRender(tmpl))
}

func TestCompile_TopLevelText(t *testing.T) {
	tmpl := buildHTML(t, `intro <p>body</p> outro`, Options{})
	assert.Equal(t, "intro<p>body</p>outro", blox.MustRender(tmpl))
}

func TestProgram_BuildsIndependentTrees(t *testing.T) {
	prog, err := compileHTML(t, `<div><p id="msg">hello</p></div>`, Options{})
	require.NoError(t, err)

	a := prog.MustBuild(dom.Tags)
	b := prog.MustBuild(dom.Tags)
	require.NotSame(t, a.MustGet("msg"), b.MustGet("msg"))

	a.MustGet("msg").(blox.Holder).Add(blox.NewText("!"))
	assert.Equal(t, `<div><p id="msg">hello!</p></div>`, blox.MustRender(a))
	assert.Equal(t, `<div><p id="msg">hello</p></div>`, blox.MustRender(b))
}

func TestProgram_ConcurrentBuild(t *testing.T) {
	prog, err := compileHTML(t, `<ul><li>a</li><li>b</li></ul>`, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	out := make([]string, 8)
	for i := range out {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = blox.MustRender(prog.MustBuild(dom.Tags))
		}()
	}
	wg.Wait()
	for _, s := range out {
		assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", s)
	}
}

func TestProgram_BuildWithMissingTag(t *testing.T) {
	prog, err := compileHTML(t, `<div><p>x</p></div>`, Options{File: "page.html"})
	require.NoError(t, err)

	_, err = prog.Build(registry.New("empty"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnregisteredTag))
	assert.Contains(t, err.Error(), "page.html (div[1])")
}

func TestIdent(t *testing.T) {
	tests := map[string]string{
		"title":    "title",
		"main-nav": "main_nav",
		"1st":      "_1st",
		"a.b c":    "a_b_c",
		"":         "_",
		"h1":       "h1",
	}
	for in, want := range tests {
		assert.Equal(t, want, ident(in), in)
	}
}
