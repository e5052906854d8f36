package compile

import (
	"bytes"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteGo(t *testing.T) {
	prog, err := compileHTML(t, `<div id="title"><p accessor="main_nav">x</p><span>y</span><em accessor="output"></em><i></i></div>`, Options{
		File:    "page.html",
		Queries: map[string]string{"paragraphs": "p"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, prog.WriteGo(&buf, GoOptions{Package: "views", Name: "page"}))
	src := buf.String()

	_, err = parser.ParseFile(token.NewFileSet(), "page_blox.go", src, parser.AllErrors)
	require.NoError(t, err, src)

	assert.Contains(t, src, "// Code generated by blox compile. DO NOT EDIT.")
	assert.Contains(t, src, "package views")
	assert.Contains(t, src, "func BuildPage(reg *registry.Registry) (*Page, error) {")
	assert.Regexp(t, `Title\s+blox\.Node`, src)
	assert.Regexp(t, `MainNav\s+blox\.Node`, src)
	assert.Regexp(t, `Output2\s+blox\.Node`, src)
	assert.Regexp(t, `Paragraphs\s+\[\]blox\.Node`, src)

	assert.Contains(t, src, `div1 := b.Build("div", &t.nodes, "div[1]")`)
	assert.Contains(t, src, `b.SetAttr(div1, "id", "title", "div[1]")`)
	assert.Contains(t, src, `t.Title = div1`)
	assert.Contains(t, src, `t.Paragraphs = []blox.Node{}`)
	assert.Contains(t, src, `t.Paragraphs = append(t.Paragraphs, p1)`)
	assert.Contains(t, src, `span1 := b.Build("span", div1, "div[1]/span[2]")`)
	assert.Contains(t, src, `t.Output2 = em1`)
	assert.Contains(t, src, `b.Build("i", div1, "div[1]/i[5]")`)
	assert.NotContains(t, src, "i1 :=", "unread variables are not declared")
}

func TestWriteGo_Defaults(t *testing.T) {
	prog, err := compileHTML(t, `<br>`, Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, prog.WriteGo(&buf, GoOptions{}))
	assert.Contains(t, buf.String(), "package templates")
	assert.Contains(t, buf.String(), "func BuildTemplate(")
	assert.Contains(t, buf.String(), `b.Build("br", &t.nodes, "br[1]")`)
}

func TestExported(t *testing.T) {
	tests := map[string]string{
		"title":     "Title",
		"main_nav":  "MainNav",
		"main-nav":  "MainNav",
		"1st":       "X1st",
		"":          "X",
		"alreadyUp": "AlreadyUp",
	}
	for in, want := range tests {
		assert.Equal(t, want, exported(in), in)
	}
}
