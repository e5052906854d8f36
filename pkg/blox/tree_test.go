package blox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTree(t *testing.T) {
	div := NewElementWithChildren("div", WithAttrs(A("id", "main")))
	p := Append(div, NewElementWithChildren("p"))
	p.Add(NewText("hi"))
	div.Add(NewElement("input", SelfClosing(), WithSchema(NamedSchema), WithAttrs(A("name", "q"))))

	out := Tree(div)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, `div id="main"`, lines[0])
	assert.Contains(t, out, "p\n")
	assert.Contains(t, out, `Text("hi")`)
	assert.Contains(t, out, `input name="q"`)
	assert.Len(t, lines, 4)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, `SafeText("<b>")`, Label(NewSafeText("<b>")))
	assert.Equal(t, "blox.Invalid", Label(NewInvalid()))
	assert.Equal(t, "blox.Container", Label(NewContainer()))
}
