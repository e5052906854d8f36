package blox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBool_TokensAndDefault(t *testing.T) {
	e := NewElement("div")

	draggable, err := Draggable.Value(e)
	require.NoError(t, err)
	assert.False(t, draggable, "unset bool reads as its default")

	editable, err := ContentEditable.Value(e)
	require.NoError(t, err)
	assert.True(t, editable)

	Draggable.SetValue(e, true)
	assert.Equal(t, `<div draggable="true"></div>`, MustRender(e))

	require.NoError(t, Draggable.Set(e, "FALSE"))
	draggable, err = Draggable.Value(e)
	require.NoError(t, err)
	assert.False(t, draggable)
	assert.Equal(t, `<div draggable="false"></div>`, MustRender(e))

	require.NoError(t, Draggable.Set(e, ""))
	raw, err := e.Attr("draggable")
	require.NoError(t, err)
	assert.Equal(t, "false", raw, "empty input stores the default token")

	e.SetAttr("draggable", "maybe")
	draggable, err = Draggable.Value(e)
	require.NoError(t, err)
	assert.False(t, draggable, "unknown token reads as the default")
}

func TestFlag_Presence(t *testing.T) {
	e := NewElement("div")
	assert.False(t, Hidden.Value(e))

	Hidden.SetValue(e, true)
	assert.True(t, Hidden.Value(e))
	assert.Equal(t, `<div hidden="hidden"></div>`, MustRender(e))

	Hidden.SetValue(e, false)
	assert.Equal(t, `<div></div>`, MustRender(e), "false removes the attribute")

	tests := []struct {
		in   any
		want bool
	}{
		{"", true},
		{"hidden", true},
		{"FALSE", false},
		{nil, false},
		{true, true},
		{false, false},
	}
	for _, tt := range tests {
		require.NoError(t, Hidden.Set(e, tt.in))
		v, err := Hidden.Get(e)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v, "Set(%#v)", tt.in)
	}

	open := NewFlag("open", WithSignal("toggled"))
	d := NewElement("details", WithSchema(NewSchema(GlobalSchema, open)))
	var got []any
	_, err := d.Connect("toggled", func(v any) { got = append(got, v) })
	require.NoError(t, err)
	open.SetValue(d, true)
	open.SetValue(d, true)
	open.SetValue(d, false)
	assert.Equal(t, []any{true, false}, got, "only changes are signalled")
}

func TestBool_CustomTokens(t *testing.T) {
	e := NewElement("p")

	Translate.SetValue(e, true)
	assert.Equal(t, `<p translate="yes"></p>`, MustRender(e))

	e.SetAttr("translate", "NO")
	v, err := Translate.Get(e)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	require.NoError(t, ContentEditable.Set(e, nil))
	raw, err := e.Attr("contenteditable")
	require.NoError(t, err)
	assert.Equal(t, "true", raw)

	require.NoError(t, ContentEditable.Set(e, false))
	raw, err = e.Attr("contenteditable")
	require.NoError(t, err)
	assert.Equal(t, "false", raw, "a typed false is stored, not replaced by the default")
}

func TestInt_ParseAndFormat(t *testing.T) {
	e := NewElement("input")

	_, err := TabIndex.Value(e)
	assert.True(t, errors.Is(err, ErrMissingAttribute), "int without default is missing when unset")

	require.NoError(t, TabIndex.Set(e, 4))
	require.NoError(t, TabIndex.Set(e, "12"))
	n, err := TabIndex.Value(e)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	err = TabIndex.Set(e, "twelve")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	e.SetAttr("tabindex", "x1")
	_, err = TabIndex.Value(e)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "tabindex")

	require.NoError(t, TabIndex.Set(e, ""))
	assert.False(t, e.HasAttr("tabindex"), "empty input deletes an attribute without default")
}

func TestStyle_Declarations(t *testing.T) {
	e := NewElement("div")
	require.NoError(t, StyleAttr.Set(e, "color: red; margin: 0 !important"))

	decls, err := StyleAttr.Value(e)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "color", decls[0].Property)
	assert.Equal(t, "red", decls[0].Value)
	assert.False(t, decls[0].Important)
	assert.Equal(t, "margin", decls[1].Property)
	assert.True(t, decls[1].Important)

	assert.Equal(t, `<div style="color: red; margin: 0 !important"></div>`, MustRender(e))
}

func TestDirect_MaterializesDefault(t *testing.T) {
	e := NewElement("div")
	assert.False(t, ID.IsSet(e))

	assert.Equal(t, "", e.ID())
	assert.True(t, ID.IsSet(e), "first read stores the default")
	assert.Equal(t, "<div></div>", MustRender(e), "empty default is not rendered")

	ID.Delete(e)
	assert.False(t, ID.IsSet(e))
}

func TestDirect_SignalAndConversion(t *testing.T) {
	count := NewDirect("data-count",
		func() int { return 0 },
		func(s string) (int, error) { return len(s), nil },
		func(n int) string { return string(rune('0' + n)) },
		WithSignal("count_changed"))
	e := NewElement("div", WithSchema(NewSchema(GlobalSchema, count)))

	var got []any
	_, err := e.Connect("count_changed", func(v any) { got = append(got, v) })
	require.NoError(t, err)

	require.NoError(t, e.Set("data-count", 3))
	require.NoError(t, e.Set("data-count", 3))
	require.NoError(t, e.Set("data-count", "abcde"))
	assert.Equal(t, []any{3, 5}, got)
	assert.Equal(t, `<div data-count="5"></div>`, MustRender(e))
}

func TestClassList(t *testing.T) {
	e := NewElement("div", WithAttrs(A("class", "a b a")))
	assert.Equal(t, `<div class="a b"></div>`, MustRender(e))

	e.AddClass("c d", "b")
	assert.True(t, e.HasClass("d"))
	e.RemoveClass("a", "c")
	assert.Equal(t, `<div class="b d"></div>`, MustRender(e))

	require.NoError(t, e.Set("class", []string{"x"}))
	assert.Equal(t, `<div class="x"></div>`, MustRender(e))
}

func TestSchema_MergeAndOverride(t *testing.T) {
	base := NewSchema(nil, NewAttribute("first"), NewAttribute("second"), NewAttribute("third"))
	override := NewInt("second")
	child := NewSchema(base, override, NewAttribute("fourth"))

	assert.Equal(t, []string{"first", "second", "third", "fourth"}, child.Names())
	d, ok := child.Lookup("second")
	require.True(t, ok)
	assert.Same(t, override, d)
	assert.Equal(t, []string{"first", "second", "third"}, base.Names(), "base is not modified")

	assert.True(t, GlobalSchema.Has("tabindex"))
	assert.False(t, GlobalSchema.Has("name"))
	assert.True(t, NamedSchema.Has("name"))
}

func TestSchema_AggregatesSignals(t *testing.T) {
	base := NewSchema(nil, NewAttribute("href", WithSignal("href_changed")))
	child := NewSchema(base, NewBool("open", WithSignal("toggled")))
	assert.Equal(t, []string{"href_changed", "toggled"}, child.Signals())

	replaced := NewSchema(base, NewAttribute("href", WithSignal("href_changed")))
	assert.Equal(t, []string{"href_changed"}, replaced.Signals(), "an override does not duplicate its signal")

	assert.Panics(t, func() {
		NewSchema(base, NewAttribute("src", WithSignal("href_changed")))
	})
}

func TestSchema_Nil(t *testing.T) {
	var s *Schema
	assert.False(t, s.Has("id"))
	assert.Nil(t, s.Descriptors())
	assert.Nil(t, s.Signals())

	e := NewElement("div", WithSchema(nil))
	e.SetAttr("id", "free")
	assert.Equal(t, `<div id="free"></div>`, MustRender(e))
}
