package blox

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"

	"github.com/timothycrosley/blox/internal/errors"
)

// Descriptor describes how one declared attribute of an element is read,
// written and rendered.
type Descriptor interface {
	// Name is the attribute name used in markup and for lookups.
	Name() string

	// Signal is the change signal emitted on writes, or "".
	Signal() string

	Get(e *Element) (any, error)

	// Set stores v. String input is converted by the descriptor.
	Set(e *Element, v any) error

	Delete(e *Element)

	// Render returns name="value", or false when the value is unset or
	// empty.
	Render(e *Element) (string, bool)
}

// bagBacked is implemented by descriptors that keep their value in the
// element's free-form attribute bag.
type bagBacked interface {
	bagBacked()
}

// AttrOption configures a descriptor.
type AttrOption func(*attrConfig)

type attrConfig struct {
	signal     string
	trueToken  string
	falseToken string
	def        any
}

func newAttrConfig(opts []AttrOption) attrConfig {
	c := attrConfig{trueToken: "true", falseToken: "false"}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithSignal makes writes that change the value emit signal with the new
// value as payload.
func WithSignal(signal string) AttrOption {
	return func(c *attrConfig) { c.signal = signal }
}

// WithTokens sets the strings a Bool attribute stores for true and false.
func WithTokens(trueToken, falseToken string) AttrOption {
	return func(c *attrConfig) {
		c.trueToken = trueToken
		c.falseToken = falseToken
	}
}

// WithDefault sets the value returned when an attribute is unset.
func WithDefault(v any) AttrOption {
	return func(c *attrConfig) { c.def = v }
}

// Direct is a declared attribute stored in a dedicated per-element slot.
// Reading an unset slot materializes the default.
type Direct[T any] struct {
	name   string
	signal string
	def    func() T
	parse  func(string) (T, error)
	format func(T) string
}

// NewDirect creates a direct attribute. parse converts string input on Set;
// format produces the rendered value.
func NewDirect[T any](name string, def func() T, parse func(string) (T, error), format func(T) string, opts ...AttrOption) *Direct[T] {
	c := newAttrConfig(opts)
	return &Direct[T]{name: name, signal: c.signal, def: def, parse: parse, format: format}
}

// DirectString creates a direct string attribute such as id or name.
func DirectString(name string, opts ...AttrOption) *Direct[string] {
	return NewDirect(name,
		func() string { return "" },
		func(s string) (string, error) { return s, nil },
		func(s string) string { return s },
		opts...)
}

func (d *Direct[T]) Name() string   { return d.name }
func (d *Direct[T]) Signal() string { return d.signal }

// Value returns the slot value, materializing the default when unset.
func (d *Direct[T]) Value(e *Element) T {
	if v, ok := e.direct[d.name]; ok {
		return v.(T)
	}
	v := d.def()
	e.setDirect(d.name, v)
	return v
}

// IsSet reports whether the slot holds a value.
func (d *Direct[T]) IsSet(e *Element) bool {
	_, ok := e.direct[d.name]
	return ok
}

// SetValue stores v, emitting the signal if the value changed.
func (d *Direct[T]) SetValue(e *Element, v T) {
	if d.signal != "" {
		old, ok := e.direct[d.name]
		if !ok || !reflect.DeepEqual(old, v) {
			e.Emit(d.signal, v)
		}
	}
	e.setDirect(d.name, v)
}

func (d *Direct[T]) Get(e *Element) (any, error) {
	return d.Value(e), nil
}

func (d *Direct[T]) Set(e *Element, v any) error {
	if t, ok := v.(T); ok {
		d.SetValue(e, t)
		return nil
	}
	if v == nil {
		d.Delete(e)
		return nil
	}
	t, err := d.parse(stringify(v))
	if err != nil {
		return errors.New("E020").WithDetailf("%s=%q on <%s>", d.name, stringify(v), e.tag).Wrap(err)
	}
	d.SetValue(e, t)
	return nil
}

func (d *Direct[T]) Delete(e *Element) {
	delete(e.direct, d.name)
}

func (d *Direct[T]) Render(e *Element) (string, bool) {
	v, ok := e.direct[d.name]
	if !ok {
		return "", false
	}
	return renderPair(d.name, d.format(v.(T)))
}

// ClassList is the direct attribute behind class: an ordered list of
// distinct class names rendered space separated.
type ClassList struct {
	*Direct[[]string]
}

// NewClassList creates a class list attribute named name.
func NewClassList(name string, opts ...AttrOption) *ClassList {
	return &ClassList{NewDirect(name,
		func() []string { return nil },
		func(s string) ([]string, error) { return uniq(strings.Fields(s)), nil },
		func(v []string) string { return strings.Join(v, " ") },
		opts...)}
}

func uniq(names []string) []string {
	out := names[:0]
	for _, n := range names {
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// Add appends class names that are not already present.
func (c *ClassList) Add(e *Element, names ...string) {
	list := slices.Clone(c.Value(e))
	for _, n := range names {
		list = append(list, strings.Fields(n)...)
	}
	c.SetValue(e, uniq(list))
}

// Remove drops class names.
func (c *ClassList) Remove(e *Element, names ...string) {
	c.SetValue(e, slices.DeleteFunc(slices.Clone(c.Value(e)), func(n string) bool {
		return slices.Contains(names, n)
	}))
}

// Has reports whether name is in the list.
func (c *ClassList) Has(e *Element, name string) bool {
	return slices.Contains(c.Value(e), name)
}

// Attribute is a declared attribute stored in the element's attribute bag.
type Attribute struct {
	name   string
	signal string
}

// NewAttribute creates a bag-backed attribute.
func NewAttribute(name string, opts ...AttrOption) *Attribute {
	c := newAttrConfig(opts)
	return &Attribute{name: name, signal: c.signal}
}

func (a *Attribute) Name() string   { return a.name }
func (a *Attribute) Signal() string { return a.signal }
func (a *Attribute) bagBacked()     {}

// Get returns the stored value or an error matching ErrMissingAttribute.
func (a *Attribute) Get(e *Element) (any, error) {
	return e.Attr(a.name)
}

// Set stores v, emitting the signal when the value is new or differs.
func (a *Attribute) Set(e *Element, v any) error {
	if a.signal != "" {
		old, err := e.Attr(a.name)
		if err != nil || !reflect.DeepEqual(old, v) {
			e.Emit(a.signal, v)
		}
	}
	e.SetAttr(a.name, v)
	return nil
}

func (a *Attribute) Delete(e *Element) {
	e.DelAttr(a.name)
}

func (a *Attribute) Render(e *Element) (string, bool) {
	v, err := e.Attr(a.name)
	if err != nil {
		return "", false
	}
	return renderPair(a.name, v)
}

// Transform is a bag-backed attribute with a typed view: values are parsed
// from their stored string on read and formatted back on write.
type Transform[T any] struct {
	Attribute
	parse  func(string) (T, error)
	format func(T) string
	def    *T
}

// NewTransform creates a transform attribute. WithDefault sets the value
// returned for an unset attribute; its dynamic type must be T.
func NewTransform[T any](name string, parse func(string) (T, error), format func(T) string, opts ...AttrOption) *Transform[T] {
	c := newAttrConfig(opts)
	t := &Transform[T]{
		Attribute: Attribute{name: name, signal: c.signal},
		parse:     parse,
		format:    format,
	}
	if d, ok := c.def.(T); ok {
		t.def = &d
	}
	return t
}

// Value parses the stored value. An unset attribute yields the default, or
// an error matching ErrMissingAttribute when there is none.
func (t *Transform[T]) Value(e *Element) (T, error) {
	raw, err := e.Attr(t.name)
	if err != nil {
		if t.def != nil {
			return *t.def, nil
		}
		var zero T
		return zero, err
	}
	v, err := t.parse(stringify(raw))
	if err != nil {
		var zero T
		return zero, errors.New("E020").WithDetailf("%s=%q on <%s>", t.name, stringify(raw), e.tag).Wrap(err)
	}
	return v, nil
}

// SetValue stores the formatted form of v.
func (t *Transform[T]) SetValue(e *Element, v T) {
	_ = t.Attribute.Set(e, t.format(v))
}

func (t *Transform[T]) Get(e *Element) (any, error) {
	return t.Value(e)
}

// Set accepts a T, or any value whose string form parses as one. Empty
// input stores the default when there is one and deletes otherwise.
func (t *Transform[T]) Set(e *Element, v any) error {
	if typed, ok := v.(T); ok {
		t.SetValue(e, typed)
		return nil
	}
	s := stringify(v)
	if s == "" {
		if t.def != nil {
			t.SetValue(e, *t.def)
		} else {
			t.Delete(e)
		}
		return nil
	}
	typed, err := t.parse(s)
	if err != nil {
		return errors.New("E020").WithDetailf("%s=%q on <%s>", t.name, s, e.tag).Wrap(err)
	}
	t.SetValue(e, typed)
	return nil
}

// NewBool creates a boolean transform. The stored tokens default to "true"
// and "false" and are matched case-insensitively; a stored string matching
// neither reads as the default, which is false unless WithDefault says
// otherwise.
func NewBool(name string, opts ...AttrOption) *Transform[bool] {
	c := newAttrConfig(opts)
	def, _ := c.def.(bool)
	parse := func(s string) (bool, error) {
		switch {
		case strings.EqualFold(s, c.trueToken):
			return true, nil
		case strings.EqualFold(s, c.falseToken):
			return false, nil
		}
		return def, nil
	}
	format := func(v bool) string {
		if v {
			return c.trueToken
		}
		return c.falseToken
	}
	return NewTransform(name, parse, format, append(opts, WithDefault(def))...)
}

// Flag is an HTML boolean attribute such as disabled or hidden, where
// presence means true. True is stored as the attribute's own name and
// false removes the attribute.
type Flag struct {
	Attribute
}

// NewFlag creates a presence attribute.
func NewFlag(name string, opts ...AttrOption) *Flag {
	c := newAttrConfig(opts)
	return &Flag{Attribute{name: name, signal: c.signal}}
}

// Value reports whether the attribute is present. A stored "false" in
// any case reads as absent.
func (f *Flag) Value(e *Element) bool {
	raw, err := e.Attr(f.name)
	return err == nil && !strings.EqualFold(stringify(raw), "false")
}

// SetValue adds or removes the attribute, emitting the signal with v when
// that changes it.
func (f *Flag) SetValue(e *Element, v bool) {
	if f.signal != "" && f.Value(e) != v {
		e.Emit(f.signal, v)
	}
	if v {
		e.SetAttr(f.name, f.name)
		return
	}
	f.Delete(e)
}

func (f *Flag) Get(e *Element) (any, error) {
	return f.Value(e), nil
}

// Set accepts a bool. Other input sets the attribute unless it is nil or
// "false"; the empty string sets it, as in <input disabled>.
func (f *Flag) Set(e *Element, v any) error {
	switch b := v.(type) {
	case bool:
		f.SetValue(e, b)
	case nil:
		f.SetValue(e, false)
	default:
		f.SetValue(e, !strings.EqualFold(stringify(v), "false"))
	}
	return nil
}

// NewInt creates an integer transform stored in base 10.
func NewInt(name string, opts ...AttrOption) *Transform[int] {
	return NewTransform(name, strconv.Atoi, strconv.Itoa, opts...)
}

// NewStyle creates a transform exposing an inline style as CSS declarations.
func NewStyle(name string, opts ...AttrOption) *Transform[[]*css.Declaration] {
	return NewTransform(name, parser.ParseDeclarations, FormatDeclarations, opts...)
}

// FormatDeclarations renders declarations in inline style syntax.
func FormatDeclarations(decls []*css.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		s := d.Property + ": " + d.Value
		if d.Important {
			s += " !important"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
