package dom

import (
	"github.com/timothycrosley/blox/pkg/blox"
	"github.com/timothycrosley/blox/pkg/registry"
)

// tagInfo describes one standard tag.
type tagInfo struct {
	name  string
	void  bool
	named bool
	attrs []blox.Descriptor
}

func str(names ...string) []blox.Descriptor {
	out := make([]blox.Descriptor, len(names))
	for i, n := range names {
		out[i] = blox.NewAttribute(n)
	}
	return out
}

func flags(names ...string) []blox.Descriptor {
	out := make([]blox.Descriptor, len(names))
	for i, n := range names {
		out[i] = blox.NewFlag(n)
	}
	return out
}

func ints(names ...string) []blox.Descriptor {
	out := make([]blox.Descriptor, len(names))
	for i, n := range names {
		out[i] = blox.NewInt(n)
	}
	return out
}

func join(groups ...[]blox.Descriptor) []blox.Descriptor {
	var out []blox.Descriptor
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var (
	linkAttrs  = str("href", "hreflang", "media", "rel", "target", "type")
	mediaAttrs = join(flags("autoplay", "controls", "loop", "muted"), str("preload", "src"))
	cellAttrs  = join(ints("colspan", "rowspan"), str("headers"))
	sizeAttrs  = ints("width", "height")
	editAttrs  = str("cite", "datetime")
)

var catalogue = []tagInfo{
	{name: "a", attrs: join(linkAttrs, str("download"))},
	{name: "abbr"},
	{name: "address"},
	{name: "area", void: true, attrs: join(str("alt", "coords", "shape"), linkAttrs)},
	{name: "article"},
	{name: "aside"},
	{name: "audio", attrs: mediaAttrs},
	{name: "b"},
	{name: "base", void: true, attrs: str("href", "target")},
	{name: "bdi"},
	{name: "bdo"},
	{name: "blockquote", attrs: str("cite")},
	{name: "body"},
	{name: "br", void: true},
	{name: "button", named: true, attrs: join(str("type", "value", "form"), flags("disabled", "autofocus"))},
	{name: "canvas", attrs: sizeAttrs},
	{name: "caption"},
	{name: "cite"},
	{name: "code"},
	{name: "col", void: true, attrs: ints("span")},
	{name: "colgroup", attrs: ints("span")},
	{name: "data", attrs: str("value")},
	{name: "datalist"},
	{name: "dd"},
	{name: "del", attrs: editAttrs},
	{name: "details", attrs: flags("open")},
	{name: "dfn"},
	{name: "dialog", attrs: flags("open")},
	{name: "div"},
	{name: "dl"},
	{name: "dt"},
	{name: "em"},
	{name: "embed", void: true, attrs: join(str("src", "type"), sizeAttrs)},
	{name: "fieldset", named: true, attrs: join(str("form"), flags("disabled"))},
	{name: "figcaption"},
	{name: "figure"},
	{name: "footer"},
	{name: "form", named: true, attrs: join(str("action", "method", "enctype", "target", "autocomplete", "accept-charset"), flags("novalidate"))},
	{name: "h1"},
	{name: "h2"},
	{name: "h3"},
	{name: "h4"},
	{name: "h5"},
	{name: "h6"},
	{name: "head"},
	{name: "header"},
	{name: "hgroup"},
	{name: "hr", void: true},
	{name: "i"},
	{name: "iframe", named: true, attrs: join(str("src", "srcdoc", "sandbox", "allow"), sizeAttrs)},
	{name: "img", void: true, attrs: join(str("alt", "src", "srcset", "sizes", "usemap", "loading"), sizeAttrs, flags("ismap"))},
	{name: "input", void: true, named: true, attrs: join(
		str("type", "value", "placeholder", "min", "max", "step", "pattern", "form", "autocomplete", "list", "accept"),
		flags("checked", "disabled", "readonly", "required", "autofocus", "multiple"),
		ints("maxlength", "size"),
	)},
	{name: "ins", attrs: editAttrs},
	{name: "kbd"},
	{name: "label", attrs: str("for", "form")},
	{name: "legend"},
	{name: "li", attrs: ints("value")},
	{name: "link", void: true, attrs: join(linkAttrs, str("sizes", "crossorigin", "integrity"))},
	{name: "main"},
	{name: "map", named: true},
	{name: "mark"},
	{name: "menu"},
	{name: "meta", void: true, named: true, attrs: str("charset", "content", "http-equiv")},
	{name: "meter", attrs: str("value", "min", "max", "low", "high", "optimum")},
	{name: "nav"},
	{name: "noscript"},
	{name: "object", named: true, attrs: join(str("data", "type", "form"), sizeAttrs)},
	{name: "ol", attrs: join(ints("start"), flags("reversed"), str("type"))},
	{name: "optgroup", attrs: join(str("label"), flags("disabled"))},
	{name: "option", attrs: join(str("value", "label"), flags("selected", "disabled"))},
	{name: "output", named: true, attrs: str("for", "form")},
	{name: "p"},
	{name: "param", void: true, named: true, attrs: str("value")},
	{name: "picture"},
	{name: "pre"},
	{name: "progress", attrs: str("value", "max")},
	{name: "q", attrs: str("cite")},
	{name: "rp"},
	{name: "rt"},
	{name: "ruby"},
	{name: "s"},
	{name: "samp"},
	{name: "script", attrs: join(str("src", "type", "charset", "crossorigin", "integrity"), flags("async", "defer"))},
	{name: "section"},
	{name: "select", named: true, attrs: join(flags("multiple", "disabled", "required", "autofocus"), ints("size"), str("form"))},
	{name: "slot", named: true},
	{name: "small"},
	{name: "source", void: true, attrs: str("src", "srcset", "type", "media", "sizes")},
	{name: "span"},
	{name: "strong"},
	{name: "style", attrs: str("media", "type")},
	{name: "sub"},
	{name: "summary"},
	{name: "sup"},
	{name: "table"},
	{name: "tbody"},
	{name: "td", attrs: cellAttrs},
	{name: "template"},
	{name: "textarea", named: true, attrs: join(ints("rows", "cols", "maxlength"), str("placeholder", "wrap", "form"), flags("disabled", "readonly", "required", "autofocus"))},
	{name: "tfoot"},
	{name: "th", attrs: join(cellAttrs, str("scope", "abbr"))},
	{name: "thead"},
	{name: "time", attrs: str("datetime")},
	{name: "tr"},
	{name: "track", void: true, attrs: join(str("src", "kind", "label", "srclang"), flags("default"))},
	{name: "u"},
	{name: "ul"},
	{name: "var"},
	{name: "video", attrs: join(mediaAttrs, str("poster"), sizeAttrs)},
	{name: "wbr", void: true},
}

var (
	schemas = make(map[string]*blox.Schema, len(catalogue))
	voids   = make(map[string]bool)
)

// Tags is the registry of every standard tag plus document and title.
var Tags = registry.New("dom")

func init() {
	for _, s := range catalogue {
		base := blox.GlobalSchema
		if s.named {
			base = blox.NamedSchema
		}
		schemas[s.name] = blox.NewSchema(base, s.attrs...)
		if s.void {
			voids[s.name] = true
		}
		Tags.Register(constructor(s.name), s.name)
	}
	Tags.Register(func() blox.Node { return NewTitle("") }, "title")
	Tags.Register(func() blox.Node { return NewDocument() }, "document")
	Tags.Register(func() blox.Node { return NewDocument() }, "html")
	Tags.Register(func() blox.Node { return NewDocType() }, "doctype")
	Tags.SetFallback(func() blox.Node { return blox.NewInvalid() })
}

func constructor(tag string) registry.Constructor {
	return func() blox.Node { return Element(tag) }
}

// IsVoid reports whether tag is a void element, rendered self-closing and
// never given children.
func IsVoid(tag string) bool {
	return voids[tag]
}

// Schema returns the declared attributes of a standard tag, or
// blox.GlobalSchema for unknown tags.
func Schema(tag string) *blox.Schema {
	if s, ok := schemas[tag]; ok {
		return s
	}
	return blox.GlobalSchema
}

// Element creates a standard tag: a self-closing *blox.Element for void
// tags and a *blox.ElementWithChildren otherwise.
func Element(tag string, opts ...blox.ElementOption) blox.Tagged {
	opts = append([]blox.ElementOption{blox.WithSchema(Schema(tag))}, opts...)
	if IsVoid(tag) {
		return blox.NewElement(tag, append(opts, blox.SelfClosing())...)
	}
	return blox.NewElementWithChildren(tag, opts...)
}
