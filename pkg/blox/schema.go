package blox

import (
	"slices"

	"github.com/timothycrosley/blox/internal/errors"
)

// Schema is the ordered set of attributes an element type declares.
// Schemas are built once, when the element type is defined, and shared by
// every element of that type.
type Schema struct {
	descs   []Descriptor
	index   map[string]int
	signals []string
}

// NewSchema merges base with the given declarations. Base declarations come
// first; a declaration reusing a base name replaces it in place. Signals of
// all descriptors are collected into the schema's signal set. NewSchema
// panics if two descriptors declare the same signal.
func NewSchema(base *Schema, descs ...Descriptor) *Schema {
	s := &Schema{index: make(map[string]int)}
	if base != nil {
		s.descs = slices.Clone(base.descs)
		for name, i := range base.index {
			s.index[name] = i
		}
	}
	for _, d := range descs {
		if i, ok := s.index[d.Name()]; ok {
			s.descs[i] = d
			continue
		}
		s.index[d.Name()] = len(s.descs)
		s.descs = append(s.descs, d)
	}
	for _, d := range s.descs {
		sig := d.Signal()
		if sig == "" {
			continue
		}
		if slices.Contains(s.signals, sig) {
			panic(errors.New("E032").WithDetailf("signal %q declared twice (last by %q)", sig, d.Name()))
		}
		s.signals = append(s.signals, sig)
	}
	return s
}

// Lookup returns the descriptor declared under name.
func (s *Schema) Lookup(name string) (Descriptor, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.descs[i], true
}

func (s *Schema) list() []Descriptor {
	if s == nil {
		return nil
	}
	return s.descs
}

// Has reports whether name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Descriptors returns the declarations in render order.
func (s *Schema) Descriptors() []Descriptor {
	if s == nil {
		return nil
	}
	return slices.Clone(s.descs)
}

// Names returns the declared attribute names in render order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.descs))
	for i, d := range s.descs {
		names[i] = d.Name()
	}
	return names
}

// Signals returns every signal a descriptor in the schema may emit.
func (s *Schema) Signals() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.signals)
}

// Attributes shared by every tag.
var (
	ID              = DirectString("id")
	Class           = NewClassList("class")
	AccessKey       = NewAttribute("accesskey")
	ContentEditable = NewBool("contenteditable", WithDefault(true))
	ContextMenu     = NewAttribute("contextmenu")
	Dir             = NewAttribute("dir")
	Draggable       = NewBool("draggable")
	DropZone        = NewAttribute("dropzone")
	Hidden          = NewFlag("hidden")
	Lang            = NewAttribute("lang")
	SpellCheck      = NewBool("spellcheck")
	StyleAttr       = NewStyle("style")
	TabIndex        = NewInt("tabindex")
	Translate       = NewBool("translate", WithTokens("yes", "no"))

	// Name is the direct name attribute of form controls and other
	// named tags.
	Name = DirectString("name")
)

// GlobalSchema declares the attributes every element accepts.
var GlobalSchema = NewSchema(nil,
	ID, Class, AccessKey, ContentEditable, ContextMenu, Dir, Draggable,
	DropZone, Hidden, Lang, SpellCheck, StyleAttr, TabIndex, Translate,
)

// NamedSchema extends GlobalSchema with name.
var NamedSchema = NewSchema(GlobalSchema, Name)
