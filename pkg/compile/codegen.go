package compile

import (
	"bytes"
	"go/format"
	"io"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/timothycrosley/blox/internal/errors"
)

// GoOptions configures WriteGo.
type GoOptions struct {
	// Package is the package clause of the generated file.
	Package string

	// Name is the generated struct type. The constructor is Build<Name>.
	Name string
}

type goField struct {
	Field string
	Name  string
}

type goFile struct {
	Package   string
	Name      string
	File      string
	Accessors []goField
	Queries   []goField
	Lines     []string
}

var goTemplate = template.Must(template.New("blox").Parse(`// Code generated by blox compile. DO NOT EDIT.
{{- if .File}}
// source: {{.File}}
{{- end}}

package {{.Package}}

import (
	"io"

	"github.com/timothycrosley/blox/pkg/blox"
	"github.com/timothycrosley/blox/pkg/compile"
	"github.com/timothycrosley/blox/pkg/registry"
)

// {{.Name}} is a compiled template.
type {{.Name}} struct {
	nodes blox.Container
{{range .Accessors}}
	// {{.Field}} is the element exposed as {{printf "%q" .Name}}.
	{{.Field}} blox.Node
{{- end}}
{{range .Queries}}
	// {{.Field}} holds the matches of query {{printf "%q" .Name}}.
	{{.Field}} []blox.Node
{{- end}}
}

// Output implements blox.Node.
func (t *{{.Name}}) Output(w io.Writer, opts blox.Options) error {
	return t.nodes.Output(w, opts)
}

// Build{{.Name}} builds a fresh {{.Name}} with the elements of reg.
func Build{{.Name}}(reg *registry.Registry) (*{{.Name}}, error) {
	t := &{{.Name}}{}
	b := compile.NewBuilder(reg, nil)
{{range .Lines}}	{{.}}
{{end}}	if err := b.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
`))

// WriteGo writes the program as a Go source file declaring a struct with
// one field per accessor and query, and a constructor running the build
// procedure. The output is gofmt-formatted.
func (p *Program) WriteGo(w io.Writer, opts GoOptions) error {
	if opts.Package == "" {
		opts.Package = "templates"
	}
	if opts.Name == "" {
		opts.Name = "Template"
	}
	opts.Name = exported(opts.Name)

	f := goFile{Package: opts.Package, Name: opts.Name, File: p.File}
	taken := map[string]bool{"Output": true}
	fields := make(map[string]string)
	for _, name := range p.Accessors {
		fields["a:"+name] = uniqueField(exported(name), taken)
		f.Accessors = append(f.Accessors, goField{Field: fields["a:"+name], Name: name})
	}
	for _, name := range p.Queries {
		fields["q:"+name] = uniqueField(exported(name), taken)
		f.Queries = append(f.Queries, goField{Field: fields["q:"+name], Name: name})
		f.Lines = append(f.Lines, "t."+fields["q:"+name]+" = []blox.Node{}")
	}
	f.Lines = append(f.Lines, p.goLines(fields)...)

	var buf bytes.Buffer
	if err := goTemplate.Execute(&buf, f); err != nil {
		return errors.New("E040").Wrap(err).WithDetail(err.Error())
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return errors.New("E040").Wrap(err).WithDetail(err.Error())
	}
	_, err = w.Write(src)
	return err
}

// goLines renders the instructions as statements. Only variables read by
// a later instruction are declared.
func (p *Program) goLines(fields map[string]string) []string {
	read := make(map[int]bool)
	for _, in := range p.Code {
		switch in.Op {
		case OpBuild, OpSlot:
			read[in.Parent] = true
		default:
			read[in.Var] = true
		}
	}

	ref := func(v int) string {
		if v == 0 {
			return "&t.nodes"
		}
		return p.Vars[v]
	}
	q := strconv.Quote

	lines := make([]string, 0, len(p.Code))
	for _, in := range p.Code {
		var call string
		switch in.Op {
		case OpBuild:
			call = "b.Build(" + q(in.Tag) + ", " + ref(in.Parent) + ", " + q(in.Path) + ")"
		case OpSlot:
			call = "b.Slot(" + ref(in.Parent) + ", " + q(in.Name) + ", " + q(in.Path) + ")"
		case OpSetText:
			lines = append(lines, "b.SetText("+ref(in.Var)+", "+q(in.Value)+", "+q(in.Path)+")")
		case OpAddText:
			lines = append(lines, "b.AddText("+ref(in.Var)+", "+q(in.Value)+", "+q(in.Path)+")")
		case OpSetAttr:
			lines = append(lines, "b.SetAttr("+ref(in.Var)+", "+q(in.Name)+", "+q(in.Value)+", "+q(in.Path)+")")
		case OpExpose:
			lines = append(lines, "t."+fields["a:"+in.Name]+" = "+ref(in.Var))
		case OpQuery:
			field := "t." + fields["q:"+in.Name]
			lines = append(lines, field+" = append("+field+", "+ref(in.Var)+")")
		}
		if call == "" {
			continue
		}
		if read[in.Var] {
			call = p.Vars[in.Var] + " := " + call
		}
		lines = append(lines, call)
	}
	return lines
}

// exported converts an accessor such as "main_nav" to "MainNav".
func exported(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' || r == '-' || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	s := b.String()
	if s == "" || !unicode.IsUpper([]rune(s)[0]) {
		s = "X" + s
	}
	return s
}

func uniqueField(name string, taken map[string]bool) string {
	base := name
	for i := 2; taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	taken[name] = true
	return name
}
