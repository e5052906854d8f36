package templates

import (
	"bytes"
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/timothycrosley/blox/internal/errors"
	"github.com/timothycrosley/blox/pkg/compile"
)

// Sentinels for errors.Is.
var (
	ErrNotFound = errors.Sentinel("E060")
	ErrRead     = errors.Sentinel("E061")
)

// DefaultExtensions are tried in order when a template name has no
// extension of its own.
var DefaultExtensions = []string{".html", ".xhtml", ".xml"}

// File is loaded template source.
type File struct {
	// Name is the name the template was requested by.
	Name string

	// Path is the location the source was read from, including extension.
	Path string

	Data []byte
}

// Parse parses the source by extension: .xhtml and .xml are read as
// well-formed XML, anything else as HTML5.
func (f *File) Parse() (*compile.Source, error) {
	var (
		src *compile.Source
		err error
	)
	switch strings.ToLower(path.Ext(f.Path)) {
	case ".xhtml", ".xml":
		src, err = compile.ParseXML(bytes.NewReader(f.Data))
	default:
		src, err = compile.ParseHTML(bytes.NewReader(f.Data))
	}
	if err != nil {
		var be *errors.BloxError
		if stderrors.As(err, &be) {
			be.WithLocationFromError(f.Path, be.Wrapped)
		}
		return nil, err
	}
	return src, nil
}

// Loader reads template source by name.
type Loader interface {
	Load(ctx context.Context, name string) (*File, error)
}

// candidates returns the paths tried for name.
func candidates(name string, exts []string) []string {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	if slices.Contains(exts, strings.ToLower(path.Ext(name))) {
		return []string{name}
	}
	out := make([]string, len(exts))
	for i, ext := range exts {
		out[i] = name + ext
	}
	return out
}

// FSLoader loads templates from a file system.
type FSLoader struct {
	FS fs.FS

	// Dir is the directory FS was opened on, if any. Watch uses it.
	Dir string

	// Extensions overrides DefaultExtensions.
	Extensions []string
}

// NewDirLoader loads templates from a directory on disk.
func NewDirLoader(dir string) *FSLoader {
	return &FSLoader{FS: os.DirFS(dir), Dir: dir}
}

// Load implements Loader.
func (l *FSLoader) Load(_ context.Context, name string) (*File, error) {
	for _, p := range candidates(name, l.Extensions) {
		data, err := fs.ReadFile(l.FS, p)
		if stderrors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.New("E061").Wrap(err).WithDetail(err.Error()).WithNode(p, "")
		}
		return &File{Name: name, Path: p, Data: data}, nil
	}
	return nil, errors.New("E060").WithDetailf("%q", name)
}

// List returns the names of all templates in the file system, without
// extension, in sorted order.
func (l *FSLoader) List() ([]string, error) {
	exts := l.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	var names []string
	err := fs.WalkDir(l.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if slices.Contains(exts, strings.ToLower(ext)) {
			names = append(names, strings.TrimSuffix(p, ext))
		}
		return nil
	})
	if err != nil {
		return nil, errors.New("E061").Wrap(err).WithDetail(err.Error())
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
