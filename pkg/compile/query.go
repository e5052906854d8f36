package compile

import (
	"maps"
	"slices"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/timothycrosley/blox/internal/errors"
)

type selector interface {
	Match(n *html.Node) bool
}

// matcher resolves query selectors against a template source. Matching
// runs on a shadow html.Node tree mirroring the source elements.
type matcher struct {
	hits map[*Source][]string
}

func newMatcher(src *Source, queries map[string]string) (*matcher, error) {
	m := &matcher{hits: make(map[*Source][]string)}
	if len(queries) == 0 {
		return m, nil
	}

	shadow := make(map[*html.Node]*Source)
	root := &html.Node{Type: html.DocumentNode}
	for _, child := range src.Children {
		root.AppendChild(mirror(child, shadow))
	}

	for _, name := range slices.Sorted(maps.Keys(queries)) {
		var sel selector
		sel, err := cascadia.Compile(queries[name])
		if err != nil {
			return nil, errors.New("E043").Wrap(err).WithDetailf("%s: %q: %v", name, queries[name], err)
		}
		walk(root, func(n *html.Node) {
			if n.Type == html.ElementNode && sel.Match(n) {
				s := shadow[n]
				m.hits[s] = append(m.hits[s], name)
			}
		})
	}
	return m, nil
}

func mirror(s *Source, shadow map[*html.Node]*Source) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: s.Tag}
	for _, a := range s.Attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Name, Val: a.Value})
	}
	shadow[n] = s
	for _, child := range s.Children {
		n.AppendChild(mirror(child, shadow))
	}
	return n
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fn(c)
		walk(c, fn)
	}
}

// matches returns the sorted names of the queries selecting s.
func (m *matcher) matches(s *Source) []string {
	return m.hits[s]
}
