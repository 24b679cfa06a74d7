// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the conventional manifest file name.
const DefaultFileName = "resource.yml"

// maxExpandedNodes bounds the copies ExpandAliases may make.
const maxExpandedNodes = 1 << 16

// Manifest is the in-memory form of one directory's manifest.
type Manifest struct {
	dir  string
	doc  *yaml.Node
	root *yaml.Node
}

// New returns an empty manifest for dir. It is used when a move creates the
// first manifest of a directory.
func New(dir string) *Manifest {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return &Manifest{
		dir:  dir,
		doc:  &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}},
		root: root,
	}
}

// Parse decodes manifest content. Empty documents and an explicit null root
// yield an empty manifest; any other non-mapping root is an error.
func Parse(dir string, data []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return New(dir), nil
	}

	root := doc.Content[0]
	switch {
	case root.Kind == yaml.MappingNode:
	case root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null":
		m := New(dir)
		m.doc.HeadComment = doc.HeadComment
		return m, nil
	default:
		return nil, fmt.Errorf("line %d: root must be a mapping of categories", root.Line)
	}

	return &Manifest{dir: dir, doc: &doc, root: root}, nil
}

// Dir returns the directory the manifest belongs to.
func (m *Manifest) Dir() string { return m.dir }

// Categories returns the category names in document order.
func (m *Manifest) Categories() []string {
	names := make([]string, 0, len(m.root.Content)/2)
	for i := 0; i+1 < len(m.root.Content); i += 2 {
		names = append(names, m.root.Content[i].Value)
	}
	return names
}

// Lookup returns the value of a category.
func (m *Manifest) Lookup(name string) (Value, bool) {
	if i := m.index(name); i >= 0 {
		return wrap(m.root.Content[i+1]), true
	}
	return nil, false
}

// Set replaces the value of a category, or appends the category at the end
// of the document if it does not exist yet.
func (m *Manifest) Set(name string, v Value) {
	if i := m.index(name); i >= 0 {
		m.root.Content[i+1] = v.yamlNode()
		return
	}
	m.root.Content = append(m.root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: strTag, Value: name},
		v.yamlNode(),
	)
}

// Category pairs a category name with its current value.
type Category struct {
	Name  string
	Value Value
}

// All returns every category in document order.
func (m *Manifest) All() []Category {
	cats := make([]Category, 0, len(m.root.Content)/2)
	for i := 0; i+1 < len(m.root.Content); i += 2 {
		cats = append(cats, Category{
			Name:  m.root.Content[i].Value,
			Value: wrap(m.root.Content[i+1]),
		})
	}
	return cats
}

// Encode serialises the manifest with two-space indentation.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m.doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExpandAliases replaces every alias in the document with a copy of the node
// it names. Anchors stay where they are. After expansion, entries can be
// removed or moved without leaving an alias pointing at a missing anchor.
func (m *Manifest) ExpandAliases() error {
	x := &aliasExpander{active: make(map[*yaml.Node]bool)}
	return x.expandChildren(m.doc)
}

type aliasExpander struct {
	active map[*yaml.Node]bool
	copied int
}

func (x *aliasExpander) expandChildren(n *yaml.Node) error {
	for i, child := range n.Content {
		if child.Kind != yaml.AliasNode {
			if err := x.expandChildren(child); err != nil {
				return err
			}
			continue
		}
		cp, err := x.copyAlias(child)
		if err != nil {
			return err
		}
		n.Content[i] = cp
	}
	return nil
}

func (x *aliasExpander) copyAlias(alias *yaml.Node) (*yaml.Node, error) {
	target := alias.Alias
	if target == nil {
		return nil, fmt.Errorf("line %d: unknown anchor %q", alias.Line, alias.Value)
	}
	if x.active[target] {
		return nil, fmt.Errorf("line %d: alias *%s refers to an enclosing node", alias.Line, alias.Value)
	}
	x.active[target] = true
	defer delete(x.active, target)

	cp, err := x.copyTree(resolve(target))
	if err != nil {
		return nil, err
	}
	if alias.HeadComment != "" {
		cp.HeadComment = alias.HeadComment
	}
	if alias.LineComment != "" {
		cp.LineComment = alias.LineComment
	}
	if alias.FootComment != "" {
		cp.FootComment = alias.FootComment
	}
	return cp, nil
}

func (x *aliasExpander) copyTree(n *yaml.Node) (*yaml.Node, error) {
	x.copied++
	if x.copied > maxExpandedNodes {
		return nil, fmt.Errorf("aliases expand to more than %d nodes", maxExpandedNodes)
	}
	cp := *n
	cp.Anchor = ""
	cp.Content = make([]*yaml.Node, 0, len(n.Content))
	for _, child := range n.Content {
		var (
			c   *yaml.Node
			err error
		)
		if child.Kind == yaml.AliasNode {
			c, err = x.copyAlias(child)
		} else {
			c, err = x.copyTree(child)
		}
		if err != nil {
			return nil, err
		}
		cp.Content = append(cp.Content, c)
	}
	return &cp, nil
}

func (m *Manifest) index(name string) int {
	for i := 0; i+1 < len(m.root.Content); i += 2 {
		if m.root.Content[i].Value == name {
			return i
		}
	}
	return -1
}
