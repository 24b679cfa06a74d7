// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"gopkg.in/yaml.v3"
)

const strTag = "!!str"

type (
	// Value is the value of one manifest category. It is one of *List,
	// *Scalar, *Mapping or *Opaque; switch on the concrete type to decide
	// whether a category takes part in reconciliation.
	Value interface {
		yamlNode() *yaml.Node
	}

	// List is a sequence value. Elements are kept as YAML nodes so that
	// non-string entries survive a round trip; only string scalars are
	// compared against file names.
	List struct {
		seq *yaml.Node
	}

	// Scalar is a single scalar value such as a version string.
	Scalar struct {
		node *yaml.Node
	}

	// Mapping is a nested mapping value.
	Mapping struct {
		node *yaml.Node
	}

	// Opaque wraps any other node, such as an explicit null, and is passed
	// through untouched.
	Opaque struct {
		node *yaml.Node
	}
)

// wrap classifies a YAML value node into the Value union. Aliases are
// classified by the node they refer to.
func wrap(n *yaml.Node) Value {
	n = resolve(n)
	switch n.Kind {
	case yaml.SequenceNode:
		return &List{seq: n}
	case yaml.MappingNode:
		return &Mapping{node: n}
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return &Opaque{node: n}
		}
		return &Scalar{node: n}
	default:
		return &Opaque{node: n}
	}
}

// NewList builds a block-style list of string entries.
func NewList(names ...string) *List {
	l := &List{seq: &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}}
	l.Append(names...)
	return l
}

func (l *List) yamlNode() *yaml.Node { return l.seq }

// Len returns the number of elements, including non-string ones.
func (l *List) Len() int { return len(l.seq.Content) }

// Names returns the string entries of the list in order. Non-string
// elements are skipped.
func (l *List) Names() []string {
	names := make([]string, 0, len(l.seq.Content))
	for _, item := range l.seq.Content {
		if item = resolve(item); isString(item) {
			names = append(names, item.Value)
		}
	}
	return names
}

// Count returns how many elements equal name.
func (l *List) Count(name string) int {
	n := 0
	for _, item := range l.seq.Content {
		if matches(resolve(item), name) {
			n++
		}
	}
	return n
}

// Replace rewrites every element equal to oldName to newName in place and
// returns the number of replacements. Positions and duplicates are kept.
// An aliased element is rewritten at its anchor, so every alias follows.
func (l *List) Replace(oldName, newName string) int {
	n := 0
	for _, item := range l.seq.Content {
		if item = resolve(item); matches(item, oldName) {
			item.Value = newName
			n++
		}
	}
	return n
}

// Partition splits the list into the elements equal to name and everything
// else. Relative order is kept inside each part and the receiver is not
// modified. Both parts inherit the receiver's tag and style; remaining also
// keeps its anchor and comments so it can stand in for the receiver.
// Matched elements are copies without anchors, so they can move to another
// document. Aliases into matched elements are not rewritten; callers moving
// entries out of a document call Manifest.ExpandAliases first.
func (l *List) Partition(name string) (matched, remaining *List) {
	matched = &List{seq: l.emptyLike()}
	rest := *l.seq
	rest.Content = make([]*yaml.Node, 0, len(l.seq.Content))
	remaining = &List{seq: &rest}
	for _, item := range l.seq.Content {
		if target := resolve(item); matches(target, name) {
			matched.seq.Content = append(matched.seq.Content, detach(target))
		} else {
			remaining.seq.Content = append(remaining.seq.Content, item)
		}
	}
	return matched, remaining
}

// Append adds string entries to the end of the list.
func (l *List) Append(names ...string) {
	for _, name := range names {
		l.seq.Content = append(l.seq.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   strTag,
			Value: name,
		})
	}
}

// Concat appends every element of other to the end of the list.
func (l *List) Concat(other *List) {
	l.seq.Content = append(l.seq.Content, other.seq.Content...)
}

func (l *List) emptyLike() *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Tag:   l.seq.Tag,
		Style: l.seq.Style,
	}
}

func (s *Scalar) yamlNode() *yaml.Node { return s.node }

// String returns the scalar's literal text.
func (s *Scalar) String() string { return s.node.Value }

func (m *Mapping) yamlNode() *yaml.Node { return m.node }

// Len returns the number of key/value pairs in the nested mapping.
func (m *Mapping) Len() int { return len(m.node.Content) / 2 }

func (o *Opaque) yamlNode() *yaml.Node { return o.node }

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == strTag
}

// resolve follows alias nodes to the node they name.
func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func matches(n *yaml.Node, name string) bool {
	return isString(n) && n.Value == name
}

// detach copies a scalar element without its anchor.
func detach(n *yaml.Node) *yaml.Node {
	return &yaml.Node{
		Kind:        n.Kind,
		Tag:         n.Tag,
		Style:       n.Style,
		Value:       n.Value,
		LineComment: n.LineComment,
	}
}
