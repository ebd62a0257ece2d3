package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Selection is a view over an ordered list of nodes in a Document's tree
type Selection struct {
	doc   *Document
	nodes []*html.Node
}

// Document returns the document the selection belongs to
func (s *Selection) Document() *Document {
	return s.doc
}

// Len returns the number of nodes in the selection
func (s *Selection) Len() int {
	return len(s.nodes)
}

// Nodes returns a copy of the selected nodes
func (s *Selection) Nodes() []*html.Node {
	out := make([]*html.Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Node returns the first selected node, or nil for an empty selection
func (s *Selection) Node() *html.Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[0]
}

// Eq returns the i-th node as a selection. Out of range yields an empty selection.
func (s *Selection) Eq(i int) *Selection {
	if i < 0 || i >= len(s.nodes) {
		return s.doc.Select()
	}
	return s.doc.Select(s.nodes[i])
}

// First is Eq(0)
func (s *Selection) First() *Selection {
	return s.Eq(0)
}

// IsElement reports whether the first node is an element
func (s *Selection) IsElement() bool {
	n := s.Node()
	return n != nil && n.Type == html.ElementNode
}

// NodeType returns the type of the first node, html.ErrorNode when empty
func (s *Selection) NodeType() html.NodeType {
	if n := s.Node(); n != nil {
		return n.Type
	}
	return html.ErrorNode
}

// TagName returns the first node's tag name, or "" for non-elements
func (s *Selection) TagName() string {
	if !s.IsElement() {
		return ""
	}
	return s.nodes[0].Data
}

// CommentValue returns the first node's comment text, or "" for non-comments
func (s *Selection) CommentValue() string {
	n := s.Node()
	if n == nil || n.Type != html.CommentNode {
		return ""
	}
	return n.Data
}

// Describe returns a short human-readable description of the first node,
// used in error messages.
func (s *Selection) Describe() string {
	n := s.Node()
	if n == nil {
		return "nothing"
	}
	switch n.Type {
	case html.ElementNode:
		return "<" + n.Data + ">"
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if len(text) > 20 {
			text = text[:20] + "..."
		}
		return "text " + quote(text)
	case html.CommentNode:
		return "comment"
	case html.DoctypeNode:
		return "doctype"
	case html.RawNode:
		return "processing instruction"
	default:
		return "node"
	}
}

func quote(s string) string {
	return `"` + s + `"`
}

func attrIndex(n *html.Node, name string) int {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return i
		}
	}
	return -1
}

// Attr returns the value of the named attribute on the first node
func (s *Selection) Attr(name string) (string, bool) {
	n := s.Node()
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	if i := attrIndex(n, name); i >= 0 {
		return n.Attr[i].Val, true
	}
	return "", false
}

// AttrOr returns the named attribute or def when it is missing
func (s *Selection) AttrOr(name, def string) string {
	if v, ok := s.Attr(name); ok {
		return v
	}
	return def
}

// HasAttr reports whether the first node carries the named attribute
func (s *Selection) HasAttr(name string) bool {
	_, ok := s.Attr(name)
	return ok
}

// SetAttr sets an attribute on every selected element
func (s *Selection) SetAttr(name, value string) *Selection {
	for _, n := range s.nodes {
		if n.Type != html.ElementNode {
			continue
		}
		if i := attrIndex(n, name); i >= 0 {
			n.Attr[i].Val = value
		} else {
			n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
		}
	}
	return s
}

// RemoveAttr removes an attribute from every selected element
func (s *Selection) RemoveAttr(name string) *Selection {
	for _, n := range s.nodes {
		if n.Type != html.ElementNode {
			continue
		}
		if i := attrIndex(n, name); i >= 0 {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
		}
	}
	return s
}

// Attrs returns a copy of the first node's attributes in source order
func (s *Selection) Attrs() []html.Attribute {
	n := s.Node()
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	out := make([]html.Attribute, len(n.Attr))
	copy(out, n.Attr)
	return out
}

// Children returns the element children of every selected node
func (s *Selection) Children() *Selection {
	var out []*html.Node
	for _, n := range s.nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, c)
			}
		}
	}
	return s.doc.Select(out...)
}

// Contents returns all child nodes, including text and comments
func (s *Selection) Contents() *Selection {
	var out []*html.Node
	for _, n := range s.nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			out = append(out, c)
		}
	}
	return s.doc.Select(out...)
}

// Parent returns the distinct parents of the selected nodes
func (s *Selection) Parent() *Selection {
	var out []*html.Node
	seen := make(map[*html.Node]bool)
	for _, n := range s.nodes {
		if p := n.Parent; p != nil && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return s.doc.Select(out...)
}

// HasParent reports whether the first node is attached to a parent
func (s *Selection) HasParent() bool {
	n := s.Node()
	return n != nil && n.Parent != nil
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceWith puts the nodes of other where the first selected node is and
// detaches the selected node. Nothing happens when it has no parent.
func (s *Selection) ReplaceWith(other *Selection) *Selection {
	target := s.Node()
	if target == nil || target.Parent == nil {
		return s
	}
	parent := target.Parent
	for _, n := range other.nodes {
		if n == target {
			continue
		}
		detach(n)
		parent.InsertBefore(n, target)
	}
	parent.RemoveChild(target)
	return s
}

// Remove detaches every selected node from its parent
func (s *Selection) Remove() *Selection {
	for _, n := range s.nodes {
		detach(n)
	}
	return s
}

// Append moves the nodes of other to the end of the first selected node
func (s *Selection) Append(other *Selection) *Selection {
	target := s.Node()
	if target == nil {
		return s
	}
	for _, n := range other.nodes {
		if n == target {
			continue
		}
		detach(n)
		target.AppendChild(n)
	}
	return s
}

// AppendText appends a text node to the first selected node
func (s *Selection) AppendText(text string) *Selection {
	if target := s.Node(); target != nil {
		appendText(target, text)
	}
	return s
}

// Empty removes every child of the selected nodes
func (s *Selection) Empty() *Selection {
	for _, n := range s.nodes {
		for c := n.FirstChild; c != nil; c = n.FirstChild {
			n.RemoveChild(c)
		}
	}
	return s
}

// Find returns the descendant elements named tag in document order. "*"
// matches any element.
func (s *Selection) Find(tag string) *Selection {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (tag == "*" || c.Data == tag) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	for _, n := range s.nodes {
		walk(n)
	}
	return s.doc.Select(out...)
}

// Filter keeps the nodes for which fn returns true
func (s *Selection) Filter(fn func(int, *Selection) bool) *Selection {
	var out []*html.Node
	for i, n := range s.nodes {
		if fn(i, s.doc.Select(n)) {
			out = append(out, n)
		}
	}
	return s.doc.Select(out...)
}

// FilterEmptyTextAndComments drops comments and whitespace-only text nodes
func (s *Selection) FilterEmptyTextAndComments() *Selection {
	return s.Filter(func(_ int, sel *Selection) bool {
		n := sel.Node()
		switch n.Type {
		case html.CommentNode:
			return false
		case html.TextNode:
			return strings.TrimSpace(n.Data) != ""
		default:
			return true
		}
	})
}

// Each calls fn for every selected node
func (s *Selection) Each(fn func(int, *Selection)) *Selection {
	for i, n := range s.nodes {
		fn(i, s.doc.Select(n))
	}
	return s
}

// Text returns the combined text content of the selected nodes
func (s *Selection) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.nodes {
		walk(n)
	}
	return sb.String()
}

// SetText replaces the children of every selected node with a single text node
func (s *Selection) SetText(text string) *Selection {
	s.Empty()
	for _, n := range s.nodes {
		appendText(n, text)
	}
	return s
}

// Source returns the provenance path of the first node, inherited from the
// nearest tagged ancestor.
func (s *Selection) Source() string {
	n := s.Node()
	if n == nil {
		return ""
	}
	return s.doc.source(n)
}

// SetSource tags every selected node and its descendants with a provenance
// path. An empty path clears the tag.
func (s *Selection) SetSource(source string) *Selection {
	for _, n := range s.nodes {
		s.doc.setSource(n, source)
	}
	return s
}
