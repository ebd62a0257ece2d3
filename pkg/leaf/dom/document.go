package dom

import (
	"fmt"

	"golang.org/x/net/html"
)

// Mode selects how markup strings are parsed
type Mode int

const (
	// ModeXML parses strict, case-sensitive, well-formed markup
	ModeXML Mode = iota
	// ModeHTML parses lenient HTML-style markup
	ModeHTML
)

func (m Mode) String() string {
	switch m {
	case ModeXML:
		return "xml"
	case ModeHTML:
		return "html"
	default:
		return "unknown"
	}
}

// ParseMode converts "xml" or "html" into a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "xml":
		return ModeXML, nil
	case "html":
		return ModeHTML, nil
	default:
		return ModeXML, fmt.Errorf("unknown parse mode %q (want xml or html)", s)
	}
}

// Node types as reported by Selection.NodeType
const (
	ElementNode  = html.ElementNode
	TextNode     = html.TextNode
	CommentNode  = html.CommentNode
	DoctypeNode  = html.DoctypeNode
	RawNode      = html.RawNode
	DocumentNode = html.DocumentNode
)

// Options configures a Document's parser
type Options struct {
	// Mode selects the XML or HTML parser
	Mode Mode
	// DecodeEntities makes the XML parser accept and decode HTML named
	// entities such as &nbsp; instead of rejecting them.
	DecodeEntities bool
}

// Document owns the parse options and the provenance table shared by all
// selections created from it.
type Document struct {
	opts    Options
	sources map[*html.Node]string
}

// NewDocument creates a new document with the given options
func NewDocument(opts Options) *Document {
	return &Document{
		opts:    opts,
		sources: make(map[*html.Node]string),
	}
}

// Options returns the document's parse options
func (d *Document) Options() Options {
	return d.opts
}

// SyntaxError reports malformed markup
type SyntaxError struct {
	Mode Mode
	Line int
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s syntax error on line %d: %s", e.Mode, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s syntax error: %s", e.Mode, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Parse parses markup into a selection of its top-level nodes. The nodes are
// children of a fresh container node so they can be replaced or removed like
// any other node.
func (d *Document) Parse(markup string) (*Selection, error) {
	container := &html.Node{Type: html.DocumentNode}

	var err error
	switch d.opts.Mode {
	case ModeHTML:
		err = parseHTML(markup, container)
	default:
		err = parseXML(markup, container, d.opts.DecodeEntities)
	}
	if err != nil {
		return nil, err
	}

	var nodes []*html.Node
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	return d.Select(nodes...), nil
}

// Select wraps existing nodes in a selection bound to this document
func (d *Document) Select(nodes ...*html.Node) *Selection {
	return &Selection{doc: d, nodes: nodes}
}

// Isolate moves the first node of sel into a fresh container of its own, so
// it can be replaced or removed without touching its former siblings.
func (d *Document) Isolate(sel *Selection) *Selection {
	n := sel.Node()
	if n == nil {
		return d.Select()
	}
	detach(n)
	container := &html.Node{Type: html.DocumentNode}
	container.AppendChild(n)
	return d.Select(n)
}

// NewElement creates a detached element node
func (d *Document) NewElement(tag string) *Selection {
	return d.Select(&html.Node{Type: html.ElementNode, Data: tag})
}

// NewText creates a detached text node
func (d *Document) NewText(text string) *Selection {
	return d.Select(&html.Node{Type: html.TextNode, Data: text})
}

func (d *Document) setSource(n *html.Node, source string) {
	if source == "" {
		delete(d.sources, n)
	} else {
		d.sources[n] = source
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.setSource(c, source)
	}
}

func (d *Document) source(n *html.Node) string {
	for ; n != nil; n = n.Parent {
		if src, ok := d.sources[n]; ok {
			return src
		}
	}
	return ""
}

// appendText appends text to parent, merging with a trailing text node
func appendText(parent *html.Node, text string) {
	if text == "" {
		return
	}
	if last := parent.LastChild; last != nil && last.Type == html.TextNode {
		last.Data += text
		return
	}
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
