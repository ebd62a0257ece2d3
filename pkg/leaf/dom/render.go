package dom

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Format selects the serializer used by Render
type Format int

const (
	// FormatXML self-closes empty elements and escapes for XML
	FormatXML Format = iota
	// FormatHTML serializes with html.Render
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}

// ParseFormat converts "xml" or "html" into a Format
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "xml":
		return FormatXML, nil
	case "html":
		return FormatHTML, nil
	default:
		return FormatXML, fmt.Errorf("unknown output format %q (want xml or html)", s)
	}
}

// Render serializes every node in the selection, in order
func (s *Selection) Render(format Format) (string, error) {
	var sb strings.Builder
	if err := s.RenderTo(&sb, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderTo writes the serialized selection to w
func (s *Selection) RenderTo(w io.Writer, format Format) error {
	bw := bufio.NewWriter(w)
	for _, n := range s.nodes {
		var err error
		switch format {
		case FormatHTML:
			err = html.Render(bw, n)
		default:
			err = renderXML(bw, n)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

var (
	xmlTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	xmlAttrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func renderXML(w *bufio.Writer, n *html.Node) error {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := renderXML(w, c); err != nil {
				return err
			}
		}
		return nil
	case html.TextNode:
		_, err := xmlTextEscaper.WriteString(w, n.Data)
		return err
	case html.CommentNode:
		_, err := w.WriteString("<!--" + n.Data + "-->")
		return err
	case html.DoctypeNode:
		_, err := w.WriteString("<!DOCTYPE " + n.Data + ">")
		return err
	case html.RawNode:
		_, err := w.WriteString(n.Data)
		return err
	case html.ElementNode:
	default:
		return fmt.Errorf("cannot render node type %d", n.Type)
	}

	w.WriteByte('<')
	w.WriteString(n.Data)
	for _, a := range n.Attr {
		w.WriteByte(' ')
		if a.Namespace != "" {
			w.WriteString(a.Namespace + ":")
		}
		w.WriteString(a.Key)
		w.WriteString(`="`)
		xmlAttrEscaper.WriteString(w, a.Val)
		w.WriteByte('"')
	}
	if n.FirstChild == nil {
		_, err := w.WriteString("/>")
		return err
	}
	w.WriteByte('>')
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := renderXML(w, c); err != nil {
			return err
		}
	}
	w.WriteString("</")
	w.WriteString(n.Data)
	_, err := w.WriteString(">")
	return err
}
