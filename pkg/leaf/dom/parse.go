package dom

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// voidElements never have children in HTML mode
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// parseXML builds a node tree from strict XML. RawToken is used so namespace
// prefixes survive untouched; end tags are matched here instead.
func parseXML(markup string, container *html.Node, decodeEntities bool) error {
	dec := xml.NewDecoder(strings.NewReader(markup))
	dec.Strict = true
	if decodeEntities {
		dec.Entity = xml.HTMLEntity
	}

	stack := []*html.Node{container}
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return xmlSyntaxError(dec, err)
		}

		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &html.Node{Type: html.ElementNode, Data: qualifiedName(t.Name)}
			for _, attr := range t.Attr {
				n.Attr = append(n.Attr, html.Attribute{Key: qualifiedName(attr.Name), Val: attr.Value})
			}
			parent.AppendChild(n)
			stack = append(stack, n)
		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 1 || parent.Data != name {
				line, _ := dec.InputPos()
				return &SyntaxError{Mode: ModeXML, Line: line, Msg: "unexpected end element </" + name + ">"}
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			appendText(parent, string(t))
		case xml.Comment:
			parent.AppendChild(&html.Node{Type: html.CommentNode, Data: string(t)})
		case xml.ProcInst:
			raw := "<?" + t.Target
			if len(t.Inst) > 0 {
				raw += " " + string(t.Inst)
			}
			parent.AppendChild(&html.Node{Type: html.RawNode, Data: raw + "?>"})
		case xml.Directive:
			parent.AppendChild(&html.Node{Type: html.RawNode, Data: "<!" + string(t) + ">"})
		}
	}

	if len(stack) > 1 {
		line, _ := dec.InputPos()
		return &SyntaxError{Mode: ModeXML, Line: line, Msg: "unclosed element <" + stack[len(stack)-1].Data + ">"}
	}
	return nil
}

func xmlSyntaxError(dec *xml.Decoder, err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &SyntaxError{Mode: ModeXML, Line: syntaxErr.Line, Msg: syntaxErr.Msg, Err: err}
	}
	line, _ := dec.InputPos()
	return &SyntaxError{Mode: ModeXML, Line: line, Msg: err.Error(), Err: err}
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// parseHTML builds a node tree from the x/net/html token stream without the
// HTML5 tree construction rules, so fragments and custom tags stay in place.
func parseHTML(markup string, container *html.Node) error {
	z := html.NewTokenizer(strings.NewReader(markup))
	stack := []*html.Node{container}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return &SyntaxError{Mode: ModeHTML, Msg: err.Error(), Err: err}
			}
			return nil
		}

		tok := z.Token()
		parent := stack[len(stack)-1]
		switch tt {
		case html.TextToken:
			appendText(parent, tok.Data)
		case html.StartTagToken, html.SelfClosingTagToken:
			n := &html.Node{
				Type:     html.ElementNode,
				Data:     tok.Data,
				DataAtom: tok.DataAtom,
				Attr:     tok.Attr,
			}
			parent.AppendChild(n)
			// A self-closing slash on a non-void element is ignored, as browsers do
			if !voidElements[tok.Data] {
				stack = append(stack, n)
			}
		case html.EndTagToken:
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Data == tok.Data {
					stack = stack[:i]
					break
				}
			}
		case html.CommentToken:
			parent.AppendChild(&html.Node{Type: html.CommentNode, Data: tok.Data})
		case html.DoctypeToken:
			parent.AppendChild(&html.Node{Type: html.DoctypeNode, Data: tok.Data})
		}
	}
}
