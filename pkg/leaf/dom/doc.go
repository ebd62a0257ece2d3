// Package dom provides the mutable markup tree used by go-leaf.
//
// Markup is parsed into a tree of golang.org/x/net/html nodes. Unlike html.Parse,
// the parsers in this package keep the tree as close to the source as possible:
// no implied <html>, <head> or <body> elements are inserted and custom tags are
// left where they were written.
//
// # Modes
//
// Two parse modes are supported:
//
//   - ModeXML: strict well-formed markup built on encoding/xml raw tokens. Tag and
//     attribute names are case-sensitive, <tag/> closes an element, and mismatched
//     end tags are a syntax error.
//   - ModeHTML: lenient markup built on the x/net/html tokenizer. Names are
//     lower-cased, void elements (br, img, ...) never have children, and unclosed
//     elements are closed at the end of input.
//
// # Selections
//
// A Selection is a view over one or more nodes of a tree. Selections never own
// nodes; mutating the tree through one selection is visible through every other
// selection holding the same node.
//
//	doc := dom.NewDocument(dom.Options{Mode: dom.ModeXML})
//	sel, err := doc.Parse(`<card title="Hi"><p>body</p></card>`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sel.SetAttr("id", "main")
//	out, _ := sel.Render(dom.FormatXML)
//
// # Provenance
//
// Every Document keeps a side table mapping nodes to the path of the file they
// came from. SetSource tags a node and all of its descendants; Source falls back
// to the nearest tagged ancestor so nodes moved under a tagged parent inherit it.
package dom
