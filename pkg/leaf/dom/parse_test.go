package dom

import (
	"errors"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, doc *Document, markup string) *Selection {
	t.Helper()
	sel, err := doc.Parse(markup)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", markup, err)
	}
	return sel
}

func TestParseXMLRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple element",
			input: "<div>Test</div>",
			want:  "<div>Test</div>",
		},
		{
			name:  "empty element self-closes",
			input: "<div></div>",
			want:  "<div/>",
		},
		{
			name:  "attributes keep order",
			input: `<a z="1" a="2" m="3"/>`,
			want:  `<a z="1" a="2" m="3"/>`,
		},
		{
			name:  "case is preserved",
			input: "<MyTag Attr=\"x\"><Inner/></MyTag>",
			want:  "<MyTag Attr=\"x\"><Inner/></MyTag>",
		},
		{
			name:  "namespaced names",
			input: `<w:p xmlns:w="urn:w"><w:r w:val="1"/></w:p>`,
			want:  `<w:p xmlns:w="urn:w"><w:r w:val="1"/></w:p>`,
		},
		{
			name:  "comments kept",
			input: "<div><!-- note --><br/></div>",
			want:  "<div><!-- note --><br/></div>",
		},
		{
			name:  "escaped text",
			input: "<p>a &amp; b &lt; c</p>",
			want:  "<p>a &amp; b &lt; c</p>",
		},
		{
			name:  "escaped attribute",
			input: `<p title="&quot;x&quot; &amp; y"/>`,
			want:  `<p title="&quot;x&quot; &amp; y"/>`,
		},
		{
			name:  "processing instruction",
			input: `<?xml version="1.0"?><r/>`,
			want:  `<?xml version="1.0"?><r/>`,
		},
		{
			name:  "cdata becomes text",
			input: "<p><![CDATA[<b>]]></p>",
			want:  "<p>&lt;b&gt;</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument(Options{Mode: ModeXML})
			sel := mustParse(t, doc, tt.input)
			got, err := sel.Render(FormatXML)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseXMLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"mismatched end tag", "<a></b>"},
		{"unclosed element", "<a><b></b>"},
		{"stray end tag", "</a>"},
		{"unknown entity", "<p>&nbsp;</p>"},
		{"unquoted attribute", "<p a=1/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument(Options{Mode: ModeXML})
			_, err := doc.Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.input)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("Parse(%q) error = %T, want *SyntaxError", tt.input, err)
			}
			if syntaxErr.Mode != ModeXML {
				t.Errorf("SyntaxError.Mode = %v, want xml", syntaxErr.Mode)
			}
		})
	}
}

func TestParseXMLDecodeEntities(t *testing.T) {
	doc := NewDocument(Options{Mode: ModeXML, DecodeEntities: true})
	sel := mustParse(t, doc, "<p>a&nbsp;b</p>")
	if got := sel.Text(); got != "a\u00a0b" {
		t.Errorf("Text() = %q, want %q", got, "a\u00a0b")
	}
}

func TestParseHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "names are lower-cased",
			input: "<DIV CLASS=\"x\">hi</DIV>",
			want:  `<div class="x">hi</div>`,
		},
		{
			name:  "void elements have no children",
			input: "<p><br>text<img src=\"a.png\"></p>",
			want:  `<p><br/>text<img src="a.png"/></p>`,
		},
		{
			name:  "self-closing non-void element opens",
			input: "<div><span/>x</div>",
			want:  "<div><span>x</span></div>",
		},
		{
			name:  "custom tags stay in place",
			input: `<my-card title="x"><slot-a></slot-a></my-card>`,
			want:  `<my-card title="x"><slot-a></slot-a></my-card>`,
		},
		{
			name:  "unclosed elements are closed",
			input: "<ul><li>one",
			want:  "<ul><li>one</li></ul>",
		},
		{
			name:  "stray end tags are ignored",
			input: "<div>a</span>b</div>",
			want:  "<div>ab</div>",
		},
		{
			name:  "no implied html body",
			input: "<td>cell</td>",
			want:  "<td>cell</td>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument(Options{Mode: ModeHTML})
			sel := mustParse(t, doc, tt.input)
			got, err := sel.Render(FormatHTML)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTopLevelNodes(t *testing.T) {
	for _, mode := range []Mode{ModeXML, ModeHTML} {
		t.Run(mode.String(), func(t *testing.T) {
			doc := NewDocument(Options{Mode: mode})
			sel := mustParse(t, doc, "<!-- modules: a --> <a></a>\n<b></b>")
			if sel.Len() != 5 {
				t.Fatalf("Len() = %d, want 5", sel.Len())
			}
			if sel.NodeType() != html.CommentNode {
				t.Errorf("first node type = %v, want comment", sel.NodeType())
			}
			if got := sel.CommentValue(); got != " modules: a " {
				t.Errorf("CommentValue() = %q", got)
			}

			filtered := sel.FilterEmptyTextAndComments()
			if filtered.Len() != 2 {
				t.Fatalf("filtered Len() = %d, want 2", filtered.Len())
			}
			if filtered.TagName() != "a" || filtered.Eq(1).TagName() != "b" {
				t.Errorf("filtered tags = %s, %s", filtered.TagName(), filtered.Eq(1).TagName())
			}
			if !filtered.HasParent() {
				t.Error("top-level nodes should share a container parent")
			}
		})
	}
}

func TestParseModeAndFormat(t *testing.T) {
	if m, err := ParseMode("html"); err != nil || m != ModeHTML {
		t.Errorf("ParseMode(html) = %v, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeXML {
		t.Errorf("ParseMode(\"\") = %v, %v", m, err)
	}
	if _, err := ParseMode("sgml"); err == nil {
		t.Error("ParseMode(sgml) expected error")
	}
	if f, err := ParseFormat("html"); err != nil || f != FormatHTML {
		t.Errorf("ParseFormat(html) = %v, %v", f, err)
	}
	if _, err := ParseFormat("json"); err == nil {
		t.Error("ParseFormat(json) expected error")
	}
}
