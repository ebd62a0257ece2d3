package leaf

import (
	"testing"

	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

func parsePair(t *testing.T, dstMarkup, srcMarkup string) (*dom.Document, *dom.Selection, *dom.Selection) {
	t.Helper()
	doc := dom.NewDocument(dom.Options{})
	dst, err := doc.Parse(dstMarkup)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", dstMarkup, err)
	}
	src, err := doc.Parse(srcMarkup)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", srcMarkup, err)
	}
	return doc, dst, src
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		dst  string
		src  string
		opts *MergeOptions
		want string
	}{
		{
			name: "src wins by default",
			dst:  `<a id="dst" title="t"/>`,
			src:  `<x id="src"/>`,
			want: `<a id="src" title="t"/>`,
		},
		{
			name: "class tokens are combined",
			dst:  `<a class="btn big"/>`,
			src:  `<x class="big primary"/>`,
			want: `<a class="btn big primary"/>`,
		},
		{
			name: "class combine does not duplicate",
			dst:  `<a class="a"/>`,
			src:  `<x class="a"/>`,
			want: `<a class="a"/>`,
		},
		{
			name: "data attributes are skipped",
			dst:  `<a/>`,
			src:  `<x data-value="5" value="6"/>`,
			want: `<a value="6"/>`,
		},
		{
			name: "dst operator keeps template value",
			dst:  `<a id="dst"/>`,
			src:  `<x id="src" title="t"/>`,
			opts: &MergeOptions{Attributes: map[string]string{"id": "dst"}},
			want: `<a id="dst" title="t"/>`,
		},
		{
			name: "dst operator takes src when template has none",
			dst:  `<a/>`,
			src:  `<x id="src"/>`,
			opts: &MergeOptions{Attributes: map[string]string{"*": "dst"}},
			want: `<a id="src"/>`,
		},
		{
			name: "combine on any attribute",
			dst:  `<a rel="noopener"/>`,
			src:  `<x rel="external noopener"/>`,
			opts: &MergeOptions{Attributes: map[string]string{"rel": "combine"}},
			want: `<a rel="noopener external"/>`,
		},
		{
			name: "class can be overridden",
			dst:  `<a class="a"/>`,
			src:  `<x class="b"/>`,
			opts: &MergeOptions{Attributes: map[string]string{"class": "src"}},
			want: `<a class="b"/>`,
		},
		{
			name: "children are appended",
			dst:  `<wrap><h1>Title</h1></wrap>`,
			src:  `<x>child <b>text</b></x>`,
			want: `<wrap><h1>Title</h1>child <b>text</b></wrap>`,
		},
		{
			name: "content placeholder is replaced",
			dst:  `<wrap><content/></wrap>`,
			src:  `<x>child text</x>`,
			want: `<wrap>child text</wrap>`,
		},
		{
			name: "nested placeholder",
			dst:  `<wrap><div class="body"><content/></div><footer/></wrap>`,
			src:  `<x><p>one</p><p>two</p></x>`,
			want: `<wrap><div class="body"><p>one</p><p>two</p></div><footer/></wrap>`,
		},
		{
			name: "placeholder without children is dropped",
			dst:  `<wrap><content/></wrap>`,
			src:  `<x/>`,
			want: `<wrap/>`,
		},
		{
			name: "custom content tag",
			dst:  `<wrap><slot/><content/></wrap>`,
			src:  `<x>hi</x>`,
			opts: &MergeOptions{ContentTag: "slot"},
			want: `<wrap>hi<content/></wrap>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, dst, src := parsePair(t, tt.dst, tt.src)
			if err := Merge(dst, src, tt.opts); err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			got, err := dst.Render(dom.FormatXML)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Merge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeTwiceIsIdempotentForClass(t *testing.T) {
	doc, dst, _ := parsePair(t, `<a class="a b"/>`, `<x/>`)
	for i := 0; i < 2; i++ {
		src, err := doc.Parse(`<x class="b c"/>`)
		if err != nil {
			t.Fatal(err)
		}
		if err := Merge(dst, src, nil); err != nil {
			t.Fatalf("Merge() error = %v", err)
		}
	}
	if v, _ := dst.Attr("class"); v != "a b c" {
		t.Errorf("class = %q, want %q", v, "a b c")
	}
}

func TestMergeUndefinedOperator(t *testing.T) {
	_, dst, src := parsePair(t, `<a/>`, `<x id="1"/>`)
	err := Merge(dst, src, &MergeOptions{Attributes: map[string]string{"id": "append"}})
	if !IsMergeError(err) {
		t.Fatalf("Merge() error = %v, want MergeError", err)
	}
	assertErrorContains(t, err, "undefined operator 'append'")
}

func TestMergeLeavesSourceAttributes(t *testing.T) {
	_, dst, src := parsePair(t, `<a/>`, `<x id="1">text</x>`)
	if err := Merge(dst, src, nil); err != nil {
		t.Fatal(err)
	}
	got, _ := src.Render(dom.FormatXML)
	if got != `<x id="1"/>` {
		t.Errorf("src after Merge() = %q, want attributes kept and children moved", got)
	}
}

func TestMergeContentTagDefault(t *testing.T) {
	original := GetGlobalConfig()
	defer SetGlobalConfig(original)
	global := DefaultConfig()
	global.ContentTag = "slot"
	SetGlobalConfig(global)

	_, dst, src := parsePair(t, `<wrap><slot/><content/></wrap>`, `<x>hi</x>`)
	if err := Merge(dst, src, nil); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	got, err := dst.Render(dom.FormatXML)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := `<wrap><slot/>hi</wrap>`; got != want {
		t.Errorf("Merge() = %q, want %q", got, want)
	}
}

func TestEngineContentTag(t *testing.T) {
	config := DefaultConfig()
	config.ContentTag = "slot"
	e := testEngine()
	e.config = config

	got := mustParse(t, e, `<card>hi</card>`, func(s *Session) error {
		s.DirectiveTemplate("card", `<div><slot/><content/></div>`)
		return nil
	})
	if want := `<div>hi<content/></div>`; got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}
