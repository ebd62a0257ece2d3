package modules

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benjaminschreck/go-leaf/pkg/leaf"
)

func newEngine(t *testing.T) *leaf.Engine {
	t.Helper()
	registry := leaf.NewRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	engine := leaf.NewWithConfig(leaf.DefaultConfig())
	leaf.WithRegistry(registry)(engine)
	leaf.WithLogger(leaf.NewLogger(io.Discard, leaf.LogOff))(engine)
	return engine
}

func parse(t *testing.T, input string, opts *leaf.Options) string {
	t.Helper()
	out, err := newEngine(t).Parse(input, nil, opts)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	return out
}

func TestRegister(t *testing.T) {
	registry := leaf.NewRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	names := registry.List()
	want := []string{AssetsModule, HighlightModule, MarkdownModule}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", names, want)
	}
	if m, _ := registry.Get(MarkdownModule); len(m.Requires) != 1 || m.Requires[0] != HighlightModule {
		t.Errorf("markdown requires = %v, want [highlight]", m.Requires)
	}
}

func TestCodeBlock(t *testing.T) {
	got := parse(t, `<div leaf-modules="highlight"><code-block lang="go">func main() {}</code-block></div>`, nil)

	for _, want := range []string{`class="chroma"`, `<span class="kd">func</span>`, `>main<`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"code-block", "lang="} {
		if strings.Contains(got, unwanted) {
			t.Errorf("output contains %q:\n%s", unwanted, got)
		}
	}
}

func TestFencedCode(t *testing.T) {
	got := parse(t, `<pre leaf-modules="highlight"><code class="language-go">x := 1</code></pre>`, nil)
	if !strings.HasPrefix(got, `<pre class="chroma"><code class="language-go"><span`) {
		t.Errorf("fenced code not highlighted in place:\n%s", got)
	}

	plain := `<pre><code>x := 1</code></pre>`
	if got := parse(t, `<!-- modules: highlight -->`+plain, nil); got != plain {
		t.Errorf("code without a language changed: %q", got)
	}
}

func TestHighlightStyles(t *testing.T) {
	got := parse(t, `<head leaf-modules="highlight"><highlight-styles style="monokai"/></head>`, nil)
	if !strings.HasPrefix(got, "<head><style>") || !strings.Contains(got, ".chroma") {
		t.Errorf("style sheet missing:\n%s", got)
	}
	if strings.Contains(got, "monokai") {
		t.Errorf("style attribute leaked into output:\n%s", got)
	}
}

func TestMarkdown(t *testing.T) {
	input := "<article leaf-modules=\"markdown\"><markdown class=\"post\">\n" +
		"    # Title\n\n" +
		"    Some *text*.\n" +
		"</markdown></article>"
	want := "<article><div class=\"markdown post\"><h1>Title</h1>\n<p>Some <em>text</em>.</p>\n</div></article>"

	if got := parse(t, input, nil); got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestMarkdownHighlightsFences(t *testing.T) {
	input := "<markdown leaf-modules=\"markdown\">\n```go\nx := 1\n```\n</markdown>"
	got := parse(t, input, nil)
	if !strings.Contains(got, `<pre class="chroma"><code class="language-go">`) {
		t.Errorf("fenced code in markdown not highlighted:\n%s", got)
	}
}

func TestMarkdownFromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "intro.md"), []byte("Hello **world**\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	page := filepath.Join(dir, "page.html")
	if err := os.WriteFile(page, []byte(`<markdown leaf-modules="markdown" src="intro.md"/>`), 0o644); err != nil {
		t.Fatal(err)
	}

	got := parse(t, page, &leaf.Options{SkipModulesConfig: true})
	if want := "<div class=\"markdown\"><p>Hello <strong>world</strong></p>\n</div>"; got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestDedent(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"no indent", "a\nb", "a\nb"},
		{"shared indent", "\n  a\n    b\n", "a\n  b"},
		{"blank lines ignored", "  a\n\n  b", "a\n\nb"},
		{"tabs", "\t- a\n\t- b", "- a\n- b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dedent(tt.in); got != tt.want {
				t.Errorf("dedent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("body{}")
	if len(a) != FingerprintLength {
		t.Errorf("len(Fingerprint()) = %d, want %d", len(a), FingerprintLength)
	}
	if a != Fingerprint("body{}") {
		t.Error("Fingerprint() is not deterministic")
	}
	if a == Fingerprint("body{color:red}") {
		t.Error("different content has the same fingerprint")
	}
}

func TestAssets(t *testing.T) {
	dir := t.TempDir()
	css := "body{}"
	if err := os.MkdirAll(filepath.Join(dir, "css"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte(css), 0o644); err != nil {
		t.Fatal(err)
	}
	v := Fingerprint(css)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "local href",
			input: `<link fingerprint="" href="css/site.css"/>`,
			want:  `<link href="css/site.css?v=` + v + `"/>`,
		},
		{
			name:  "query and fragment kept",
			input: `<a fingerprint="" href="css/site.css?x=1#top"/>`,
			want:  `<a href="css/site.css?x=1&amp;v=` + v + `#top"/>`,
		},
		{
			name:  "remote refs untouched",
			input: `<img fingerprint="" src="https://example.com/a.png"/>`,
			want:  `<img src="https://example.com/a.png"/>`,
		},
		{
			name:  "unmarked elements untouched",
			input: `<link href="css/site.css"/>`,
			want:  `<link href="css/site.css"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parse(t, `<head leaf-modules="assets">`+tt.input+`</head>`, &leaf.Options{
				Source:            filepath.Join(dir, "index.html"),
				SkipModulesConfig: true,
			})
			if want := "<head>" + tt.want + "</head>"; got != want {
				t.Errorf("Parse() = %q, want %q", got, want)
			}
		})
	}
}

func TestAssetsMissingFile(t *testing.T) {
	_, err := newEngine(t).Parse(`<script leaf-modules="assets" fingerprint="" src="missing.js"/>`, nil, &leaf.Options{
		Source:            filepath.Join(t.TempDir(), "index.html"),
		SkipModulesConfig: true,
	})
	if err == nil || !strings.Contains(err.Error(), "fingerprint missing.js") {
		t.Errorf("Parse() error = %v, want fingerprint failure", err)
	}
	if !leaf.IsDirectiveError(err) {
		t.Errorf("Parse() error is not a DirectiveError: %v", err)
	}
}
