package modules

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/benjaminschreck/go-leaf/pkg/leaf"
	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

// MarkdownClass is set on the element wrapping rendered markdown
const MarkdownClass = "markdown"

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

// markdownConverter is shared; goldmark keeps per-call state in Convert.
// XHTML output keeps void elements parseable in XML mode.
func markdownConverter() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithXHTML()),
		)
	})
	return markdownInstance
}

// RenderMarkdown converts markdown source to HTML
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdownConverter().Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NewMarkdown returns the markdown module. <markdown> elements are rendered
// into <div class="markdown">, either from their text or from the file named
// by their src attribute. Fenced code is left for the highlight module,
// which this module requires.
func NewMarkdown() *leaf.Module {
	return leaf.NewModule(func(s *leaf.Session, _ ...leaf.ModuleFunc) error {
		s.Directive(leaf.Directive{
			Name: "markdown",
			Prepare: func(ctx leaf.Context, el *dom.Selection) error {
				if src, ok := el.Attr("src"); ok {
					path := src
					if !filepath.IsAbs(path) {
						path = filepath.Join(leaf.BaseDir(el.Source()), path)
					}
					content, err := s.LoadFile(path)
					if err != nil {
						return err
					}
					ctx["source"] = content
					el.RemoveAttr("src")
				} else {
					ctx["source"] = dedent(el.Text())
				}
				el.Empty()
				return nil
			},
			Template: leaf.RenderFunc(func(ctx leaf.Context) (string, error) {
				out, err := RenderMarkdown(ctx.String("source"))
				if err != nil {
					return "", err
				}
				return `<div class="` + MarkdownClass + `">` + out + "</div>", nil
			}),
		})
		return nil
	}, HighlightModule)
}

// dedent strips the indentation shared by all non-blank lines, so markdown
// nested in indented markup keeps its structure
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")

	prefix := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if prefix < 0 || indent < prefix {
			prefix = indent
		}
	}
	if prefix <= 0 {
		return strings.Join(lines, "\n")
	}

	for i, line := range lines {
		if len(line) >= prefix {
			lines[i] = line[prefix:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
