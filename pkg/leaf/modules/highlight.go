package modules

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/benjaminschreck/go-leaf/pkg/leaf"
	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

// DefaultStyle is the chroma style used for highlight-styles when no style
// is given
const DefaultStyle = "github"

const languagePrefix = "language-"

// chromaClass marks a <pre> whose code has already been highlighted
const chromaClass = "chroma"

// Highlight writes source as chroma HTML using CSS classes. An unknown or
// empty language falls back to plain text. With wrap false only the
// highlighted spans are written, without the surrounding <pre>.
func Highlight(w io.Writer, source, lang string, wrap bool) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", lang, err)
	}

	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.PreventSurroundingPre(!wrap),
	)
	return formatter.Format(w, styles.Fallback, iterator)
}

// StyleSheet returns the CSS for a chroma style. Unknown names use the
// fallback style.
func StyleSheet(name string) (string, error) {
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}
	var sb strings.Builder
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&sb, style); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// NewHighlight returns the highlight module. It registers:
//
//	<code-block lang="go">...</code-block>  replaced by a highlighted <pre>
//	<pre><code class="language-go">         highlighted in place
//	<highlight-styles style="monokai"/>     replaced by a <style> sheet
func NewHighlight() *leaf.Module {
	return leaf.NewModule(func(s *leaf.Session, _ ...leaf.ModuleFunc) error {
		s.Directive(leaf.Directive{
			Name: "codeBlock",
			Prepare: func(ctx leaf.Context, el *dom.Selection) error {
				ctx["code"] = strings.Trim(el.Text(), "\n")
				el.Empty()
				el.RemoveAttr("lang")
				return nil
			},
			Template: leaf.RenderFunc(func(ctx leaf.Context) (string, error) {
				var sb strings.Builder
				if err := Highlight(&sb, ctx.String("code"), ctx.String("lang"), true); err != nil {
					return "", err
				}
				return sb.String(), nil
			}),
		})

		s.Directive(leaf.Directive{
			Name:    "fencedCode",
			Matches: isFencedCode,
			Logic: func(el *dom.Selection, _ leaf.Context) error {
				return highlightFence(s, el)
			},
		})

		s.Directive(leaf.Directive{
			Name:    "highlightStyles",
			Context: leaf.Context{"style": DefaultStyle},
			Prepare: func(_ leaf.Context, el *dom.Selection) error {
				el.RemoveAttr("style")
				return nil
			},
			Template: leaf.RenderFunc(func(ctx leaf.Context) (string, error) {
				css, err := StyleSheet(ctx.String("style"))
				if err != nil {
					return "", err
				}
				return "<style>" + escapeText(css) + "</style>", nil
			}),
		})
		return nil
	})
}

// isFencedCode matches <pre><code class="language-x"> blocks that are not
// highlighted yet
func isFencedCode(el *dom.Selection) bool {
	if el.TagName() != "pre" || hasClass(el, chromaClass) {
		return false
	}
	code := el.Children()
	if code.Len() != 1 || code.TagName() != "code" {
		return false
	}
	return fenceLanguage(code) != ""
}

func fenceLanguage(code *dom.Selection) string {
	for _, class := range strings.Fields(code.AttrOr("class", "")) {
		if strings.HasPrefix(class, languagePrefix) {
			return strings.TrimPrefix(class, languagePrefix)
		}
	}
	return ""
}

func hasClass(el *dom.Selection, class string) bool {
	for _, c := range strings.Fields(el.AttrOr("class", "")) {
		if c == class {
			return true
		}
	}
	return false
}

func highlightFence(s *leaf.Session, pre *dom.Selection) error {
	code := pre.Children().First()
	lang := fenceLanguage(code)

	var sb strings.Builder
	sb.WriteString("<code>")
	if err := Highlight(&sb, code.Text(), lang, false); err != nil {
		return err
	}
	sb.WriteString("</code>")

	highlighted, err := s.ParseFragment(sb.String())
	if err != nil {
		return fmt.Errorf("highlighted %s code could not be parsed: %w", lang, err)
	}
	code.Empty().Append(highlighted.Contents())

	classes := strings.TrimSpace(pre.AttrOr("class", "") + " " + chromaClass)
	pre.SetAttr("class", classes)
	s.Logger().WithField("lang", lang).Debug("Highlighted fenced code")
	return nil
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
