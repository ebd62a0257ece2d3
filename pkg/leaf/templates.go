package leaf

import (
	"fmt"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/aymerick/raymond"
)

// TemplateSource is where a directive's markup comes from: Inline markup, a
// File path, or a RenderFunc.
type TemplateSource interface {
	templateSource()
}

// Inline is template markup compiled with the engine's TemplateCompiler
type Inline string

// File is a path to a template file. Relative paths are resolved against the
// directive's source directory.
type File string

// RenderFunc renders markup for a context
type RenderFunc func(ctx Context) (string, error)

func (Inline) templateSource()     {}
func (File) templateSource()       {}
func (RenderFunc) templateSource() {}

// TemplateString turns a string into a template source: strings starting
// with "<" are markup, anything else is a file path.
func TemplateString(s string) TemplateSource {
	if strings.HasPrefix(strings.TrimSpace(s), "<") {
		return Inline(s)
	}
	return File(s)
}

// TemplateCompiler compiles template markup into a RenderFunc
type TemplateCompiler interface {
	Compile(markup string) (RenderFunc, error)
}

// CompilerByName returns the compiler for a configured name (go, handlebars, none)
func CompilerByName(name string) (TemplateCompiler, error) {
	switch name {
	case "", "go":
		return &GoTemplateCompiler{}, nil
	case "handlebars":
		return HandlebarsCompiler{}, nil
	case "none":
		return NoCompiler{}, nil
	default:
		return nil, fmt.Errorf("unknown template compiler %q", name)
	}
}

// GoTemplateCompiler compiles markup with text/template. Context keys are
// available as {{.key}}; missing keys render empty. Action output is
// HTML-escaped unless the value is Markup, so {{raw .html}} inserts markup
// as is.
type GoTemplateCompiler struct {
	// Funcs are added to the built-in dash, camel, default and raw helpers
	Funcs template.FuncMap
}

// Markup is a trusted string written into template output without escaping
type Markup string

// escapeFunc is appended to every printing action of a compiled template
const escapeFunc = "_leaf_escape"

func (c *GoTemplateCompiler) Compile(markup string) (RenderFunc, error) {
	funcs := template.FuncMap{
		"dash":  func(s string) string { return ToDashCase(s, "-") },
		"camel": ToCamelCase,
		"default": func(def, v interface{}) interface{} {
			if v == nil || v == "" {
				return def
			}
			return v
		},
		"raw": func(v interface{}) Markup {
			if v == nil {
				return ""
			}
			return Markup(fmt.Sprint(v))
		},
	}
	for name, fn := range c.Funcs {
		funcs[name] = fn
	}
	funcs[escapeFunc] = escapeValue

	tmpl, err := template.New("leaf").Option("missingkey=zero").Funcs(funcs).Parse(markup)
	if err != nil {
		return nil, err
	}
	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			escapeActions(t.Tree.Root)
		}
	}

	return func(ctx Context) (string, error) {
		var sb strings.Builder
		if err := tmpl.Execute(&sb, map[string]interface{}(ctx)); err != nil {
			return "", err
		}
		return sb.String(), nil
	}, nil
}

// escapeValue renders an action's value as escaped text. Nil, which is what
// missing keys evaluate to, renders empty.
func escapeValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case Markup:
		return string(v)
	case string:
		return template.HTMLEscapeString(v)
	default:
		return template.HTMLEscapeString(fmt.Sprint(v))
	}
}

// escapeActions pipes the value of every printing action through escapeFunc
func escapeActions(list *parse.ListNode) {
	if list == nil {
		return
	}
	for _, node := range list.Nodes {
		switch n := node.(type) {
		case *parse.ActionNode:
			if len(n.Pipe.Decl) > 0 {
				continue
			}
			n.Pipe.Cmds = append(n.Pipe.Cmds, &parse.CommandNode{
				NodeType: parse.NodeCommand,
				Pos:      n.Pos,
				Args:     []parse.Node{parse.NewIdentifier(escapeFunc).SetTree(nil).SetPos(n.Pos)},
			})
		case *parse.IfNode:
			escapeActions(n.List)
			escapeActions(n.ElseList)
		case *parse.RangeNode:
			escapeActions(n.List)
			escapeActions(n.ElseList)
		case *parse.WithNode:
			escapeActions(n.List)
			escapeActions(n.ElseList)
		}
	}
}

// HandlebarsCompiler compiles markup as a Handlebars template ({{key}})
type HandlebarsCompiler struct{}

func (HandlebarsCompiler) Compile(markup string) (RenderFunc, error) {
	tpl, err := raymond.Parse(markup)
	if err != nil {
		return nil, err
	}
	return func(ctx Context) (string, error) {
		return tpl.Exec(map[string]interface{}(ctx.withoutGlobals()))
	}, nil
}

// NoCompiler rejects every string template. Directives using RenderFunc
// templates still work.
type NoCompiler struct{}

func (NoCompiler) Compile(string) (RenderFunc, error) {
	return nil, fmt.Errorf("no template compiler configured")
}
