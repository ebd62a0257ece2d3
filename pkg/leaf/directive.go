package leaf

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

var directiveUID atomic.Uint64

// Directive expands elements matching its name. Every field is optional
// except Name.
type Directive struct {
	// Name is matched in dash case against tag names: subElement matches
	// <sub-element> and <sub_element>.
	Name string
	// Template renders the element replacing the matched one. Nil keeps the
	// matched element in place.
	Template TemplateSource
	// Context holds default context values, overridden by element attributes
	Context Context
	// ContextFunc computes the default context from the session globals and
	// takes precedence over Context.
	ContextFunc func(globals Context) Context
	// Source is the base path used for relative template paths and attached
	// as provenance to the rendered element.
	Source string
	// MergeOptions controls how the matched element is merged into the
	// rendered one.
	MergeOptions *MergeOptions
	// Prepare runs before the template is rendered and may change ctx
	Prepare func(ctx Context, el *dom.Selection) error
	// Logic runs on the resulting element. Returning ErrRemove removes it.
	Logic func(el *dom.Selection, ctx Context) error
	// Matches replaces the default tag-name match
	Matches func(el *dom.Selection) bool

	uid uint64
	// templateDir, when set, replaces Source as the base of a File template
	templateDir string
}

// UID returns the process-unique id assigned when the directive was registered
func (d *Directive) UID() uint64 {
	return d.uid
}

// MatchesElement reports whether the directive applies to el
func (d *Directive) MatchesElement(el *dom.Selection) bool {
	if !el.IsElement() {
		return false
	}
	if d.Matches != nil {
		return d.Matches(el)
	}
	return d.matchesName(el)
}

func (d *Directive) matchesName(el *dom.Selection) bool {
	tag := strings.ToLower(el.TagName())
	return tag == ToDashCase(d.Name, "-") || tag == ToDashCase(d.Name, "_")
}

func (d *Directive) defaultContext(globals Context) Context {
	if d.ContextFunc != nil {
		return d.ContextFunc(globals)
	}
	return d.Context
}

type compiledTemplate struct {
	render RenderFunc
	source string
}

func (d *Directive) cacheKey() string {
	return "directive-template:" + d.Name + strconv.FormatUint(d.uid, 10)
}

// compile resolves the directive's template once per cache
func (d *Directive) compile(s *Session) (*compiledTemplate, error) {
	v, err := s.cache.NS("leaf-templates").Memo(d.cacheKey(), func() (interface{}, error) {
		s.logger.WithField("directive", d.Name).Debug("Compiling template")
		return d.resolve(s, d.Template)
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiledTemplate), nil
}

func (d *Directive) resolve(s *Session, src TemplateSource) (*compiledTemplate, error) {
	switch t := src.(type) {
	case RenderFunc:
		return &compiledTemplate{render: t}, nil
	case Inline:
		render, err := s.compiler.Compile(string(t))
		if err != nil {
			return nil, NewDirectiveError(d.Name, "template could not be compiled", err)
		}
		return &compiledTemplate{render: render}, nil
	case File:
		base := d.Source
		if d.templateDir != "" {
			base = d.templateDir
		}
		path := resolvePath(string(t), base)
		content, err := s.LoadFile(path)
		if err != nil {
			return nil, NewDirectiveError(d.Name, "template file could not be loaded", err)
		}
		render, err := s.compiler.Compile(content)
		if err != nil {
			return nil, NewDirectiveError(d.Name, "template "+path+" could not be compiled", err)
		}
		return &compiledTemplate{render: render, source: path}, nil
	default:
		return nil, NewDirectiveError(d.Name, fmt.Sprintf("unsupported template type %T", src), nil)
	}
}

// parseTemplate renders the template for ctx and parses it into a single
// element. A nil selection means the directive has no template.
func (d *Directive) parseTemplate(ctx Context, s *Session) (*dom.Selection, error) {
	if d.Template == nil {
		return nil, nil
	}

	tmpl, err := d.compile(s)
	if err != nil {
		return nil, err
	}

	markup, err := tmpl.render(ctx)
	if err != nil {
		return nil, NewDirectiveError(d.Name, "template could not be rendered", err)
	}

	el, err := s.doc.Parse(strings.TrimSpace(markup))
	if err != nil {
		return nil, NewDirectiveError(d.Name, "template could not be parsed", err)
	}

	switch {
	case el.Len() == 0:
		return nil, NewDirectiveError(d.Name, "template could not be parsed", nil)
	case el.Len() > 1:
		return nil, NewDirectiveError(d.Name, fmt.Sprintf("template must have just one root element (has %d)", el.Len()), nil)
	case !el.IsElement():
		return nil, NewDirectiveError(d.Name, "parsed document must be an element (has "+el.Describe()+")", nil)
	}

	source := d.Source
	if source == "" {
		source = tmpl.source
	}
	if source != "" {
		el.SetSource(source)
	}
	return el, nil
}

// BaseDir returns the directory a provenance path refers to. Paths ending in
// a separator are directories already.
func BaseDir(source string) string {
	if source == "" {
		return ""
	}
	if strings.HasSuffix(source, "/") || strings.HasSuffix(source, string(filepath.Separator)) {
		return filepath.Clean(source)
	}
	return filepath.Dir(source)
}

// resolvePath joins a relative path to the directory of base
func resolvePath(path, base string) string {
	if filepath.IsAbs(path) || base == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(BaseDir(base), path)
}
