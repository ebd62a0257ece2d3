package leaf

import (
	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

// ElementTransform rewrites the root element before or after directives
// run. Returning nil keeps the current root.
type ElementTransform func(root *dom.Selection) (*dom.Selection, error)

// StringTransform rewrites the serialized output
type StringTransform func(output string) (string, error)

// Transforms are the hook chains run around the directive pass, in order
type Transforms struct {
	Pre    []ElementTransform
	Post   []ElementTransform
	String []StringTransform
}

// Session is the state of one parse call: registered directives, loaded
// modules, globals and transform hooks. A Session is not safe for
// concurrent use.
type Session struct {
	// Globals are visible to directives and templates under GlobalsKey
	Globals Context
	// Transforms run around the directive pass
	Transforms Transforms

	engine     *Engine
	config     *Config
	doc        *dom.Document
	cache      *Cache
	loader     Loader
	compiler   TemplateCompiler
	logger     *Logger
	registry   ModuleRegistry
	directives []*Directive
	modules    map[string]*Module
	loaded     map[string]ModuleFunc
}

func newSession(e *Engine, doc *dom.Document, cache *Cache, modules map[string]*Module) *Session {
	s := &Session{
		Globals:  make(Context),
		engine:   e,
		config:   e.config,
		doc:      doc,
		cache:    cache,
		loader:   e.loader,
		compiler: e.compiler,
		logger:   e.logger,
		registry: e.registry,
		modules:  make(map[string]*Module, len(modules)),
		loaded:   make(map[string]ModuleFunc),
	}
	for name, m := range modules {
		s.modules[name] = m
	}
	if s.config.Debug {
		s.Globals["debug"] = true
	}
	return s
}

// Directive registers a directive. Directives match in registration order.
func (s *Session) Directive(d Directive) *Directive {
	nd := d
	nd.uid = directiveUID.Add(1)
	s.directives = append(s.directives, &nd)
	return &nd
}

// DirectiveTemplate registers a directive that only renders a template. The
// template string is markup when it starts with "<", otherwise a file path.
func (s *Session) DirectiveTemplate(name, template string) *Directive {
	return s.Directive(Directive{Name: name, Template: TemplateString(template)})
}

// DirectiveLogic registers a directive that only runs logic on the element
func (s *Session) DirectiveLogic(name string, logic func(el *dom.Selection, ctx Context) error) *Directive {
	return s.Directive(Directive{Name: name, Logic: logic})
}

// DirectiveRemove registers a directive that removes every matching element
func (s *Session) DirectiveRemove(name string) *Directive {
	return s.DirectiveLogic(name, func(*dom.Selection, Context) error {
		return ErrRemove
	})
}

// Directives returns the registered directives in match order
func (s *Session) Directives() []*Directive {
	out := make([]*Directive, len(s.directives))
	copy(out, s.directives)
	return out
}

// PreTransform appends a transform run before the directive pass
func (s *Session) PreTransform(fn ElementTransform) {
	s.Transforms.Pre = append(s.Transforms.Pre, fn)
}

// PostTransform appends a transform run after the directive pass
func (s *Session) PostTransform(fn ElementTransform) {
	s.Transforms.Post = append(s.Transforms.Post, fn)
}

// StringTransform appends a transform run on the serialized output
func (s *Session) StringTransform(fn StringTransform) {
	s.Transforms.String = append(s.Transforms.String, fn)
}

// LoadFile returns a file's contents through the engine loader, reading
// each path at most once per cache.
func (s *Session) LoadFile(path string) (string, error) {
	v, err := s.cache.NS("files").Memo(path, func() (interface{}, error) {
		s.logger.WithField("path", path).Debug("Loading file")
		return s.loader.Load(path)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Engine returns the engine that created the session
func (s *Session) Engine() *Engine {
	return s.engine
}

// Document returns the document all of the session's elements belong to
func (s *Session) Document() *dom.Document {
	return s.doc
}

// Cache returns the session's cache
func (s *Session) Cache() *Cache {
	return s.cache
}

// Loader returns the file loader
func (s *Session) Loader() Loader {
	return s.loader
}

// Logger returns the session logger
func (s *Session) Logger() *Logger {
	return s.logger
}

// Config returns the engine configuration the session runs with
func (s *Session) Config() *Config {
	return s.config
}

// ParseFragment parses markup into nodes belonging to the session document
func (s *Session) ParseFragment(markup string) (*dom.Selection, error) {
	return s.doc.Parse(markup)
}
