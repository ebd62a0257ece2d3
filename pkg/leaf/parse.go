package leaf

import (
	"fmt"
	"strings"

	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

// InputType tells Parse how to read its input string
type InputType int

const (
	// InputAuto treats strings starting with "<" (or empty) as markup and
	// anything else as a file path
	InputAuto InputType = iota
	// InputMarkup treats the input as markup
	InputMarkup
	// InputFile treats the input as a file path
	InputFile
)

// ModulesAttribute on the root element lists space-separated modules to load
const ModulesAttribute = "leaf-modules"

const modulesCommentPrefix = "modules:"

// Options configures a single parse
type Options struct {
	// InputType selects how the input string is interpreted
	InputType InputType
	// Source overrides the provenance of the root element. It is also where
	// the module config search starts.
	Source string
	// Modules are session-local modules, shadowing config file and registry
	// modules of the same name
	Modules map[string]*Module
	// SkipModulesConfig disables the leaf-modules config file search
	SkipModulesConfig bool
	// Transform is called with the session after inline modules are loaded.
	// A transform passed to Parse directly takes precedence.
	Transform func(s *Session) error
	// Cache is shared across parses when set; otherwise every parse gets
	// the engine cache or a fresh one.
	Cache *Cache
	// Mode selects the markup parser
	Mode dom.Mode
	// DecodeEntities lets the XML parser decode HTML named entities
	DecodeEntities bool
	// OutputFormat is xml or html; empty uses the engine configuration
	OutputFormat string
}

// Parse transforms input and returns the serialized result. input is markup
// or a file path, see InputType. transform may be nil.
func (e *Engine) Parse(input string, transform func(s *Session) error, opts *Options) (string, error) {
	if opts == nil {
		opts = &Options{}
	}
	cache := e.cacheFor(opts)

	inputType := opts.InputType
	if inputType == InputAuto {
		trimmed := strings.TrimSpace(input)
		if trimmed == "" || strings.HasPrefix(trimmed, "<") {
			inputType = InputMarkup
		} else {
			inputType = InputFile
		}
	}

	markup := input
	source := opts.Source
	switch inputType {
	case InputMarkup:
	case InputFile:
		v, err := cache.NS("files").Memo(input, func() (interface{}, error) {
			return e.loader.Load(input)
		})
		if err != nil {
			return "", NewInputError("file could not be loaded", input, err)
		}
		markup = v.(string)
		if source == "" {
			source = input
		}
	default:
		return "", NewInputError(fmt.Sprintf("invalid input type %d", inputType), "", nil)
	}

	doc := dom.NewDocument(dom.Options{Mode: opts.Mode, DecodeEntities: opts.DecodeEntities})
	nodes, err := doc.Parse(markup)
	if err != nil {
		return "", NewInputError("markup could not be parsed", source, err)
	}

	inline := consumeModulesComment(nodes)
	root, err := singleRoot(nodes, source)
	if err != nil {
		return "", err
	}
	root = doc.Isolate(root)

	return e.run(root, source, inline, transform, opts, cache)
}

// ParseString transforms markup
func (e *Engine) ParseString(markup string, opts *Options) (string, error) {
	o := optionsCopy(opts)
	o.InputType = InputMarkup
	return e.Parse(markup, nil, o)
}

// ParseFile transforms the file at path
func (e *Engine) ParseFile(path string, opts *Options) (string, error) {
	o := optionsCopy(opts)
	o.InputType = InputFile
	return e.Parse(path, nil, o)
}

// ParseElement transforms an element built elsewhere, for example by a
// directive or a test. The element is transformed in place; the serialized
// result is returned.
func (e *Engine) ParseElement(el *dom.Selection, transform func(s *Session) error, opts *Options) (string, error) {
	if opts == nil {
		opts = &Options{}
	}
	if !el.IsElement() {
		return "", NewInputError("root node must be an element (has "+el.Describe()+")", "", nil)
	}
	source := opts.Source
	if source == "" {
		source = el.Source()
	}
	return e.run(el.First(), source, nil, transform, opts, e.cacheFor(opts))
}

func optionsCopy(opts *Options) *Options {
	if opts == nil {
		return &Options{}
	}
	o := *opts
	return &o
}

func (e *Engine) cacheFor(opts *Options) *Cache {
	if opts.Cache != nil {
		return opts.Cache
	}
	if e.cache != nil {
		return e.cache
	}
	return NewCache()
}

// consumeModulesComment removes a leading "modules: a, b" comment and returns
// the names it lists
func consumeModulesComment(nodes *dom.Selection) []string {
	first := nodes.Filter(func(_ int, n *dom.Selection) bool {
		return n.NodeType() != dom.TextNode || strings.TrimSpace(n.Text()) != ""
	}).First()
	if first.NodeType() != dom.CommentNode {
		return nil
	}
	text := strings.TrimSpace(first.CommentValue())
	if !strings.HasPrefix(text, modulesCommentPrefix) {
		return nil
	}
	first.Remove()

	var names []string
	for _, name := range strings.Split(strings.TrimPrefix(text, modulesCommentPrefix), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func singleRoot(nodes *dom.Selection, source string) (*dom.Selection, error) {
	significant := nodes.Filter(func(_ int, n *dom.Selection) bool {
		return n.HasParent()
	}).FilterEmptyTextAndComments().Filter(func(_ int, n *dom.Selection) bool {
		// doctypes and processing instructions are not content
		t := n.NodeType()
		return t != dom.DoctypeNode && t != dom.RawNode
	})

	switch {
	case significant.Len() == 0:
		return nil, NewInputError("input has no root element", source, nil)
	case significant.Len() > 1:
		return nil, NewInputError(fmt.Sprintf("input must have a single root node (has %d: %s)",
			significant.Len(), describeNodes(significant)), source, nil)
	case !significant.IsElement():
		return nil, NewInputError("root node must be an element (has "+significant.Describe()+")", source, nil)
	}
	return significant, nil
}

func (e *Engine) run(root *dom.Selection, source string, inline []string, transform func(*Session) error, opts *Options, cache *Cache) (string, error) {
	if source != "" {
		root.SetSource(source)
	}

	if attr, ok := root.Attr(ModulesAttribute); ok {
		root.RemoveAttr(ModulesAttribute)
		inline = append(inline, strings.Fields(attr)...)
	}

	modules := make(map[string]*Module)
	if !opts.SkipModulesConfig && source != "" {
		found, err := findModulesConfig(BaseDir(source), e.loader, cache)
		if err != nil {
			return "", err
		}
		for name, m := range found {
			modules[name] = m
		}
	}
	for name, m := range opts.Modules {
		modules[name] = m
	}

	s := newSession(e, root.Document(), cache, modules)

	for _, name := range inline {
		if err := s.LoadModule(name); err != nil {
			return "", err
		}
	}

	if transform == nil {
		transform = opts.Transform
	}
	if transform != nil {
		if err := safeCall(func() error { return transform(s) }); err != nil {
			return "", WithContext(err, "session transform", nil)
		}
	}

	var err error
	if root, err = runElementTransforms(root, s.Transforms.Pre); err != nil {
		return "", WithContext(err, "pre transform", nil)
	}

	result, err := s.Transform(root)
	if err != nil {
		return "", err
	}
	if result == nil {
		result = root.Document().Select()
	}

	if result, err = runElementTransforms(result, s.Transforms.Post); err != nil {
		return "", WithContext(err, "post transform", nil)
	}

	formatName := opts.OutputFormat
	if formatName == "" {
		formatName = e.config.OutputFormat
	}
	format, err := dom.ParseFormat(formatName)
	if err != nil {
		return "", err
	}
	out, err := result.Render(format)
	if err != nil {
		return "", WithContext(err, "render", map[string]interface{}{"format": format})
	}

	for _, fn := range s.Transforms.String {
		if err := safeCall(func() error {
			var err error
			out, err = fn(out)
			return err
		}); err != nil {
			return "", WithContext(err, "string transform", nil)
		}
	}

	e.logger.WithFields(Fields{"source": source, "directives": len(s.directives)}).Debug("Parse complete")
	return out, nil
}

func runElementTransforms(el *dom.Selection, fns []ElementTransform) (*dom.Selection, error) {
	for _, fn := range fns {
		var next *dom.Selection
		if err := safeCall(func() error {
			var err error
			next, err = fn(el)
			return err
		}); err != nil {
			return nil, err
		}
		if next != nil {
			el = next
		}
	}
	return el, nil
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverError(r)
		}
	}()
	return fn()
}
