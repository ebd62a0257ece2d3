package leaf

import (
	"errors"
	"strings"

	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

// DebugAttribute lists the directives applied to an element when debugging
const DebugAttribute = "leaf-directive"

// Transform runs the directive pass over el and its descendants. It returns
// the element now standing where el was, or nil when el was removed.
func (s *Session) Transform(el *dom.Selection) (*dom.Selection, error) {
	return s.transform(el, nil, nil, 0)
}

func (s *Session) matchingDirectives(el *dom.Selection, ignore []*Directive) []*Directive {
	var matched []*Directive
	for _, d := range s.directives {
		if containsDirective(ignore, d) {
			continue
		}
		if d.MatchesElement(el) {
			matched = append(matched, d)
		}
	}
	return matched
}

func containsDirective(list []*Directive, d *Directive) bool {
	for _, other := range list {
		if other == d {
			return true
		}
	}
	return false
}

func directiveNames(list []*Directive) []string {
	names := make([]string, len(list))
	for i, d := range list {
		names[i] = d.Name
	}
	return names
}

func (s *Session) debugEnabled() bool {
	if s.config.Debug {
		return true
	}
	debug, _ := s.Globals["debug"].(bool)
	return debug
}

// transform applies every directive matching el that is not in ignore. After
// each application the result is transformed again with the matched set
// ignored, so other directives can pick up the new element while none of the
// matched ones fires twice on it. When nothing matches, the children are
// transformed instead.
func (s *Session) transform(el *dom.Selection, parentCtx Context, ignore []*Directive, depth int) (*dom.Selection, error) {
	matched := s.matchingDirectives(el, ignore)

	if len(matched) == 0 {
		for _, child := range el.Children().Nodes() {
			if _, err := s.transform(s.doc.Select(child), nil, nil, depth); err != nil {
				return nil, err
			}
		}
		return el, nil
	}

	if depth >= s.config.MaxExpansionDepth {
		return nil, &ExpansionDepthError{
			Tag:   el.TagName(),
			Max:   s.config.MaxExpansionDepth,
			Chain: directiveNames(matched),
		}
	}

	element := el
	origParent := element.Node().Parent
	replaced := false

	for _, d := range matched {
		ctx := overlay(d.defaultContext(s.Globals), ExtractAttributes(element), parentCtx)
		ctx[GlobalsKey] = s.Globals

		s.logger.DebugDirective(d.Name, ctx)

		if d.Prepare != nil {
			if err := s.callHook(d, func() error { return d.Prepare(ctx, element) }); err != nil {
				return nil, err
			}
		}

		newElement, err := d.parseTemplate(ctx, s)
		if err != nil {
			return nil, err
		}

		if newElement != nil {
			if replaced {
				return nil, &DirectiveError{
					Directives: directiveNames(matched),
					Message:    "more than one directive is trying to template the element",
				}
			}
			replaced = true

			if err := Merge(newElement, element, s.mergeOptions(d)); err != nil {
				return nil, NewDirectiveError(d.Name, "could not merge element", err)
			}
			if element.HasParent() {
				element.ReplaceWith(newElement)
			}
		} else {
			newElement = element
		}

		if d.Logic != nil {
			err := s.callHook(d, func() error { return d.Logic(newElement, ctx) })
			if errors.Is(err, ErrRemove) {
				newElement.Remove()
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
		}

		// The logic moved or removed the element itself
		if newElement.Node().Parent != origParent {
			if newElement.HasParent() {
				return newElement, nil
			}
			return nil, nil
		}

		if s.debugEnabled() {
			trace := d.Name
			if prev, ok := newElement.Attr(DebugAttribute); ok && prev != "" {
				trace = prev + " " + trace
			}
			newElement.SetAttr(DebugAttribute, trace)
		}

		element, err = s.transform(newElement, ctx, matched, depth+1)
		if err != nil {
			return nil, err
		}
		if element == nil {
			return nil, nil
		}
	}

	return element, nil
}

func (s *Session) mergeOptions(d *Directive) *MergeOptions {
	opts := MergeOptions{ContentTag: s.config.ContentTag}
	if d.MergeOptions != nil {
		opts.Attributes = d.MergeOptions.Attributes
		if d.MergeOptions.ContentTag != "" {
			opts.ContentTag = d.MergeOptions.ContentTag
		}
	}
	return &opts
}

// callHook runs a user hook, turning panics into directive errors. ErrRemove
// and directive errors pass through unchanged.
func (s *Session) callHook(d *Directive, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewDirectiveError(d.Name, "hook panicked", RecoverError(r))
		}
	}()

	err = fn()
	if err == nil || errors.Is(err, ErrRemove) {
		return err
	}
	var derr *DirectiveError
	if errors.As(err, &derr) {
		return err
	}
	return NewDirectiveError(d.Name, "hook failed", err)
}

// describeNodes lists node descriptions for error messages
func describeNodes(sel *dom.Selection) string {
	parts := make([]string, 0, sel.Len())
	sel.Each(func(_ int, n *dom.Selection) {
		parts = append(parts, n.Describe())
	})
	return strings.Join(parts, ", ")
}
