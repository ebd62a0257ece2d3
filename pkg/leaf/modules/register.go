// Package modules provides the built-in leaf modules: syntax highlighting
// with chroma, markdown rendering with goldmark and asset fingerprinting
// with blake3.
//
// Register them once, then load them per document with a leaf-modules
// attribute or a leading modules comment:
//
//	modules.Register(leaf.DefaultRegistry())
//	out, err := leaf.ParseString(`<article leaf-modules="markdown">...</article>`, nil)
package modules

import (
	"github.com/benjaminschreck/go-leaf/pkg/leaf"
)

// Built-in module names
const (
	HighlightModule = "highlight"
	MarkdownModule  = "markdown"
	AssetsModule    = "assets"
)

// All returns the built-in modules by name
func All() map[string]*leaf.Module {
	return map[string]*leaf.Module{
		HighlightModule: NewHighlight(),
		MarkdownModule:  NewMarkdown(),
		AssetsModule:    NewAssets(),
	}
}

// Register adds the built-in modules to registry
func Register(registry leaf.ModuleRegistry) error {
	for name, m := range All() {
		if err := registry.Register(name, m); err != nil {
			return err
		}
	}
	return nil
}
