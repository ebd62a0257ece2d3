// Package leaf is a directive-based markup transformation engine.
//
// Leaf parses an XML or HTML document, expands custom elements with registered
// directives and serializes the result. A directive pairs a tag name with an
// optional template and optional hooks; the element it matches is replaced by
// the rendered template, with the original's attributes and children merged in.
//
// # Quick Start
//
//	out, err := leaf.Parse(`<page><hello-card name="World"/></page>`, func(s *leaf.Session) error {
//	    s.DirectiveTemplate("helloCard", `<div class="card">Hello {{.name}}<content/></div>`)
//	    return nil
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// <page><div class="card" name="World">Hello World</div></page>
//
// # Directives
//
// Directives match in registration order. For each element, every matching
// directive runs in turn:
//
//	ctx := defaults + element attributes + parent context + $globals
//	Prepare(ctx, el)
//	Template(ctx)  -> new element, original merged into it
//	Logic(el, ctx) -> ErrRemove removes the element
//
// After each directive the resulting element is transformed again with the
// matched directives ignored, so a template may produce another directive's
// tag. At most one directive per element may supply a template.
//
// Attributes become context values: data- and x- prefixes are dropped, names
// are camel-cased, numbers become float64 and quoted values are unwrapped, so
// data-max-items="5" is {"maxItems": 5.0}.
//
// # Templates
//
// A template is Inline markup, a File path, or a RenderFunc. String templates
// are compiled once per directive with the engine's TemplateCompiler:
// text/template by default, Handlebars with LEAF_TEMPLATE_COMPILER=handlebars.
//
// # Merging
//
// Attributes of the matched element overwrite the template's, except class,
// whose tokens are combined. MergeOptions.Attributes changes the operator per
// attribute (src, dst, combine). Children of the matched element replace the
// template's <content/> placeholder, or are appended when it has none.
//
// # Modules
//
// Modules bundle directives. They are registered in a ModuleRegistry, passed
// in Options.Modules, or declared in a leaf-modules.yaml (or .yml, .jsonc,
// .json) file found next to the input or in a parent directory:
//
//	modules:
//	  cards:
//	    directives:
//	      - name: card
//	        template: templates/card.html
//
// A document loads modules with a leading comment or a root attribute:
//
//	<!-- modules: cards, markdown -->
//	<page leaf-modules="cards markdown">...</page>
//
// # Configuration
//
// The engine reads LEAF_LOG_LEVEL, LEAF_DEBUG, LEAF_MAX_EXPANSION_DEPTH,
// LEAF_MAX_MODULE_DEPTH, LEAF_TEMPLATE_COMPILER, LEAF_OUTPUT_FORMAT and
// LEAF_CONTENT_TAG from the environment. See Config.
//
// # Architecture
//
//   - dom: the markup tree, XML and HTML parsers and serializers
//   - modules: built-in markdown, highlight and assets modules
package leaf
