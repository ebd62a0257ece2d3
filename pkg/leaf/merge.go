package leaf

import (
	"sort"
	"strings"

	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

// MergeOperator resolves an attribute present on the original element (src)
// against the value on the template element (dst). hasDst is false when the
// template element does not carry the attribute.
type MergeOperator func(dst string, hasDst bool, src string) string

// WildcardAttribute is the MergeOptions.Attributes key used for attributes
// without their own entry
const WildcardAttribute = "*"

var mergeOperators = map[string]MergeOperator{
	"src":     mergeSrc,
	"dst":     mergeDst,
	"combine": mergeCombine,
}

var defaultMergeAttributes = map[string]string{
	"class":           "combine",
	WildcardAttribute: "src",
}

func mergeSrc(_ string, _ bool, src string) string {
	return src
}

func mergeDst(dst string, hasDst bool, src string) string {
	if hasDst {
		return dst
	}
	return src
}

// mergeCombine unions whitespace-separated tokens: dst tokens first, then src
// tokens not already present.
func mergeCombine(dst string, _ bool, src string) string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range append(strings.Fields(dst), strings.Fields(src)...) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	return strings.Join(tokens, " ")
}

func mergeOperatorNames() []string {
	names := make([]string, 0, len(mergeOperators))
	for name := range mergeOperators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultContentTag is the merge placeholder used when none is configured
const DefaultContentTag = "content"

// MergeOptions controls how an original element is merged into the element
// produced by a directive's template
type MergeOptions struct {
	// ContentTag names the placeholder replaced by the original's children.
	// Empty means DefaultContentTag. Sessions fill it from the engine's
	// Config.ContentTag before merging.
	ContentTag string
	// Attributes maps attribute names, or "*", to operator names (src, dst,
	// combine). Entries overlay the defaults class=combine and *=src.
	Attributes map[string]string
}

func (o *MergeOptions) operators() map[string]string {
	ops := make(map[string]string, len(defaultMergeAttributes))
	for k, v := range defaultMergeAttributes {
		ops[k] = v
	}
	if o != nil {
		for k, v := range o.Attributes {
			ops[k] = v
		}
	}
	return ops
}

// Merge folds src into dst: every attribute of src not starting with data- is
// resolved against dst with its merge operator, then the children of src are
// moved into dst. When dst contains a content placeholder the children replace
// it, otherwise they are appended.
func Merge(dst, src *dom.Selection, opts *MergeOptions) error {
	ops := opts.operators()
	for attr, name := range ops {
		if _, ok := mergeOperators[name]; !ok {
			return &MergeError{Attribute: attr, Operator: name}
		}
	}

	for _, a := range src.Attrs() {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		if strings.HasPrefix(key, "data-") {
			continue
		}
		name, ok := ops[key]
		if !ok {
			name = ops[WildcardAttribute]
		}
		current, hasDst := dst.Attr(key)
		dst.SetAttr(key, mergeOperators[name](current, hasDst, a.Val))
	}

	contentTag := DefaultContentTag
	if opts != nil && opts.ContentTag != "" {
		contentTag = opts.ContentTag
	}

	children := src.Contents()
	if placeholder := dst.Find(contentTag).First(); placeholder.Len() > 0 {
		placeholder.ReplaceWith(children)
	} else {
		dst.Append(children)
	}
	return nil
}
