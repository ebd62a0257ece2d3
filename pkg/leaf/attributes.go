package leaf

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

var (
	attrPrefixRegex = regexp.MustCompile(`(?i)^(data|x)-`)
	decimalRegex    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// ExtractAttributes returns the element's attributes as a context. Names lose
// a data- or x- prefix and are camel-cased; values are coerced with
// CoerceValue. The element is not modified.
func ExtractAttributes(el *dom.Selection) Context {
	attrs := el.Attrs()
	out := make(Context, len(attrs))
	for _, a := range attrs {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + name
		}
		out[NormalizeAttributeName(name)] = CoerceValue(a.Val)
	}
	return out
}

// NormalizeAttributeName strips a data- or x- prefix and camel-cases the rest
func NormalizeAttributeName(name string) string {
	return ToCamelCase(attrPrefixRegex.ReplaceAllString(name, ""))
}

// CoerceValue converts an attribute value: "" becomes nil, a finite decimal
// becomes float64, a value wrapped in matching quotes is unwrapped, anything
// else is returned unchanged.
func CoerceValue(v string) interface{} {
	if v == "" {
		return nil
	}
	if decimalRegex.MatchString(v) {
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) {
			return f
		}
	}
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// ToDashCase converts camelCase to dash-case using sep: subElement -> sub-element
func ToDashCase(s string, sep string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			sb.WriteString(sep)
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// ToCamelCase converts dash-case to camelCase: sub-element -> subElement
func ToCamelCase(s string) string {
	if !strings.Contains(s, "-") {
		return s
	}
	var sb strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] == '-' && i+1 < len(rs) && unicode.IsLower(rs[i+1]) {
			sb.WriteRune(unicode.ToUpper(rs[i+1]))
			i++
			continue
		}
		sb.WriteRune(rs[i])
	}
	return sb.String()
}

// formatValue renders a context value the way it would appear in markup
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
