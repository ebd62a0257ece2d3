package leaf

// Context is the flat mapping handed to templates and directive hooks
type Context map[string]interface{}

// GlobalsKey is the reserved context key holding the session globals
const GlobalsKey = "$globals"

// Clone returns a shallow copy of the context
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Globals returns the session globals stored under GlobalsKey
func (c Context) Globals() Context {
	if g, ok := c[GlobalsKey].(Context); ok {
		return g
	}
	return nil
}

// String returns the value under key formatted as a string, or "" when it
// is missing or nil.
func (c Context) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	return formatValue(v)
}

func (c Context) withoutGlobals() Context {
	if _, ok := c[GlobalsKey]; !ok {
		return c
	}
	out := c.Clone()
	delete(out, GlobalsKey)
	return out
}

// overlay merges layers left to right into a fresh context; later layers win
func overlay(layers ...map[string]interface{}) Context {
	size := 0
	for _, l := range layers {
		size += len(l)
	}
	out := make(Context, size)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}
