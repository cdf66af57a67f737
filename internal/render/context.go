package render

import "maps"

// Context is an immutable set of template variables. Derived contexts are
// copies, so a base context shared by several pages never sees page keys.
type Context struct {
	values map[string]any
}

// NewContext returns a context holding a copy of values.
func NewContext(values map[string]any) Context {
	return Context{values: maps.Clone(values)}
}

// With returns a copy of c with key set to value.
func (c Context) With(key string, value any) Context {
	out := make(map[string]any, len(c.values)+1)
	maps.Copy(out, c.values)
	out[key] = value
	return Context{values: out}
}

// WithValues returns a copy of c with every entry of values set.
func (c Context) WithValues(values map[string]any) Context {
	out := make(map[string]any, len(c.values)+len(values))
	maps.Copy(out, c.values)
	maps.Copy(out, values)
	return Context{values: out}
}

// Value returns the value stored under key.
func (c Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of keys.
func (c Context) Len() int { return len(c.values) }

// Data returns a copy of the variables for template execution.
func (c Context) Data() map[string]any {
	out := maps.Clone(c.values)
	if out == nil {
		out = map[string]any{}
	}
	return out
}
