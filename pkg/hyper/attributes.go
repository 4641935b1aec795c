package hyper

// Attributes holds a resource's scalar and structured values, and tracks
// which of them were changed since the resource was materialized.
type Attributes struct {
	ordered[any]
	changed map[string]bool
}

func newAttributes() *Attributes {
	return &Attributes{ordered: newOrdered[any]()}
}

// Get returns the named attribute.
func (a *Attributes) Get(name string) (any, bool) {
	return a.get(name)
}

// Set stores an attribute and marks it changed.
func (a *Attributes) Set(name string, value any) {
	k := a.set(name, value)
	if a.changed == nil {
		a.changed = map[string]bool{}
	}
	a.changed[k] = true
}

// Has reports whether the named attribute exists.
func (a *Attributes) Has(name string) bool {
	return a.has(name)
}

// Keys returns attribute names in insertion order.
func (a *Attributes) Keys() []string {
	return a.list()
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	return a.len()
}

// Map returns a copy of the attributes.
func (a *Attributes) Map() map[string]any {
	out := make(map[string]any, len(a.keys))
	for _, k := range a.keys {
		out[k] = a.values[k]
	}
	return out
}

// Changed reports whether any of the named attributes changed since the
// resource was materialized. With no names it reports whether any
// attribute changed.
func (a *Attributes) Changed(names ...string) bool {
	if len(names) == 0 {
		return len(a.changed) > 0
	}
	for _, name := range names {
		k, ok := a.key(name)
		if !ok {
			k = name
		}
		if a.changed[k] {
			return true
		}
	}
	return false
}

// ChangedAttributes returns the changed attributes and their values.
func (a *Attributes) ChangedAttributes() map[string]any {
	out := make(map[string]any, len(a.changed))
	for k := range a.changed {
		out[k] = a.values[k]
	}
	return out
}

// ClearChanged marks every attribute unchanged.
func (a *Attributes) ClearChanged() {
	a.changed = nil
}
