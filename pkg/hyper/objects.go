package hyper

type objectEntry struct {
	resources []*Resource
	many      bool
}

// Objects holds a resource's embedded sub-resources. Each name maps to a
// single resource or to a list of them, as given in the response body.
type Objects struct {
	ordered[objectEntry]
}

func newObjects() *Objects {
	return &Objects{ordered: newOrdered[objectEntry]()}
}

// Set stores a single embedded resource.
func (o *Objects) Set(name string, r *Resource) {
	o.set(name, objectEntry{resources: []*Resource{r}})
}

// SetList stores a list of embedded resources.
func (o *Objects) SetList(name string, rs []*Resource) {
	o.set(name, objectEntry{resources: rs, many: true})
}

// Value returns the named entry as a *Resource or a []*Resource.
func (o *Objects) Value(name string) (any, bool) {
	e, ok := o.get(name)
	if !ok {
		return nil, false
	}
	if e.many {
		return append([]*Resource(nil), e.resources...), true
	}
	return e.resources[0], true
}

// Resources returns the named entry as a list, whether it holds one
// resource or many.
func (o *Objects) Resources(name string) []*Resource {
	e, _ := o.get(name)
	return append([]*Resource(nil), e.resources...)
}

// First returns the first resource under name, or nil.
func (o *Objects) First(name string) *Resource {
	e, _ := o.get(name)
	if len(e.resources) == 0 {
		return nil
	}
	return e.resources[0]
}

// Has reports whether an entry exists for name.
func (o *Objects) Has(name string) bool {
	return o.has(name)
}

// Keys returns entry names in insertion order.
func (o *Objects) Keys() []string {
	return o.list()
}

// Len returns the number of entries.
func (o *Objects) Len() int {
	return o.len()
}
