package hyper

import (
	"github.com/iancoleman/strcase"
)

// ordered is an insertion-ordered map whose lookups tolerate the naming
// style of the caller: "first_name", "firstName" and "FirstName" all find
// the same entry.
type ordered[V any] struct {
	keys   []string
	values map[string]V
}

func newOrdered[V any]() ordered[V] {
	return ordered[V]{values: map[string]V{}}
}

// key returns the stored key matching name.
func (o *ordered[V]) key(name string) (string, bool) {
	if _, ok := o.values[name]; ok {
		return name, true
	}
	for _, alt := range []string{strcase.ToSnake(name), strcase.ToLowerCamel(name)} {
		if _, ok := o.values[alt]; ok {
			return alt, true
		}
	}
	return "", false
}

func (o *ordered[V]) get(name string) (V, bool) {
	k, ok := o.key(name)
	if !ok {
		var zero V
		return zero, false
	}
	return o.values[k], true
}

// set stores v under the existing key matching name, or appends name as a
// new key. It returns the key used.
func (o *ordered[V]) set(name string, v V) string {
	if o.values == nil {
		o.values = map[string]V{}
	}
	k, ok := o.key(name)
	if !ok {
		k = name
		o.keys = append(o.keys, k)
	}
	o.values[k] = v
	return k
}

// add stores v under name only when no entry matches name yet.
func (o *ordered[V]) add(name string, v V) bool {
	if _, ok := o.values[name]; ok {
		return false
	}
	if o.values == nil {
		o.values = map[string]V{}
	}
	o.keys = append(o.keys, name)
	o.values[name] = v
	return true
}

func (o *ordered[V]) has(name string) bool {
	_, ok := o.key(name)
	return ok
}

func (o *ordered[V]) len() int {
	return len(o.keys)
}

func (o *ordered[V]) list() []string {
	return append([]string(nil), o.keys...)
}
