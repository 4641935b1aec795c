package hyper

import (
	"regexp"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
)

// BaseTypeName is the name of the root of every type hierarchy.
const BaseTypeName = "Resource"

// Filter transforms attribute maps on their way into or out of a resource.
type Filter func(attrs map[string]any) map[string]any

// Filters is the hook-table attached to a Type. A nil hook is inherited
// from the parent type; if no ancestor defines it the identity is used.
type Filters struct {
	// IncomingBody filters attributes on their way from a response body
	// into a resource.
	IncomingBody Filter

	// OutgoingBody filters attributes on their way from a resource into a
	// request body.
	OutgoingBody Filter

	// OutgoingURI filters link parameters before URI template expansion.
	OutgoingURI Filter
}

// Type is the runtime type of a resource. Types form a tree rooted at the
// registry's base type: namespaces are children of the type that first
// resolved them, and data types are children of their namespace.
//
// Types are created once per (namespace, name) pair and compared by pointer.
type Type struct {
	namespace string
	local     string
	parent    *Type
	filters   atomic.Pointer[Filters]
}

// Name returns the qualified type name, e.g. "Shop.Widget".
func (t *Type) Name() string {
	switch {
	case t == nil:
		return BaseTypeName
	case t.namespace == "":
		return t.local
	default:
		return t.namespace + "." + t.local
	}
}

func (t *Type) String() string {
	return t.Name()
}

// Namespace returns the namespace the type belongs to. Namespace types
// and the base type return "".
func (t *Type) Namespace() string {
	return t.namespace
}

// Parent returns the parent type, nil for the base type.
func (t *Type) Parent() *Type {
	return t.parent
}

// IsA reports whether t is other or descends from it.
func (t *Type) IsA(other *Type) bool {
	for c := t; c != nil; c = c.parent {
		if c == other {
			return true
		}
	}
	return false
}

// SetFilters replaces the type's filter hooks.
func (t *Type) SetFilters(f Filters) {
	t.filters.Store(&f)
}

func (t *Type) filter(pick func(*Filters) Filter) Filter {
	for c := t; c != nil; c = c.parent {
		if f := c.filters.Load(); f != nil {
			if fn := pick(f); fn != nil {
				return fn
			}
		}
	}
	return func(attrs map[string]any) map[string]any { return attrs }
}

func (t *Type) incomingBody(attrs map[string]any) map[string]any {
	return t.filter(func(f *Filters) Filter { return f.IncomingBody })(attrs)
}

func (t *Type) outgoingBody(attrs map[string]any) map[string]any {
	return t.filter(func(f *Filters) Filter { return f.OutgoingBody })(attrs)
}

func (t *Type) outgoingURI(attrs map[string]any) map[string]any {
	return t.filter(func(f *Filters) Filter { return f.OutgoingURI })(attrs)
}

type typeKey struct {
	namespace string
	name      string
}

// TypeRegistry memoizes resource types by (namespace, name), so resolving
// the same pair twice always yields the same *Type.
//
// TypeRegistry is safe for concurrent use.
type TypeRegistry struct {
	base   *Type
	logger hclog.Logger

	// mu serializes registration and keeps count consistent.
	mu    sync.Mutex
	types sync.Map // map[typeKey]*Type
	count int
}

// DefaultTypes is the process-wide registry used by clients that are not
// given one explicitly.
var DefaultTypes = NewTypeRegistry(nil)

// NewTypeRegistry creates a registry holding only its base type.
func NewTypeRegistry(logger hclog.Logger) *TypeRegistry {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &TypeRegistry{
		base:   &Type{local: BaseTypeName},
		logger: logger.Named("types"),
	}
}

// Base returns the root type.
func (r *TypeRegistry) Base() *Type {
	return r.base
}

// Lookup returns a previously registered type. An empty name looks up the
// namespace type itself.
func (r *TypeRegistry) Lookup(namespace, name string) (*Type, bool) {
	if v, ok := r.types.Load(typeKey{namespace, name}); ok {
		return v.(*Type), true
	}
	return nil, false
}

// Namespace returns the type for namespace, registering it as a child of
// parent (the base type when nil) on first use. Names are sanitized.
func (r *TypeRegistry) Namespace(namespace string, parent *Type) *Type {
	namespace = SanitizeTypeName(namespace)
	if namespace == "" {
		return r.base
	}
	if parent == nil {
		parent = r.base
	}
	return r.register(typeKey{namespace: namespace}, func() *Type {
		return &Type{local: namespace, parent: parent}
	})
}

// DataType returns the type for name within the namespace type ns,
// registering it on first use. The name is capitalized and sanitized.
func (r *TypeRegistry) DataType(ns *Type, name string) *Type {
	name = SanitizeTypeName(capitalize(name))
	if name == "" {
		return ns
	}
	if ns == nil {
		ns = r.base
	}
	nsName := ns.Name()
	return r.register(typeKey{namespace: nsName, name: name}, func() *Type {
		return &Type{namespace: nsName, local: name, parent: ns}
	})
}

// Len returns the number of registered types, excluding the base type.
func (r *TypeRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *TypeRegistry) register(key typeKey, create func() *Type) *Type {
	// Fast read path.
	if v, ok := r.types.Load(key); ok {
		return v.(*Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if v, ok := r.types.Load(key); ok {
		return v.(*Type)
	}

	t := create()
	r.types.Store(key, t)
	r.count++
	r.logger.Debug("registered type", "type", t.Name(), "parent", t.parent.Name())
	return t
}

var invalidTypeChars = regexp.MustCompile(`[^_0-9A-Za-z:]`)

// SanitizeTypeName strips every character outside [A-Za-z0-9_:].
func SanitizeTypeName(name string) string {
	return invalidTypeChars.ReplaceAllString(name, "")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
