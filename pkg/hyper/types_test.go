package hyper

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/hashicorp-forge/hyperresource/pkg/config"
	"github.com/hashicorp-forge/hyperresource/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeRegistry_DataTypeIsMemoized(t *testing.T) {
	reg := NewTypeRegistry(nil)
	ns := reg.Namespace("Shop", nil)

	first := reg.DataType(ns, "widget")
	second := reg.DataType(ns, "Widget")

	assert.Same(t, first, second)
	assert.Equal(t, "Shop.Widget", first.Name())
	assert.Same(t, ns, first.Parent())
	assert.Same(t, reg.Base(), ns.Parent())
	assert.Equal(t, 2, reg.Len())

	got, ok := reg.Lookup("Shop", "Widget")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestTypeRegistry_NamespaceKeepsFirstParent(t *testing.T) {
	reg := NewTypeRegistry(nil)
	parent := reg.Namespace("Api", nil)

	ns := reg.Namespace("Shop", parent)
	again := reg.Namespace("Shop", nil)

	assert.Same(t, ns, again)
	assert.Same(t, parent, ns.Parent())
	assert.True(t, ns.IsA(parent))
	assert.True(t, ns.IsA(reg.Base()))
	assert.False(t, parent.IsA(ns))
}

func TestTypeRegistry_SanitizesNames(t *testing.T) {
	reg := NewTypeRegistry(nil)

	ns := reg.Namespace("Sh op!", nil)
	assert.Equal(t, "Shop", ns.Name())

	typ := reg.DataType(ns, "wid-get;Kernel.exit")
	assert.Equal(t, "Shop.WidgetKernelexit", typ.Name())

	assert.Same(t, reg.Base(), reg.Namespace("!!!", nil))
	assert.Same(t, ns, reg.DataType(ns, "..."))
}

func TestTypeRegistry_ConcurrentRegistration(t *testing.T) {
	reg := NewTypeRegistry(nil)
	ns := reg.Namespace("Shop", nil)

	const workers = 50
	types := make([]*Type, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			types[i] = reg.DataType(ns, "widget")
		}(i)
	}
	wg.Wait()

	for _, typ := range types {
		assert.Same(t, types[0], typ)
	}
	assert.Equal(t, 2, reg.Len())
}

func TestType_FiltersAreInherited(t *testing.T) {
	reg := NewTypeRegistry(nil)
	ns := reg.Namespace("Shop", nil)
	widget := reg.DataType(ns, "Widget")

	ns.SetFilters(Filters{
		IncomingBody: func(attrs map[string]any) map[string]any {
			attrs["from"] = "namespace"
			return attrs
		},
	})
	widget.SetFilters(Filters{
		OutgoingBody: func(attrs map[string]any) map[string]any {
			delete(attrs, "secret")
			return attrs
		},
	})

	in := widget.incomingBody(map[string]any{})
	assert.Equal(t, "namespace", in["from"])

	out := widget.outgoingBody(map[string]any{"secret": "x", "name": "y"})
	assert.Equal(t, map[string]any{"name": "y"}, out)

	// No ancestor defines it: identity.
	params := map[string]any{"id": 1}
	assert.Equal(t, params, widget.outgoingURI(params))

	// The namespace does not see its child's filters.
	out = ns.outgoingBody(map[string]any{"secret": "x"})
	assert.Equal(t, "x", out["secret"])
}

func TestType_NilIsBase(t *testing.T) {
	var typ *Type
	assert.Equal(t, BaseTypeName, typ.Name())
	assert.Equal(t, map[string]any{"a": 1}, typ.incomingBody(map[string]any{"a": 1}))
}

func TestTypeRegistry_Resolve(t *testing.T) {
	const u = "https://api.example.com/things"

	newStore := func(ns any) *config.Store {
		s := config.New()
		if ns != nil {
			s.Set("*.example.com", config.KeyNamespace, ns)
		}
		return s
	}
	response := func(contentType string) *transport.Response {
		return &transport.Response{Status: 200, Header: http.Header{"Content-Type": []string{contentType}}}
	}

	t.Run("no namespace returns current type", func(t *testing.T) {
		reg := NewTypeRegistry(nil)
		current := reg.Namespace("Other", nil)

		typ, err := reg.Resolve(ResolveArgs{
			Current:  current,
			URL:      u,
			Config:   newStore(nil),
			Response: response("application/json;type=Widget"),
		})
		require.NoError(t, err)
		assert.Same(t, current, typ)
	})

	t.Run("content type parameter", func(t *testing.T) {
		reg := NewTypeRegistry(nil)
		typ, err := reg.Resolve(ResolveArgs{
			URL:      u,
			Config:   newStore("Shop"),
			Response: response("application/vnd.x+json; TYPE=widget"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Shop.Widget", typ.Name())
	})

	t.Run("body marker wins over content type", func(t *testing.T) {
		reg := NewTypeRegistry(nil)
		typ, err := reg.Resolve(ResolveArgs{
			URL:      u,
			Config:   newStore("Shop"),
			Response: response("application/json;type=Widget"),
			Body:     map[string]any{"_data_type": "gadget", "type": "ignored"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Shop.Gadget", typ.Name())

		typ, err = reg.Resolve(ResolveArgs{
			URL:    u,
			Config: newStore("Shop"),
			Body:   map[string]any{"type": "sprocket"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Shop.Sprocket", typ.Name())
	})

	t.Run("no data type returns namespace", func(t *testing.T) {
		reg := NewTypeRegistry(nil)
		typ, err := reg.Resolve(ResolveArgs{
			URL:      u,
			Config:   newStore("Shop"),
			Response: response("application/json"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Shop", typ.Name())
		assert.Same(t, reg.Base(), typ.Parent())
	})

	t.Run("namespace as type handle", func(t *testing.T) {
		reg := NewTypeRegistry(nil)
		ns := reg.Namespace("Shop", nil)

		typ, err := reg.Resolve(ResolveArgs{
			URL:    u,
			Config: newStore(ns),
			Body:   map[string]any{"type": "widget"},
		})
		require.NoError(t, err)
		assert.Same(t, ns, typ.Parent())
	})

	t.Run("same pair resolves to same type", func(t *testing.T) {
		reg := NewTypeRegistry(nil)
		args := ResolveArgs{URL: u, Config: newStore("Shop"), Body: map[string]any{"type": "widget"}}

		first, err := reg.Resolve(args)
		require.NoError(t, err)
		second, err := reg.Resolve(args)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 2, reg.Len())
	})

	t.Run("invalid namespace value", func(t *testing.T) {
		reg := NewTypeRegistry(nil)
		_, err := reg.Resolve(ResolveArgs{URL: u, Config: newStore(42)})

		var cfgErr *config.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
	})

	t.Run("malformed url", func(t *testing.T) {
		reg := NewTypeRegistry(nil)
		_, err := reg.Resolve(ResolveArgs{URL: "http://[::1", Config: newStore("Shop")})

		var cfgErr *config.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
	})
}

func TestDataTypeFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"application/hal+json;type=Root", "Root"},
		{"application/hal+json; type=widget", "Widget"},
		{"application/hal+json;charset=utf-8;Type=Ns::Thing", "Ns::Thing"},
		{`application/hal+json; type="Root"`, "Root"},
		{`application/hal+json;charset="utf-8";type="order";profile=x`, "Order"},
		{"application/hal+json", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, DataTypeFromContentType(tt.contentType))
		})
	}
}
