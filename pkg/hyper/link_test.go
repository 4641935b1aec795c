package hyper

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLink(t *testing.T, owner *Resource, spec LinkSpec) *Link {
	t.Helper()
	link, err := NewLink(owner, spec)
	require.NoError(t, err)
	return link
}

func TestLink_WhereDoesNotMutate(t *testing.T) {
	owner := &Resource{root: "https://api.example.com/"}
	link := newTestLink(t, owner, LinkSpec{Href: "/widgets{?a,b}", Templated: true, Params: map[string]any{"b": "x"}})

	scoped := link.Where(map[string]any{"a": 1})

	assert.Equal(t, map[string]any{"b": "x"}, link.Params())
	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, scoped.Params())

	href, err := link.Href()
	require.NoError(t, err)
	assert.Equal(t, "/widgets?b=x", href)

	href, err = scoped.Href()
	require.NoError(t, err)
	assert.Equal(t, "/widgets?a=1&b=x", href)

	assert.Equal(t, link.BaseHref(), scoped.BaseHref())
	assert.Equal(t, link.Method(), scoped.Method())
	assert.Same(t, owner, scoped.Owner())
}

func TestLink_WhereOverridesParams(t *testing.T) {
	owner := &Resource{}
	link := newTestLink(t, owner, LinkSpec{Href: "/w/{id}", Templated: true, Params: map[string]any{"id": "1"}})

	href, err := link.Where(map[string]any{"id": "2"}).Href()
	require.NoError(t, err)
	assert.Equal(t, "/w/2", href)
}

func TestLink_NotTemplatedIsVerbatim(t *testing.T) {
	link := newTestLink(t, &Resource{}, LinkSpec{Href: "/widgets{?page}"})

	href, err := link.Where(map[string]any{"page": "2"}).Href()
	require.NoError(t, err)
	assert.Equal(t, "/widgets{?page}", href)
}

func TestLink_TemplateValues(t *testing.T) {
	link := newTestLink(t, &Resource{}, LinkSpec{Href: "/search{?q,tags}", Templated: true})

	href, err := link.Where(map[string]any{
		"q":    "red widgets",
		"tags": []any{"a", "b"},
	}).Href()
	require.NoError(t, err)
	assert.Equal(t, "/search?q=red%20widgets&tags=a,b", href)
}

func TestLink_OutgoingURIFilter(t *testing.T) {
	reg := NewTypeRegistry(nil)
	typ := reg.Namespace("Shop", nil)
	typ.SetFilters(Filters{
		OutgoingURI: func(params map[string]any) map[string]any {
			params["id"] = "filtered-" + params["id"].(string)
			return params
		},
	})

	owner := &Resource{typ: typ}
	link := newTestLink(t, owner, LinkSpec{Href: "/w/{id}", Templated: true, Params: map[string]any{"id": "1"}})

	href, err := link.Href()
	require.NoError(t, err)
	assert.Equal(t, "/w/filtered-1", href)
	assert.Equal(t, "1", link.Params()["id"])
}

func TestLink_MissingHref(t *testing.T) {
	_, err := NewLink(&Resource{}, LinkSpec{Name: "nope"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Href", verr.Field)
}

func TestDecodeLinkSpec(t *testing.T) {
	spec, err := DecodeLinkSpec(map[string]any{
		"href":      "/w/{id}",
		"templated": true,
		"name":      "widget",
		"title":     "ignored",
		"params":    map[string]any{"id": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, LinkSpec{
		Href:      "/w/{id}",
		Name:      "widget",
		Templated: true,
		Params:    map[string]any{"id": "1"},
	}, spec)

	_, err = DecodeLinkSpec(map[string]any{"name": "no-href"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	_, err = DecodeLinkSpec("not an object")
	require.True(t, errors.As(err, &verr))
}

func TestLink_MalformedTemplate(t *testing.T) {
	link := newTestLink(t, &Resource{}, LinkSpec{Href: "/w/{id", Templated: true})

	_, err := link.Href()
	var terr *TemplateExpansionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "/w/{id", terr.Template)

	assert.Equal(t, "", link.URL())
}

func TestLink_URL(t *testing.T) {
	owner := &Resource{root: "https://api.example.com/v1/"}

	link := newTestLink(t, owner, LinkSpec{Href: "widgets"})
	assert.Equal(t, "https://api.example.com/v1/widgets", link.URL())

	link = newTestLink(t, owner, LinkSpec{Href: "/widgets"})
	assert.Equal(t, "https://api.example.com/widgets", link.URL())

	link = newTestLink(t, &Resource{root: "http://[::1"}, LinkSpec{Href: "/widgets"})
	assert.Equal(t, "", link.URL())
}

func TestLink_DefaultMethod(t *testing.T) {
	link := newTestLink(t, &Resource{}, LinkSpec{Href: "/w"})
	assert.Equal(t, http.MethodGet, link.Method())

	link = newTestLink(t, &Resource{}, LinkSpec{Href: "/w", Method: "post"})
	assert.Equal(t, http.MethodPost, link.Method())
}
