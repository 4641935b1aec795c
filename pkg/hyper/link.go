package hyper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/yosida95/uritemplate/v3"
)

// LinkSpec describes a link as it appears in a response body.
type LinkSpec struct {
	Href      string         `mapstructure:"href"`
	Name      string         `mapstructure:"name"`
	Templated bool           `mapstructure:"templated"`
	Params    map[string]any `mapstructure:"params"`

	// Method is the HTTP method used when the link is followed implicitly.
	// Defaults to GET.
	Method string `mapstructure:"method"`
}

// Validate checks the link spec.
func (s LinkSpec) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Href, validation.Required),
	)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			return &ValidationError{Field: field, Message: fieldErr.Error(), Err: fieldErr}
		}
	}
	return &ValidationError{Err: err}
}

// DecodeLinkSpec converts a link object from a response body into a
// LinkSpec.
func DecodeLinkSpec(v any) (LinkSpec, error) {
	var spec LinkSpec
	m, ok := v.(map[string]any)
	if !ok {
		return spec, &ValidationError{Message: fmt.Sprintf("link must be an object, got %T", v)}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return spec, err
	}
	if err := dec.Decode(m); err != nil {
		return spec, &ValidationError{Message: "malformed link", Err: err}
	}
	return spec, spec.Validate()
}

// Link is a possibly templated hyperlink belonging to a resource. Links are
// immutable: Where returns a new link.
type Link struct {
	resource  *Resource
	baseHref  string
	name      string
	templated bool
	params    map[string]any
	method    string
}

// NewLink creates a link belonging to r.
func NewLink(r *Resource, spec LinkSpec) (*Link, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}
	params := make(map[string]any, len(spec.Params))
	for k, v := range spec.Params {
		params[k] = v
	}
	return &Link{
		resource:  r,
		baseHref:  spec.Href,
		name:      spec.Name,
		templated: spec.Templated,
		params:    params,
		method:    method,
	}, nil
}

// BaseHref returns the unexpanded href.
func (l *Link) BaseHref() string { return l.baseHref }

// Name returns the link's display name.
func (l *Link) Name() string { return l.name }

// Templated reports whether the href is a URI template.
func (l *Link) Templated() bool { return l.templated }

// Method returns the method used when the link is followed implicitly.
func (l *Link) Method() string { return l.method }

// Owner returns the resource the link belongs to.
func (l *Link) Owner() *Resource { return l.resource }

// Params returns a copy of the link's template parameters.
func (l *Link) Params() map[string]any {
	out := make(map[string]any, len(l.params))
	for k, v := range l.params {
		out[k] = v
	}
	return out
}

// Href returns the link's href, expanding the template with the link's
// parameters after the owner's outgoing URI filter has been applied.
func (l *Link) Href() (string, error) {
	if !l.templated {
		return l.baseHref, nil
	}

	tmpl, err := uritemplate.New(l.baseHref)
	if err != nil {
		return "", &TemplateExpansionError{Template: l.baseHref, Err: err}
	}

	params := l.resource.Type().outgoingURI(l.Params())
	values := uritemplate.Values{}
	for k, v := range params {
		values.Set(k, templateValue(v))
	}

	href, err := tmpl.Expand(values)
	if err != nil {
		return "", &TemplateExpansionError{Template: l.baseHref, Err: err}
	}
	return href, nil
}

// URL returns the href resolved against the owner's root, or "" when either
// cannot be parsed or expanded.
func (l *Link) URL() string {
	href, err := l.Href()
	if err != nil {
		return ""
	}
	u, err := resolveURL(l.resource.Root(), href)
	if err != nil {
		return ""
	}
	return u
}

// Where returns a copy of the link with params merged over the existing
// parameters.
func (l *Link) Where(params map[string]any) *Link {
	merged := l.Params()
	for k, v := range params {
		merged[k] = v
	}
	return &Link{
		resource:  l.resource,
		baseHref:  l.baseHref,
		name:      l.name,
		templated: l.templated,
		params:    merged,
		method:    l.method,
	}
}

// Resource returns an unloaded resource for the link's target.
func (l *Link) Resource() (*Resource, error) {
	href, err := l.Href()
	if err != nil {
		return nil, err
	}
	return l.resource.spawn(href, l.resource.Type()), nil
}

// Get fetches the link's target.
func (l *Link) Get(ctx context.Context) (*Resource, error) {
	r, err := l.Resource()
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

// Post sends attrs to the link's target.
func (l *Link) Post(ctx context.Context, attrs map[string]any) (*Resource, error) {
	r, err := l.Resource()
	if err != nil {
		return nil, err
	}
	return r.Post(ctx, orEmpty(attrs))
}

// Put sends attrs to the link's target.
func (l *Link) Put(ctx context.Context, attrs map[string]any) (*Resource, error) {
	r, err := l.Resource()
	if err != nil {
		return nil, err
	}
	return r.Put(ctx, orEmpty(attrs))
}

// Patch sends attrs to the link's target.
func (l *Link) Patch(ctx context.Context, attrs map[string]any) (*Resource, error) {
	r, err := l.Resource()
	if err != nil {
		return nil, err
	}
	return r.Patch(ctx, orEmpty(attrs))
}

// Delete deletes the link's target.
func (l *Link) Delete(ctx context.Context) (*Resource, error) {
	r, err := l.Resource()
	if err != nil {
		return nil, err
	}
	return r.Delete(ctx)
}

// Follow performs the link's method against its target.
func (l *Link) Follow(ctx context.Context) (*Resource, error) {
	switch l.method {
	case http.MethodPost:
		return l.Post(ctx, nil)
	case http.MethodPut:
		return l.Put(ctx, nil)
	case http.MethodPatch:
		return l.Patch(ctx, nil)
	case http.MethodDelete:
		return l.Delete(ctx)
	default:
		return l.Get(ctx)
	}
}

// Member follows the link and looks up name on the resulting resource.
func (l *Link) Member(ctx context.Context, name string, params ...map[string]any) (any, error) {
	r, err := l.Follow(ctx)
	if err != nil {
		return nil, err
	}
	return r.Member(ctx, name, params...)
}

func (l *Link) String() string {
	if href, err := l.Href(); err == nil {
		return href
	}
	return l.baseHref
}

func orEmpty(attrs map[string]any) map[string]any {
	if attrs == nil {
		return map[string]any{}
	}
	return attrs
}

func templateValue(v any) uritemplate.Value {
	switch t := v.(type) {
	case string:
		return uritemplate.String(t)
	case []string:
		return uritemplate.List(t...)
	case []any:
		items := make([]string, len(t))
		for i, item := range t {
			items[i] = fmt.Sprint(item)
		}
		return uritemplate.List(items...)
	case map[string]string:
		return uritemplate.KV(sortedPairs(t)...)
	case map[string]any:
		m := make(map[string]string, len(t))
		for k, item := range t {
			m[k] = fmt.Sprint(item)
		}
		return uritemplate.KV(sortedPairs(m)...)
	default:
		return uritemplate.String(fmt.Sprint(v))
	}
}

func sortedPairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// resolveURL resolves href against root.
func resolveURL(root, href string) (string, error) {
	base, err := url.Parse(root)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
