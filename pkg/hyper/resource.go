package hyper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"dario.cat/mergo"
	"github.com/hashicorp-forge/hyperresource/pkg/config"
	"github.com/hashicorp-forge/hyperresource/pkg/transport"
)

// Resource is a hypermedia resource: its attributes, embedded objects and
// links, plus what is needed to fetch it or follow its links.
//
// A Resource is a snapshot. Fetching or sending it never changes it in
// place; every request returns a new Resource built from the response.
// Attributes may be set locally and sent with Post, Put or Patch.
//
// A Resource is not safe for concurrent mutation, but distinct resources
// may issue requests concurrently.
type Resource struct {
	client *Client
	config *config.Store
	typ    *Type

	root   string
	href   string
	loaded bool

	attributes *Attributes
	links      *Links
	objects    *Objects

	response *transport.Response
	body     map[string]any
}

type resourceOptions struct {
	client *Client
	config *config.Store
	href   string
	typ    *Type
	values map[string]any
}

// Option configures a root Resource.
type Option func(*resourceOptions)

// WithClient sets the client. By default each root resource gets its own.
func WithClient(c *Client) Option {
	return func(o *resourceOptions) { o.client = c }
}

// WithConfig sets the configuration store. The store is cloned.
func WithConfig(s *config.Store) Option {
	return func(o *resourceOptions) { o.config = s }
}

// WithHref sets the href relative to the root.
func WithHref(href string) Option {
	return func(o *resourceOptions) { o.href = href }
}

// WithType sets the resource's initial type.
func WithType(t *Type) Option {
	return func(o *resourceOptions) { o.typ = t }
}

// WithAuth sets credentials for the root's host.
func WithAuth(a *transport.Auth) Option {
	return withValue(config.KeyAuth, a)
}

// WithHeaders sets headers for the root's host.
func WithHeaders(h map[string]string) Option {
	return withValue(config.KeyHeaders, h)
}

// WithNamespace sets the namespace for the root's host: a name or a *Type.
func WithNamespace(ns any) Option {
	return withValue(config.KeyNamespace, ns)
}

// WithAdapterName sets the adapter for the root's host: a name or an
// Adapter.
func WithAdapterName(adapter any) Option {
	return withValue(config.KeyAdapter, adapter)
}

// WithRequestOptions sets transport options for the root's host.
func WithRequestOptions(opts transport.Options) Option {
	return withValue(config.KeyRequestOptions, opts)
}

// WithDefaultAttributes sets attributes merged under every request body
// sent to the root's host.
func WithDefaultAttributes(attrs map[string]any) Option {
	return withValue(config.KeyDefaultAttributes, attrs)
}

func withValue(key string, v any) Option {
	return func(o *resourceOptions) {
		if o.values == nil {
			o.values = map[string]any{}
		}
		o.values[key] = v
	}
}

// New creates an unloaded root resource. Options that set a configuration
// value store it under the root URL's host.
func New(root string, opts ...Option) (*Resource, error) {
	o := resourceOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.client == nil {
		o.client = NewClient()
	}
	cfg := config.New()
	if o.config != nil {
		cfg = o.config.Clone()
	}
	for _, key := range sortedKeys(o.values) {
		if err := cfg.SetForURL(root, key, o.values[key]); err != nil {
			return nil, err
		}
	}
	typ := o.typ
	if typ == nil {
		typ = o.client.types.Base()
	}

	return &Resource{
		client:     o.client,
		config:     cfg,
		typ:        typ,
		root:       root,
		href:       o.href,
		attributes: newAttributes(),
		links:      newLinks(),
		objects:    newObjects(),
	}, nil
}

// spawn creates an unloaded resource that inherits r's client, root, type
// and a copy of its configuration.
func (r *Resource) spawn(href string, typ *Type) *Resource {
	return &Resource{
		client:     r.client,
		config:     r.config.Clone(),
		typ:        typ,
		root:       r.root,
		href:       href,
		attributes: newAttributes(),
		links:      newLinks(),
		objects:    newObjects(),
	}
}

// embed materializes an embedded object. Its type is resolved from the
// object's own data type marker, defaulting to r's type.
func (r *Resource) embed(body map[string]any, adapter Adapter) (*Resource, error) {
	typ := r.typ
	if DataTypeFromBody(body) != "" {
		u, err := r.resolvedURL()
		if err != nil {
			return nil, err
		}
		typ, err = r.client.types.Resolve(ResolveArgs{
			Current: r.typ,
			URL:     u,
			Config:  r.config,
			Body:    body,
		})
		if err != nil {
			return nil, err
		}
	}

	child := r.spawn("", typ)
	child.body = body
	if err := adapter.Apply(body, child); err != nil {
		return nil, err
	}
	return child, nil
}

// Type returns the resource's type.
func (r *Resource) Type() *Type { return r.typ }

// Client returns the resource's client.
func (r *Resource) Client() *Client { return r.client }

// Config returns the resource's configuration store.
func (r *Resource) Config() *config.Store { return r.config }

// Root returns the root URL hrefs are resolved against.
func (r *Resource) Root() string { return r.root }

// Href returns the resource's href, relative to the root.
func (r *Resource) Href() string { return r.href }

// Loaded reports whether the resource was materialized from a response.
func (r *Resource) Loaded() bool { return r.loaded }

// Attributes returns the resource's attributes.
func (r *Resource) Attributes() *Attributes { return r.attributes }

// Links returns the resource's links.
func (r *Resource) Links() *Links { return r.links }

// Objects returns the resource's embedded objects.
func (r *Resource) Objects() *Objects { return r.objects }

// Response returns the response the resource was materialized from.
func (r *Resource) Response() *transport.Response { return r.response }

// Body returns the deserialized body the resource was materialized from.
func (r *Resource) Body() map[string]any { return r.body }

// URL returns the href resolved against the root, or "" when either is
// malformed.
func (r *Resource) URL() string {
	u, err := r.resolvedURL()
	if err != nil {
		return ""
	}
	return u
}

func (r *Resource) resolvedURL() (string, error) {
	if r.href == "" {
		return r.root, nil
	}
	u, err := resolveURL(r.root, r.href)
	if err != nil {
		return "", &config.ConfigurationError{URL: r.href, Err: err}
	}
	return u, nil
}

// Adapter returns the adapter configured for the resource's URL.
func (r *Resource) Adapter() (Adapter, error) {
	v, err := r.config.GetForURL(r.URL(), config.KeyAdapter)
	if err != nil {
		return nil, err
	}
	return r.client.adapterFor(v)
}

// Auth returns the credentials configured for the resource's URL.
func (r *Resource) Auth() (*transport.Auth, error) {
	v, err := r.config.GetForURL(r.URL(), config.KeyAuth)
	if err != nil {
		return nil, err
	}
	return transport.DecodeAuth(v)
}

// Namespace returns the namespace configured for the resource's URL: a
// name, a *Type, or nil.
func (r *Resource) Namespace() (any, error) {
	return r.config.GetForURL(r.URL(), config.KeyNamespace)
}

// RequestOptions returns the transport options configured for the
// resource's URL.
func (r *Resource) RequestOptions() (transport.Options, error) {
	v, err := r.config.GetForURL(r.URL(), config.KeyRequestOptions)
	if err != nil {
		return transport.Options{}, err
	}
	return transport.DecodeOptions(v)
}

// Headers returns the request headers for the resource's URL. Accept
// defaults to the adapter's media type; configured headers override it.
func (r *Resource) Headers() (http.Header, error) {
	adapter, err := r.Adapter()
	if err != nil {
		return nil, err
	}
	v, err := r.config.GetForURL(r.URL(), config.KeyHeaders)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Accept": adapter.MediaType()}
	if configured := stringMap(v); len(configured) > 0 {
		if err := mergo.Merge(&headers, configured, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge headers: %w", err)
		}
	}

	h := http.Header{}
	for _, k := range sortedKeys(headers) {
		h.Set(k, headers[k])
	}
	return h, nil
}

// DefaultAttributes returns the attributes merged under request bodies
// sent to the resource's URL.
func (r *Resource) DefaultAttributes() (map[string]any, error) {
	v, err := r.config.GetForURL(r.URL(), config.KeyDefaultAttributes)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			out[k] = val
		}
	case map[string]string:
		for k, val := range t {
			out[k] = val
		}
	}
	return out, nil
}

// Get fetches the resource.
func (r *Resource) Get(ctx context.Context) (*Resource, error) {
	return r.request(ctx, http.MethodGet, nil, false)
}

// Post sends attrs, or the resource's attributes when attrs is nil.
func (r *Resource) Post(ctx context.Context, attrs map[string]any) (*Resource, error) {
	if attrs == nil {
		attrs = r.attributes.Map()
	}
	return r.request(ctx, http.MethodPost, attrs, true)
}

// Put sends attrs, or the resource's attributes when attrs is nil.
func (r *Resource) Put(ctx context.Context, attrs map[string]any) (*Resource, error) {
	if attrs == nil {
		attrs = r.attributes.Map()
	}
	return r.request(ctx, http.MethodPut, attrs, true)
}

// Patch sends attrs, or the changed attributes when attrs is nil.
func (r *Resource) Patch(ctx context.Context, attrs map[string]any) (*Resource, error) {
	if attrs == nil {
		attrs = r.attributes.ChangedAttributes()
	}
	return r.request(ctx, http.MethodPatch, attrs, true)
}

// Delete deletes the resource.
func (r *Resource) Delete(ctx context.Context) (*Resource, error) {
	return r.request(ctx, http.MethodDelete, nil, false)
}

func (r *Resource) request(ctx context.Context, method string, attrs map[string]any, hasBody bool) (*Resource, error) {
	u, err := r.resolvedURL()
	if err != nil {
		return nil, err
	}
	adapter, err := r.Adapter()
	if err != nil {
		return nil, err
	}
	headers, err := r.Headers()
	if err != nil {
		return nil, err
	}
	auth, err := r.Auth()
	if err != nil {
		return nil, err
	}
	opts, err := r.RequestOptions()
	if err != nil {
		return nil, err
	}

	req := &transport.Request{
		Method:  method,
		URL:     u,
		Header:  headers,
		Auth:    auth,
		Options: opts,
	}

	if hasBody {
		body, err := r.DefaultAttributes()
		if err != nil {
			return nil, err
		}
		for k, v := range attrs {
			body[k] = v
		}
		req.Body, err = adapter.Serialize(r.typ.outgoingBody(body))
		if err != nil {
			return nil, err
		}
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", adapter.MediaType())
		}
	}

	resp, err := r.client.transport.Do(ctx, req)
	if err != nil {
		if transport.IsTimeout(err) {
			return nil, &ResponseError{Message: "request timed out", Cause: err}
		}
		return nil, err
	}
	return r.fromResponse(u, resp, adapter)
}

// fromResponse materializes a new resource from resp, or returns the error
// for a non-2xx status.
func (r *Resource) fromResponse(u string, resp *transport.Response, adapter Adapter) (*Resource, error) {
	success := resp.Status >= 200 && resp.Status < 300

	var body map[string]any
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		var err error
		body, err = adapter.Deserialize(resp.Body)
		if err != nil {
			if success {
				return nil, &ResponseError{
					Message:  "failed to decode response body",
					Response: resp,
					Cause:    err,
				}
			}
			body = nil
		}
	}
	if !success {
		return nil, statusError(resp, body)
	}

	typ, err := r.client.types.Resolve(ResolveArgs{
		Current:  r.typ,
		URL:      u,
		Config:   r.config,
		Response: resp,
		Body:     body,
	})
	if err != nil {
		return nil, err
	}

	out := r.spawn(u, typ)
	out.response = resp
	out.body = body
	if body != nil {
		if err := adapter.Apply(body, out); err != nil {
			return nil, &ResponseError{
				Message:  "malformed response body",
				Response: resp,
				Body:     body,
				Cause:    err,
			}
		}
	} else {
		out.loaded = true
	}

	if resp.Status == http.StatusCreated && out.href == u {
		if loc := resp.Header.Get("Location"); loc != "" {
			out.href = loc
		}
	}

	r.client.logger.Debug("materialized resource", "type", typ.Name(), "href", out.href, "status", resp.Status)
	return out, nil
}

// Member looks up name among the attributes, then the embedded objects,
// then the links. Links found with params are narrowed with Where, every
// link of a list-valued relation included. An
// unloaded resource is fetched first and the lookup runs on the result.
func (r *Resource) Member(ctx context.Context, name string, params ...map[string]any) (any, error) {
	if !r.loaded {
		loaded, err := r.Get(ctx)
		if err != nil {
			return nil, err
		}
		return loaded.Member(ctx, name, params...)
	}

	if v, ok := r.attributes.Get(name); ok {
		return v, nil
	}
	if v, ok := r.objects.Value(name); ok {
		return v, nil
	}
	if v, ok := r.links.Value(name); ok {
		if len(params) == 0 {
			return v, nil
		}
		merged := map[string]any{}
		for _, p := range params {
			for k, val := range p {
				merged[k] = val
			}
		}
		switch t := v.(type) {
		case *Link:
			return t.Where(merged), nil
		case []*Link:
			scoped := make([]*Link, len(t))
			for i, link := range t {
				scoped[i] = link.Where(merged)
			}
			return scoped, nil
		}
		return v, nil
	}
	return nil, &NoSuchMemberError{Name: name, Type: r.typ.Name()}
}

// Link returns the named link, fetching the resource first if needed.
func (r *Resource) Link(ctx context.Context, name string) (*Link, error) {
	v, err := r.Member(ctx, name)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case *Link:
		return t, nil
	case []*Link:
		if len(t) > 0 {
			return t[0], nil
		}
	}
	return nil, &NoSuchMemberError{Name: name, Type: r.typ.Name()}
}

// Set sets an attribute locally and marks it changed.
func (r *Resource) Set(name string, value any) {
	r.attributes.Set(name, value)
}

// Changed reports whether any of the named attributes, or any attribute at
// all when no names are given, changed since materialization.
func (r *Resource) Changed(names ...string) bool {
	return r.attributes.Changed(names...)
}

// ToLink returns a link to the resource.
func (r *Resource) ToLink() *Link {
	return &Link{
		resource: r,
		baseHref: r.href,
		params:   map[string]any{},
		method:   http.MethodGet,
	}
}

// Index returns the i-th resource of the first embedded collection,
// fetching the resource first if needed. Embedded collections are applied in
// sorted name order, so "first" is the alphabetically first name rather than
// the first in the document.
func (r *Resource) Index(ctx context.Context, i int) (*Resource, error) {
	items, err := r.items(ctx)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(items) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(items))
	}
	return items[i], nil
}

// Each calls fn for every resource of the first embedded collection, as
// chosen by Index, fetching the resource first if needed. It stops at the
// first error.
func (r *Resource) Each(ctx context.Context, fn func(i int, item *Resource) error) error {
	items, err := r.items(ctx)
	if err != nil {
		return err
	}
	for i, item := range items {
		if err := fn(i, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resource) items(ctx context.Context) ([]*Resource, error) {
	res := r
	if !res.loaded {
		var err error
		if res, err = r.Get(ctx); err != nil {
			return nil, err
		}
	}
	keys := res.objects.Keys()
	if len(keys) == 0 {
		return nil, nil
	}
	return res.objects.Resources(keys[0]), nil
}

func (r *Resource) String() string {
	return fmt.Sprintf("%s(%s)", r.typ.Name(), r.URL())
}

func stringMap(v any) map[string]string {
	switch t := v.(type) {
	case map[string]string:
		return t
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, val := range t {
			out[k] = fmt.Sprint(val)
		}
		return out
	}
	return nil
}
