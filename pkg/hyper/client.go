package hyper

import (
	"io"

	"github.com/hashicorp-forge/hyperresource/pkg/transport"
	"github.com/hashicorp/go-hclog"
)

// Client holds what resources share: the transport and its connection
// pool, the type registry and the adapters. Resources spawned from one
// another share their Client.
type Client struct {
	transport transport.Transport
	types     *TypeRegistry
	adapters  *adapterRegistry
	logger    hclog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport sets the transport. The default is an HTTPTransport with
// its own connection pool.
func WithTransport(t transport.Transport) ClientOption {
	return func(c *Client) { c.transport = t }
}

// WithTypeRegistry sets the type registry. The default is DefaultTypes.
func WithTypeRegistry(r *TypeRegistry) ClientOption {
	return func(c *Client) { c.types = r }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithAdapter registers an additional adapter, replacing any adapter of
// the same name.
func WithAdapter(a Adapter) ClientOption {
	return func(c *Client) { c.adapters.register(a) }
}

// NewClient creates a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{adapters: newAdapterRegistry()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	if c.types == nil {
		c.types = DefaultTypes
	}
	if c.transport == nil {
		c.transport = transport.NewHTTPTransport(c.logger)
	}
	return c
}

// Types returns the client's type registry.
func (c *Client) Types() *TypeRegistry {
	return c.types
}

// Logger returns the client's logger.
func (c *Client) Logger() hclog.Logger {
	return c.logger
}

// Adapter returns the adapter registered under name.
func (c *Client) Adapter(name string) (Adapter, error) {
	return c.adapters.lookup(name)
}

// Close releases the transport's pooled connections.
func (c *Client) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// adapterFor resolves a configured adapter value: an Adapter, an adapter
// name, or nil for HAL.
func (c *Client) adapterFor(v any) (Adapter, error) {
	switch t := v.(type) {
	case nil:
		return HAL{}, nil
	case Adapter:
		return t, nil
	case string:
		if t == "" {
			return HAL{}, nil
		}
		return c.adapters.lookup(t)
	default:
		return nil, &ValidationError{Field: "adapter", Message: "unsupported adapter value"}
	}
}
