package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Options configures how requests to a host are sent. Options are resolved
// per request from the "request_options" configuration key.
//
// Example configuration (HCL):
//
//	request_options {
//	  timeout     = "30s"
//	  max_retries = 3
//	}
type Options struct {
	// Timeout bounds a single request, including reading the response body.
	// Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxRetries is the number of times an idempotent request is retried
	// after a network failure or a 502/503/504 response. Default: 0.
	MaxRetries int `mapstructure:"max_retries"`

	// RetryDelay is the initial delay between retries. Default: 500ms.
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// TLSVerify controls TLS certificate verification.
	// Set to false only for development/testing with self-signed certs.
	TLSVerify *bool `mapstructure:"tls_verify"`
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	tlsVerify := true
	return Options{
		RetryDelay: 500 * time.Millisecond,
		TLSVerify:  &tlsVerify,
	}
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if o.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %v", o.Timeout)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got: %d", o.MaxRetries)
	}
	if o.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative, got: %v", o.RetryDelay)
	}
	return nil
}

// DecodeOptions converts a configuration value into Options. It accepts
// Options, *Options, or a map such as {"timeout": "10s", "max_retries": 2}.
// Integer timeouts are taken as seconds.
func DecodeOptions(v any) (Options, error) {
	opts := DefaultOptions()

	switch t := v.(type) {
	case nil:
		return opts, nil
	case Options:
		opts = t
	case *Options:
		if t != nil {
			opts = *t
		}
	case map[string]any:
		if err := decodeMap(t, &opts); err != nil {
			return opts, fmt.Errorf("invalid request_options: %w", err)
		}
	default:
		return opts, fmt.Errorf("invalid request_options: unsupported type %T", v)
	}

	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultOptions().RetryDelay
	}
	if opts.TLSVerify == nil {
		opts.TLSVerify = DefaultOptions().TLSVerify
	}
	return opts, opts.Validate()
}

func decodeMap(m map[string]any, out *Options) error {
	in := make(map[string]any, len(m))
	for k, v := range m {
		switch n := v.(type) {
		case int:
			if k == "timeout" || k == "retry_delay" {
				v = time.Duration(n) * time.Second
			}
		case float64:
			if k == "timeout" || k == "retry_delay" {
				v = time.Duration(n * float64(time.Second))
			}
		}
		in[k] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// newHTTPClient creates an HTTP client for the given options. Timeouts are
// applied per request through the context, not on the client.
func (o Options) newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if o.TLSVerify != nil && !*o.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Transport: transport,
	}
}
