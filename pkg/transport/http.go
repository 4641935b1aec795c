package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// RequestIDHeader carries a unique id for each request sent.
const RequestIDHeader = "X-Request-Id"

// Request is a single HTTP request.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Auth    *Auth
	Body    []byte
	Options Options
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	if r == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// Transport sends requests.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport sends requests over HTTP, reusing clients from a Pool.
type HTTPTransport struct {
	pool   *Pool
	logger hclog.Logger
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport with its own connection pool.
func NewHTTPTransport(logger hclog.Logger) *HTTPTransport {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("transport")
	return &HTTPTransport{
		pool:   NewPool(logger.Named("pool")),
		logger: logger,
	}
}

// Pool returns the transport's connection pool.
func (t *HTTPTransport) Pool() *Pool {
	return t.pool
}

// Close releases pooled connections.
func (t *HTTPTransport) Close() error {
	return t.pool.Close()
}

// Do sends req and reads the whole response. Non-2xx statuses are not
// errors at this layer. Idempotent requests are retried according to
// req.Options.MaxRetries.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	client, err := t.pool.Get(req)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	if req.Header != nil && req.Header.Get(RequestIDHeader) != "" {
		requestID = req.Header.Get(RequestIDHeader)
	}

	retry := req.Options.MaxRetries > 0 && idempotent(req.Method)

	var resp *Response
	attempt := 0
	op := func() error {
		attempt++
		r, err := t.send(ctx, client, req, requestID)
		if err != nil {
			if !retryableError(err) {
				return backoff.Permanent(err)
			}
			t.logger.Warn("request failed", "method", req.Method, "url", req.URL,
				"attempt", attempt, "request_id", requestID, "error", err)
			return err
		}
		resp = r
		if retry && retryableStatus(r.Status) && attempt <= req.Options.MaxRetries {
			return fmt.Errorf("server returned status %d", r.Status)
		}
		return nil
	}

	if !retry {
		if err := op(); err != nil {
			return nil, unwrapPermanent(err)
		}
		return resp, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = req.Options.RetryDelay
	policy := backoff.WithContext(
		backoff.WithMaxRetries(b, uint64(req.Options.MaxRetries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		// The last attempt may have produced a response worth returning.
		if resp != nil && retryableStatus(resp.Status) {
			return resp, nil
		}
		return nil, unwrapPermanent(err)
	}
	return resp, nil
}

func (t *HTTPTransport) send(ctx context.Context, client *http.Client, req *Request, requestID string) (*Response, error) {
	if req.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Options.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	req.Auth.Apply(httpReq)

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	t.logger.Debug("request complete",
		"method", req.Method,
		"url", req.URL,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   respBody,
	}, nil
}

// IsTimeout reports whether err was caused by a request timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func retryableError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
