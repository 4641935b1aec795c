package transport

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Pool caches HTTP clients by endpoint fingerprint, so repeated requests to
// the same effective endpoint (same scheme and host, headers, credentials
// and options) reuse one client and its idle connections.
//
// Pool is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	clients map[string]*http.Client
	logger  hclog.Logger
	closed  bool
}

// NewPool creates an empty pool.
func NewPool(logger hclog.Logger) *Pool {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Pool{
		clients: make(map[string]*http.Client),
		logger:  logger,
	}
}

// Get returns the client for the request's fingerprint, creating it if needed.
func (p *Pool) Get(req *Request) (*http.Client, error) {
	key, err := Fingerprint(req)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("connection pool is closed")
	}
	if c, ok := p.clients[key]; ok {
		return c, nil
	}

	c := req.Options.newHTTPClient()
	p.clients[key] = c
	p.logger.Debug("created client", "fingerprint", key[:12], "clients", len(p.clients))
	return c, nil
}

// Len returns the number of cached clients.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Close releases idle connections held by every cached client. The pool
// cannot be used afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, c := range p.clients {
		c.CloseIdleConnections()
		delete(p.clients, key)
	}
	p.closed = true
	return nil
}

type fingerprint struct {
	Endpoint   string
	Headers    [][2]string
	Username   string
	Secret     string
	TLSVerify  bool
	MaxRetries int
}

// Fingerprint computes the cache key for a request: its scheme and host,
// headers, credentials and transport options.
func Fingerprint(req *Request) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("invalid request url: %w", err)
	}

	fp := fingerprint{
		Endpoint:   u.Scheme + "://" + u.Host,
		MaxRetries: req.Options.MaxRetries,
		TLSVerify:  req.Options.TLSVerify == nil || *req.Options.TLSVerify,
	}
	for name, values := range req.Header {
		for _, v := range values {
			fp.Headers = append(fp.Headers, [2]string{http.CanonicalHeaderKey(name), v})
		}
	}
	sort.Slice(fp.Headers, func(i, j int) bool {
		if fp.Headers[i][0] != fp.Headers[j][0] {
			return fp.Headers[i][0] < fp.Headers[j][0]
		}
		return fp.Headers[i][1] < fp.Headers[j][1]
	})
	if req.Auth != nil {
		fp.Username = req.Auth.Username
		fp.Secret = req.Auth.Password + "\x00" + req.Auth.Token
	}

	b, err := json.Marshal(fp)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha1.Sum(b)), nil
}
