package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"dario.cat/mergo"
)

// Wildcard is the catch-all hostmask. Every Store has an entry for it.
const Wildcard = "*"

// Well-known configuration keys.
const (
	KeyAuth              = "auth"
	KeyHeaders           = "headers"
	KeyNamespace         = "namespace"
	KeyAdapter           = "adapter"
	KeyRequestOptions    = "request_options"
	KeyDefaultAttributes = "default_attributes"
)

// identityKeys hold values that are never merged key-wise, even when they are maps.
var identityKeys = map[string]bool{
	KeyNamespace: true,
	KeyAdapter:   true,
}

// Store is a hostmask-scoped key/value configuration. Values are stored under
// hostmasks like "api.example.com", "api.example.com:8443", "*.example.com" or
// "*", and looked up by URL, preferring the most specific matching hostmask.
//
// Store is safe for concurrent use. Resources clone the store they inherit so
// that later mutations never leak back to the parent.
type Store struct {
	mu  sync.RWMutex
	cfg map[string]map[string]any
}

// New creates an empty Store containing only the wildcard hostmask.
func New() *Store {
	return NewFrom(nil)
}

// NewFrom creates a Store from an existing mask -> key -> value mapping. The
// mapping is copied, and hostmasks are lowercased.
func NewFrom(m map[string]map[string]any) *Store {
	s := &Store{cfg: make(map[string]map[string]any, len(m)+1)}
	for mask, sub := range m {
		s.cfg[normalizeMask(mask)] = copySubconfig(sub)
	}
	if _, ok := s.cfg[Wildcard]; !ok {
		s.cfg[Wildcard] = map[string]any{}
	}
	return s
}

// Get returns the value stored for exactly the given hostmask and key.
func (s *Store) Get(mask, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.cfg[normalizeMask(mask)]
	if !ok {
		return nil, false
	}
	v, ok := sub[key]
	return v, ok
}

// Set stores a value for the given hostmask and key. Hostmasks are case
// insensitive.
func (s *Store) Set(mask, key string, value any) {
	mask = normalizeMask(mask)

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.cfg[mask]
	if !ok {
		sub = map[string]any{}
		s.cfg[mask] = sub
	}
	sub[key] = value
}

// Delete removes a key from the given hostmask.
func (s *Store) Delete(mask, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.cfg[normalizeMask(mask)]; ok {
		delete(sub, key)
	}
}

// GetForURL returns the best matching value for the given URL and key. An
// empty URL matches only the wildcard hostmask.
func (s *Store) GetForURL(rawURL, key string) (any, error) {
	sub, err := s.SubconfigForURL(rawURL)
	if err != nil {
		return nil, err
	}
	return sub[key], nil
}

// SetForURL stores a value under the hostmask derived from the URL's host,
// including the port when the URL names one explicitly.
func (s *Store) SetForURL(rawURL, key string, value any) error {
	host, port, err := hostPort(rawURL)
	if err != nil {
		return err
	}
	if port != "" {
		host += ":" + port
	}
	s.Set(host, key, value)
	return nil
}

// Masks returns the hostmasks present in the store, sorted.
func (s *Store) Masks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	masks := make([]string, 0, len(s.cfg))
	for mask := range s.cfg {
		masks = append(masks, mask)
	}
	sort.Strings(masks)
	return masks
}

// Subconfig returns a copy of the key/value mapping stored under mask.
func (s *Store) Subconfig(mask string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copySubconfig(s.cfg[normalizeMask(mask)])
}

// SubconfigForURL merges every hostmask matching the URL into one mapping.
// Less specific masks are applied first so the most specific value wins.
func (s *Store) SubconfigForURL(rawURL string) (map[string]any, error) {
	masks, err := s.MatchingMasks(rawURL)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(masks) == 1 {
		return copySubconfig(s.cfg[masks[0]]), nil
	}

	merged := map[string]any{}
	for i := len(masks) - 1; i >= 0; i-- {
		for k, v := range s.cfg[masks[i]] {
			merged[k] = v
		}
	}
	return merged, nil
}

// MatchingMasks returns the hostmasks in the store that match the URL, best
// match first.
func (s *Store) MatchingMasks(rawURL string) ([]string, error) {
	s.mu.RLock()
	single := len(s.cfg) == 1
	s.mu.RUnlock()

	if rawURL == "" || single {
		return []string{Wildcard}, nil
	}

	host, port, err := hostPort(rawURL)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []string
	for _, mask := range CandidateMasks(host, port) {
		if _, ok := s.cfg[mask]; ok {
			matches = append(matches, mask)
		}
	}
	return matches, nil
}

// Clone returns a copy of the store. The mask and key levels are copied, as
// are slice and map values at any depth; any other value is shared.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return NewFrom(s.cfg)
}

// Merge returns a new store holding s overlaid with other. When both sides
// hold a map under the same hostmask and key, the maps are merged key-wise,
// except for identity keys (namespace, adapter) which are always replaced.
func (s *Store) Merge(other *Store) *Store {
	merged := s.Clone()
	if other == nil {
		return merged
	}

	other.mu.RLock()
	defer other.mu.RUnlock()

	for mask, sub := range other.cfg {
		dst, ok := merged.cfg[mask]
		if !ok {
			dst = map[string]any{}
			merged.cfg[mask] = dst
		}
		for key, v := range sub {
			dst[key] = mergeValue(key, dst[key], v)
		}
	}
	return merged
}

func mergeValue(key string, left, right any) any {
	if identityKeys[key] {
		return copyValue(right)
	}

	switch r := right.(type) {
	case map[string]any:
		if l, ok := left.(map[string]any); ok {
			dst := copyValue(l).(map[string]any)
			src := copyValue(r).(map[string]any)
			if err := mergo.Merge(&dst, src, mergo.WithOverride); err == nil {
				return dst
			}
		}
	case map[string]string:
		if l, ok := left.(map[string]string); ok {
			dst := copyValue(l).(map[string]string)
			if err := mergo.Merge(&dst, r, mergo.WithOverride); err == nil {
				return dst
			}
		}
	}
	return copyValue(right)
}

// CandidateMasks lists every hostmask that could match host (and port, when
// non-empty), most specific first:
//
//	host:port, host, *.parent(host), *.parent(parent(host)), ..., *
func CandidateMasks(host, port string) []string {
	host = strings.ToLower(host)

	var masks []string
	if port != "" {
		masks = append(masks, host+":"+port)
	}
	masks = append(masks, host)

	labels := strings.Split(host, ".")
	for len(labels) >= 2 {
		labels = labels[1:]
		masks = append(masks, "*."+strings.Join(labels, "."))
	}
	return append(masks, Wildcard)
}

// hostPort extracts the lowercased host and explicit port from a URL.
func hostPort(rawURL string) (host, port string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", &ConfigurationError{URL: rawURL, Err: err}
	}
	h := u.Hostname()
	if h == "" {
		return "", "", &ConfigurationError{URL: rawURL, Err: fmt.Errorf("url has no host")}
	}
	return strings.ToLower(h), u.Port(), nil
}

func normalizeMask(mask string) string {
	return strings.ToLower(strings.TrimSpace(mask))
}

func copySubconfig(sub map[string]any) map[string]any {
	out := make(map[string]any, len(sub))
	for k, v := range sub {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = copyValue(vv)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, vv := range t {
			out[k] = vv
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = copyValue(vv)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
