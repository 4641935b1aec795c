package hyper

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Adapter names understood by the default adapter registry.
const (
	AdapterHAL   = "hal_json"
	AdapterSiren = "siren"
)

// Adapter implements a hypermedia wire format.
type Adapter interface {
	// Name identifies the adapter in configuration.
	Name() string

	// MediaType is sent as Accept and as Content-Type for request bodies.
	MediaType() string

	Serialize(attrs map[string]any) ([]byte, error)
	Deserialize(data []byte) (map[string]any, error)

	// Apply populates r from a deserialized body and marks it loaded.
	Apply(body map[string]any, r *Resource) error
}

// jsonCodec serializes JSON objects. Both bundled adapters embed it.
type jsonCodec struct{}

func (jsonCodec) Serialize(attrs map[string]any) ([]byte, error) {
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request body: %w", err)
	}
	return data, nil
}

func (jsonCodec) Deserialize(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to deserialize response body: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Message: fmt.Sprintf("response body must be an object, got %T", v)}
	}
	return m, nil
}

type adapterRegistry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func newAdapterRegistry() *adapterRegistry {
	reg := &adapterRegistry{adapters: map[string]Adapter{}}
	reg.register(HAL{})
	reg.register(Siren{})
	return reg
}

func (a *adapterRegistry) register(adapter Adapter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.adapters[adapter.Name()] = adapter
}

func (a *adapterRegistry) lookup(name string) (Adapter, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if adapter, ok := a.adapters[name]; ok {
		return adapter, nil
	}
	names := make([]string, 0, len(a.adapters))
	for n := range a.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown adapter %q, expected one of %v", name, names)
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
