package adaptapi

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Data is a decoded JSON value: map[string]any, []any, string, json.Number,
// bool or nil.
type Data = any

// Direction tells which half of an adapter is running.
type Direction int

const (
	// DirectionUpgrade rewrites an old-version request into the latest shape
	DirectionUpgrade Direction = iota + 1
	// DirectionDowngrade rewrites a latest-shape response into an old version
	DirectionDowngrade
)

func (d Direction) String() string {
	switch d {
	case 0:
		return "transform"
	case DirectionUpgrade:
		return "upgrade"
	case DirectionDowngrade:
		return "downgrade"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// TransformFunc transforms one decoded body into another.
type TransformFunc func(Data) (Data, error)

// Adapter is one reversible version-compatibility step.
type Adapter interface {
	Upgrade(Data) (Data, error)
	Downgrade(Data) (Data, error)
}

// AdapterFuncs builds an Adapter from two functions. A nil function is the
// identity.
type AdapterFuncs struct {
	UpgradeFunc   TransformFunc
	DowngradeFunc TransformFunc
}

// Upgrade calls UpgradeFunc, or returns d unchanged when it is nil.
func (a AdapterFuncs) Upgrade(d Data) (Data, error) {
	if a.UpgradeFunc == nil {
		return d, nil
	}
	return a.UpgradeFunc(d)
}

// Downgrade calls DowngradeFunc, or returns d unchanged when it is nil.
func (a AdapterFuncs) Downgrade(d Data) (Data, error) {
	if a.DowngradeFunc == nil {
		return d, nil
	}
	return a.DowngradeFunc(d)
}

// Identity leaves bodies untouched in both directions.
var Identity Adapter = AdapterFuncs{}

// Registry maps adapter names used in configuration to their implementations.
// Populate it at startup; lookups after that are read-only.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under name.
func (r *Registry) Register(name string, adapter Adapter) error {
	if name == "" {
		return errors.New("adaptapi: adapter name cannot be empty")
	}
	if adapter == nil {
		return fmt.Errorf("adaptapi: adapter %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateAdapter, name)
	}
	r.adapters[name] = adapter
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, adapter Adapter) *Registry {
	if err := r.Register(name, adapter); err != nil {
		panic(err)
	}
	return r
}

// RegisterFuncs registers an adapter built from an upgrade/downgrade pair.
func (r *Registry) RegisterFuncs(name string, upgrade, downgrade TransformFunc) error {
	return r.Register(name, AdapterFuncs{UpgradeFunc: upgrade, DowngradeFunc: downgrade})
}

// Lookup returns the adapter registered under name.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
