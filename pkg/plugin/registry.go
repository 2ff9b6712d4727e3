package plugin

import (
	"fmt"
	"path"
	"sync"
)

// DefaultPatterns is the well-known pattern set used by LoadDefaults.
var DefaultPatterns = []string{"*"}

// Registry is the component-loader boundary of the orchestration core:
// an in-process catalogue of plugin factories. Plugin packages register
// themselves at init time; the orchestrator loads them by name pattern.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

type entry struct {
	descriptor Descriptor
	factory    Factory
	loaded     bool
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Default is the process-wide registry plugin packages register into.
var Default = NewRegistry()

// Register adds a plugin to the registry. The descriptor name must be
// unique; registration order is preserved and determines discovery
// order during scheduling.
func (r *Registry) Register(d Descriptor, f Factory) error {
	if d.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if f == nil {
		return fmt.Errorf("plugin %s: factory is required", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[d.Name]; exists {
		return fmt.Errorf("plugin %s already registered", d.Name)
	}

	r.entries[d.Name] = &entry{descriptor: d, factory: f}
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister is Register for package init blocks; it panics on error.
func MustRegister(d Descriptor, f Factory) {
	if err := Default.Register(d, f); err != nil {
		panic(err)
	}
}

// Parse returns the registered names matching the given glob patterns,
// in registration order, without loading anything.
func (r *Registry) Parse(patterns []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.match(patterns)
}

// Load marks every plugin matching the patterns as loaded and returns
// the matched names in registration order. Loading is idempotent.
func (r *Registry) Load(patterns []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := r.match(patterns)
	for _, name := range names {
		r.entries[name].loaded = true
	}
	return names
}

// Loaded returns the currently loaded plugin names in registration order.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, name := range r.order {
		if r.entries[name].loaded {
			names = append(names, name)
		}
	}
	return names
}

// Descriptor returns the descriptor for a registered plugin.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return e.descriptor, true
}

// New instantiates a plugin for one run, merging the supplied options
// against the plugin's declared option schema.
func (r *Registry) New(name string, opts Options) (Instance, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("plugin not registered: %s", name)
	}

	return e.factory(name, MergeOptions(e.descriptor.Options, opts)), nil
}

// ReleaseLoaded clears the loaded flag on every plugin. Registrations
// themselves survive; this is the loader half of the orchestrator's
// reset lifecycle.
func (r *Registry) ReleaseLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		e.loaded = false
	}
}

// match must be called with the lock held.
func (r *Registry) match(patterns []string) []string {
	var names []string
	for _, name := range r.order {
		for _, pattern := range patterns {
			if ok, err := path.Match(pattern, name); err == nil && ok {
				names = append(names, name)
				break
			}
		}
	}
	return names
}
