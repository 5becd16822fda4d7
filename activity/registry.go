package activity

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicate is returned when registering a name that is already bound.
// A duplicate registration indicates a defect in startup wiring.
var ErrDuplicate = errors.New("activity already registered")

// ErrNotFound is returned when resolving a name with no binding.
var ErrNotFound = errors.New("activity not registered")

// Registry binds activity names to capability handles.
//
// The registry is populated once at process start and is read-only
// afterwards. It has no knowledge of contexts; the enabled-activity
// policy is applied by the pipeline runner.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
	}
}

// Register binds a descriptor. Returns ErrDuplicate if the name is
// already bound, and an error for descriptors with no name or handle.
func (r *Registry) Register(desc Descriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("activity descriptor has no name")
	}
	if desc.Handle == nil {
		return fmt.Errorf("activity %q has no handle", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[desc.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, desc.Name)
	}
	r.descriptors[desc.Name] = desc
	return nil
}

// Resolve returns the descriptor bound to name, or ErrNotFound.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.descriptors[name]
	if !exists {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return desc, nil
}

// Has reports whether name is bound. It satisfies catalog.ActivitySet so
// context catalogs can be validated against the registry at load time.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.descriptors[name]
	return exists
}

// Names returns all bound activity names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
