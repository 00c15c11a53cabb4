package operation

import (
	"strings"
	"sync"
)

// Registry maps operation names to operations. Names are case-insensitive
// and unique; registration order is kept for listing.
type Registry struct {
	mu    sync.RWMutex
	ops   map[string]Operation
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ops: make(map[string]Operation),
	}
}

// Register adds op under its name. A name that is already present is
// rejected with *DuplicateOperationError.
func (r *Registry) Register(op Operation) error {
	if op == nil {
		return ErrInvalidName
	}
	name := normalize(op.Name())
	if name == "" {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[name]; exists {
		return &DuplicateOperationError{Name: name}
	}
	r.ops[name] = op
	r.order = append(r.order, name)
	return nil
}

// Resolve returns the operation registered under name.
func (r *Registry) Resolve(name string) (Operation, error) {
	key := normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.ops[key]
	if !ok {
		return nil, &UnknownOperationError{Name: key}
	}
	return op, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ops[normalize(name)]
	return ok
}

// List returns the registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Operations returns the registered operations in registration order.
func (r *Registry) Operations() []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]Operation, 0, len(r.order))
	for _, name := range r.order {
		ops = append(ops, r.ops[name])
	}
	return ops
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
