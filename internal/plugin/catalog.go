// Package plugin discovers operation plugins and registers them with an
// operation.Registry.
//
// Built-in plugins register a Provider from their package init function and
// are enabled with a blank import, in the manner of database/sql drivers.
// Script plugins are Go source files under a plugin directory, interpreted
// at startup.
package plugin

import (
	"sync"

	"github.com/joss/calc/internal/operation"
)

// Factory constructs an operation. A factory may fail, for example when the
// plugin is misconfigured.
type Factory func() (operation.Operation, error)

// Provider is a named entry in the plugin catalog.
type Provider struct {
	Name    string
	Factory Factory
}

var (
	catalogMu sync.Mutex
	catalog   []Provider
)

// Register adds a provider to the catalog. It is meant to be called from
// init functions; collisions are reported during discovery, not here.
func Register(name string, factory Factory) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	catalog = append(catalog, Provider{Name: name, Factory: factory})
}

// RegisterFunc registers a plain function as a built-in operation.
func RegisterFunc(name, description string, fn func(a, b float64) (float64, error)) {
	Register(name, func() (operation.Operation, error) {
		return operation.NewFunc(name, description, fn), nil
	})
}

// Providers returns the catalog in registration order.
func Providers() []Provider {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	out := make([]Provider, len(catalog))
	copy(out, catalog)
	return out
}
