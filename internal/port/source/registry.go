package source

import (
	"fmt"
	"sync"

	"github.com/benchwise/toolrec/internal/config"
)

// Factory is a constructor function that creates a new Adapter instance.
type Factory func(cfg *config.Config) (Adapter, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a source adapter factory available by name.
// It is typically called from an init() function in the adapter package.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("source: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// New creates a new Adapter by name using the registered factory.
func New(name string, cfg *config.Config) (Adapter, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("source: unknown source %q", name)
	}
	return factory(cfg)
}

// Available returns the names of all registered sources.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
