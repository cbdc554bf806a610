package ai

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ProviderFactory builds a Generator from a validated Config.
type ProviderFactory func(ctx context.Context, cfg *Config) (Generator, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

// RegisterProvider makes a provider available to NewGenerator. Provider
// packages call it from init. Registering a name twice panics.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("ai: RegisterProvider factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("ai: RegisterProvider called twice for " + name)
	}
	registry[name] = factory
}

// Providers returns the sorted names of registered providers.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewGenerator validates cfg, builds the configured provider and wraps it in
// a Guard.
func NewGenerator(ctx context.Context, cfg *Config) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownProvider, cfg.Provider, Providers())
	}

	gen, err := factory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewGuard(gen, cfg), nil
}
