package feature

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Flag is one feature flag.
type Flag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Enabled     bool   `yaml:"enabled"`
	// Environments limits an enabled flag to these deployments. Empty means
	// every deployment.
	Environments []string `yaml:"environments,omitempty"`
}

func (f Flag) enabledIn(env string) bool {
	return f.Enabled && (len(f.Environments) == 0 || slices.Contains(f.Environments, env))
}

// MemoryProvider holds flags in memory and evaluates them for the
// environment it was created for. Safe for concurrent use.
type MemoryProvider struct {
	env string

	mu    sync.RWMutex
	flags map[string]Flag
}

// NewMemoryProvider returns a provider for env seeded with flags.
func NewMemoryProvider(env string, flags ...Flag) (*MemoryProvider, error) {
	p := &MemoryProvider{env: env, flags: make(map[string]Flag, len(flags))}
	for _, f := range flags {
		if err := p.Set(f); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *MemoryProvider) IsEnabled(_ context.Context, name string) (bool, error) {
	p.mu.RLock()
	f, ok := p.flags[name]
	p.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("%w: %s", ErrFlagNotFound, name)
	}
	return f.enabledIn(p.env), nil
}

// Set adds or replaces a flag.
func (p *MemoryProvider) Set(f Flag) error {
	if f.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidFlag)
	}
	f.Environments = slices.Clone(f.Environments)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.flags[f.Name] = f
	return nil
}

// Names lists the known flags in order.
func (p *MemoryProvider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.flags))
}
