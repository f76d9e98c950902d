// Package container defines the dependency container the subscriptions
// provider registers into, along with an in-memory implementation used by
// the command line tool and tests.
package container

import (
	"sort"
	"sync"

	"github.com/spf13/viper"

	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
)

// Factory builds a value on resolution.
type Factory func(c Container) (any, error)

// Container is the host application's dependency container.
type Container interface {
	// Bind registers a factory that runs on every resolution.
	Bind(id string, factory Factory)
	// Singleton registers a factory that runs once; later resolutions share the value.
	Singleton(id string, factory Factory)
	// Make resolves an identifier.
	Make(id string) (any, error)
	// Bound reports whether an identifier is registered.
	Bound(id string) bool
	// IsProduction reports whether the host runs in production.
	IsProduction() bool
	// IsInteractive reports whether the host runs from a console.
	IsInteractive() bool
	// Config returns the host configuration.
	Config() *viper.Viper
}

type binding struct {
	factory  Factory
	shared   bool
	resolved bool
	instance any
}

// Registry is an in-memory Container.
type Registry struct {
	mu          sync.RWMutex
	bindings    map[string]*binding
	environment string
	interactive bool
	config      *viper.Viper
}

// Option configures a Registry.
type Option func(*Registry)

// WithEnvironment sets the environment name ("production", "local", ...).
func WithEnvironment(env string) Option {
	return func(r *Registry) {
		r.environment = env
	}
}

// WithInteractive marks the registry as running from a console.
func WithInteractive(interactive bool) Option {
	return func(r *Registry) {
		r.interactive = interactive
	}
}

// WithConfig sets the host configuration.
func WithConfig(cfg *viper.Viper) Option {
	return func(r *Registry) {
		if cfg != nil {
			r.config = cfg
		}
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		bindings:    make(map[string]*binding),
		environment: constants.DefaultEnvironment,
		config:      viper.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind implements Container. Rebinding an identifier replaces it.
func (r *Registry) Bind(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[id] = &binding{factory: factory}
}

// Singleton implements Container.
func (r *Registry) Singleton(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[id] = &binding{factory: factory, shared: true}
}

// Make implements Container.
func (r *Registry) Make(id string) (any, error) {
	r.mu.RLock()
	b, ok := r.bindings[id]
	if ok && b.shared && b.resolved {
		instance := b.instance
		r.mu.RUnlock()
		return instance, nil
	}
	r.mu.RUnlock()

	if !ok {
		return nil, errors.NewNotFoundError("binding", id)
	}

	instance, err := b.factory(r)
	if err != nil {
		return nil, errors.WrapResource("resolve", "binding", id, err)
	}

	if b.shared {
		r.mu.Lock()
		defer r.mu.Unlock()
		if b.resolved {
			return b.instance, nil
		}
		b.instance = instance
		b.resolved = true
	}
	return instance, nil
}

// Bound implements Container.
func (r *Registry) Bound(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[id]
	return ok
}

// IDs returns every bound identifier in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Environment returns the configured environment name.
func (r *Registry) Environment() string {
	return r.environment
}

// IsProduction implements Container.
func (r *Registry) IsProduction() bool {
	return r.environment == constants.EnvironmentProduction
}

// IsInteractive implements Container.
func (r *Registry) IsInteractive() bool {
	return r.interactive
}

// Config implements Container.
func (r *Registry) Config() *viper.Viper {
	return r.config
}

// MakeAs resolves id and asserts its type.
func MakeAs[T any](c Container, id string) (T, error) {
	var zero T
	v, err := c.Make(id)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.NewValidationError("binding", id, "resolved value has unexpected type")
	}
	return typed, nil
}
