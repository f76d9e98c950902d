// Package app provides the application context and dependency management
// for the subscriptions CLI. It centralizes configuration, logging, the
// dependency container and the package provider.
package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/muhamedRadwan/subscriptions"
	"github.com/muhamedRadwan/subscriptions/pkg/container"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/metrics"
)

// App represents the subscriptions application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config
	viper  *viper.Viper

	// Logger
	logger *zerolog.Logger

	// Metrics for the current run
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Provider wiring (lazy-initialized, singleton)
	mu        sync.Mutex
	container *container.Registry
	provider  *subscriptions.Provider
	extra     []subscriptions.Option
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:  version,
		commit:   commit,
		date:     date,
		builtBy:  builtBy,
		registry: prometheus.NewRegistry(),
	}
	app.metrics = metrics.New(app.registry)

	config, v, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config
	app.viper = v

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Metrics returns the registry collecting this run's counters.
func (a *App) Metrics() *prometheus.Registry {
	return a.registry
}

// Container returns the dependency container, creating it lazily.
// The CLI always runs from a console.
func (a *App) Container() *container.Registry {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.container == nil {
		a.container = container.New(
			container.WithEnvironment(a.config.Environment),
			container.WithInteractive(true),
			container.WithConfig(a.viper),
		)
	}
	return a.container
}

// Provider returns the subscriptions provider, creating it lazily.
func (a *App) Provider() (*subscriptions.Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.provider != nil {
		return a.provider, nil
	}

	opts := []subscriptions.Option{
		subscriptions.WithOverride(a.config.Override),
		subscriptions.WithMetrics(a.metrics),
	}
	if a.config.Package != "" {
		opts = append(opts, subscriptions.WithPackage(a.config.Package))
	}
	if a.config.HostPath != "" {
		opts = append(opts, subscriptions.WithHostRoot(a.config.HostPath))
	}
	p, err := subscriptions.New(append(opts, a.extra...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "provider", a.config.Package, err)
	}
	a.provider = p
	return p, nil
}

// Shutdown flushes the run's metrics when a metrics file is configured.
func (a *App) Shutdown(_ context.Context) error {
	if a.config.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.config.MetricsFile, a.registry); err != nil {
		return errors.WrapIO("write", a.config.MetricsFile, err)
	}
	a.logger.Debug().Str("file", a.config.MetricsFile).Msg("Wrote metrics")
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithViper sets the configuration store shared with the container.
func WithViper(v *viper.Viper) Option {
	return func(a *App) error {
		a.viper = v
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithProviderOptions adds provider options, applied after the configured
// ones (useful for testing).
func WithProviderOptions(opts ...subscriptions.Option) Option {
	return func(a *App) error {
		a.extra = append(a.extra, opts...)
		return nil
	}
}
