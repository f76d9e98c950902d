package subscriptions

import (
	"path"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/muhamedRadwan/subscriptions/internal/embedded"
	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/metrics"
	"github.com/muhamedRadwan/subscriptions/pkg/migrate"
	"github.com/muhamedRadwan/subscriptions/pkg/publish"
)

// Option is a function that configures a Provider.
type Option func(*options) error

// options holds the Provider configuration.
type options struct {
	pkg string

	sourceFs      afero.Fs
	hostFs        afero.Fs
	configDir     string
	migrationsDir string

	clock    publish.Clock
	override bool
	logger   *zerolog.Logger
	metrics  *metrics.Metrics

	registry *publish.Registry
	migrator *migrate.Migrator
}

// defaults returns the default configuration: the embedded bundle published
// into the working directory.
func defaults() *options {
	return &options{
		pkg:       constants.DefaultPackage,
		sourceFs:  embedded.Fs(),
		hostFs:    afero.NewOsFs(),
		configDir: constants.HostConfigDir,
	}
}

// apply applies the given options.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.migrationsDir == "" {
		o.migrationsDir = path.Join(constants.HostMigrationsDir, o.pkg)
	}
	return o, nil
}

// WithPackage sets the vendor package name, e.g. "rinvex/laravel-subscriptions".
// The publish namespace is derived from it.
func WithPackage(name string) Option {
	return func(o *options) error {
		if name == "" {
			return errors.NewValidationError("package", name, "cannot be empty")
		}
		o.pkg = name
		return nil
	}
}

// WithSourceFs sets the filesystem holding the package resources:
// config/config.yaml and database/migrations. Either may be absent, in which
// case there is nothing to merge or publish for it.
func WithSourceFs(fs afero.Fs) Option {
	return func(o *options) error {
		if fs == nil {
			return errors.NewValidationError("source_fs", nil, "cannot be nil")
		}
		o.sourceFs = fs
		return nil
	}
}

// WithHostFs sets the filesystem of the host application.
func WithHostFs(fs afero.Fs) Option {
	return func(o *options) error {
		if fs == nil {
			return errors.NewValidationError("host_fs", nil, "cannot be nil")
		}
		o.hostFs = fs
		return nil
	}
}

// WithHostPaths sets the host directories receiving configuration and
// migrations. Empty values keep the defaults.
func WithHostPaths(configDir, migrationsDir string) Option {
	return func(o *options) error {
		if configDir != "" {
			o.configDir = configDir
		}
		if migrationsDir != "" {
			o.migrationsDir = migrationsDir
		}
		return nil
	}
}

// WithHostRoot roots the host filesystem at dir.
func WithHostRoot(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.NewValidationError("host_root", dir, "cannot be empty")
		}
		o.hostFs = afero.NewBasePathFs(afero.NewOsFs(), dir)
		return nil
	}
}

// WithClock sets the clock used to synthesize migration sequences.
func WithClock(clock publish.Clock) Option {
	return func(o *options) error {
		o.clock = clock
		return nil
	}
}

// WithOverride opens the environment gate regardless of the host mode.
func WithOverride(enabled bool) Option {
	return func(o *options) error {
		o.override = enabled
		return nil
	}
}

// WithLogger sets the logger attached to provider operations.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithMetrics reports publish runs and migration steps to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithPublishRegistry shares a publish registry with other providers.
func WithPublishRegistry(registry *publish.Registry) Option {
	return func(o *options) error {
		o.registry = registry
		return nil
	}
}

// WithMigrator sets the migration runner bundled migrations are loaded into.
func WithMigrator(m *migrate.Migrator) Option {
	return func(o *options) error {
		o.migrator = m
		return nil
	}
}
