// Package subscriptions bootstraps the subscriptions package inside a host
// application. A Provider registers the package's models and administrative
// commands in the host container, merges the package configuration into the
// host configuration, and makes the package resources publishable.
//
// Publishing copies the bundled configuration file and schema migrations into
// the host. A migration the host already has, under any sequence prefix, is
// reused; new migrations get a fresh timestamp sequence, so repeated
// publishing is idempotent.
//
// Example usage:
//
//	c := container.New(container.WithEnvironment("local"), container.WithInteractive(true))
//	root := &cobra.Command{Use: "app"}
//
//	p, err := subscriptions.New(subscriptions.WithHostRoot("/srv/app"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Register(c, root); err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Boot(ctx, c); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Publish everything the package offers
//	results, err := p.Publish(ctx, publish.Options{})
package subscriptions

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/muhamedRadwan/subscriptions/internal/commands"
	"github.com/muhamedRadwan/subscriptions/internal/config"
	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/container"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/logging"
	"github.com/muhamedRadwan/subscriptions/pkg/migrate"
	"github.com/muhamedRadwan/subscriptions/pkg/models"
	"github.com/muhamedRadwan/subscriptions/pkg/publish"
	"github.com/muhamedRadwan/subscriptions/pkg/resources"
)

// MigratorID is the container identifier of a host migration runner. When
// bound to a migrate.Loader, autoloaded migrations go there instead of the
// provider's own runner.
const MigratorID = "migrator"

// CommandRegistry receives the package commands. *cobra.Command satisfies it.
type CommandRegistry interface {
	AddCommand(cmds ...*cobra.Command)
}

// Provider wires the subscriptions package into a host application.
type Provider struct {
	opts      *options
	namespace string
	publisher *publish.Publisher
	registry  *publish.Registry
	migrator  *migrate.Migrator

	mu         sync.RWMutex
	container  container.Container
	autoloaded bool
}

// New creates a Provider.
func New(opts ...Option) (*Provider, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	var publisherOpts []publish.PublisherOption
	var migratorOpts []migrate.Option
	if o.clock != nil {
		publisherOpts = append(publisherOpts, publish.WithPlanner(publish.NewPlanner(publish.WithClock(o.clock))))
	}
	if o.metrics != nil {
		publisherOpts = append(publisherOpts, publish.WithObserver(o.metrics))
		migratorOpts = append(migratorOpts, migrate.WithObserver(o.metrics))
	}

	p := &Provider{
		opts:      o,
		namespace: Namespace(o.pkg),
		publisher: publish.NewPublisher(publisherOpts...),
		registry:  o.registry,
		migrator:  o.migrator,
	}
	if p.registry == nil {
		p.registry = publish.NewRegistry()
	}
	if p.migrator == nil {
		p.migrator = migrate.New(nil, migratorOpts...)
	}
	return p, nil
}

// Namespace derives the publish namespace of a package name by dropping the
// framework prefix: "rinvex/laravel-subscriptions" is "rinvex/subscriptions".
func Namespace(pkg string) string {
	return strings.ReplaceAll(pkg, constants.PackageNamePrefix, "")
}

// CommandID is the container identifier of a package command.
func CommandID(namespace, name string) string {
	return "command." + strings.ReplaceAll(namespace, "/", ".") + "." + name
}

// Package returns the vendor package name.
func (p *Provider) Package() string {
	return p.opts.pkg
}

// Namespace returns the publish namespace.
func (p *Provider) Namespace() string {
	return p.namespace
}

// ConfigTag returns the tag of the configuration publish group.
func (p *Provider) ConfigTag() string {
	return p.namespace + "::" + constants.TagConfig
}

// MigrationsTag returns the tag of the migrations publish group.
func (p *Provider) MigrationsTag() string {
	return p.namespace + "::" + constants.TagMigrations
}

// Register merges the package configuration into the host configuration,
// binds the package models and, when the host runs from a console, binds and
// adds the package commands to registry, which may be nil.
func (p *Provider) Register(c container.Container, registry CommandRegistry) error {
	if c == nil {
		return errors.NewValidationError("container", nil, "cannot be nil")
	}
	ctx := p.context(context.Background())
	logger := logging.FromContext(ctx)

	p.mu.Lock()
	p.container = c
	p.mu.Unlock()

	if err := p.mergeConfig(ctx, c); err != nil {
		return err
	}

	for _, def := range models.Definitions() {
		id := models.ID(p.namespace, def.Name)
		c.Bind(id, func(container.Container) (any, error) {
			return def.New(), nil
		})
		logger.Debug().Str("model", id).Msg("Bound model")
	}

	if !p.environment(c).CommandsPermitted() {
		logger.Debug().Msg("Skipping command registration outside the console")
		return nil
	}

	for _, name := range commands.Names() {
		id := CommandID(p.namespace, name)
		c.Singleton(id, func(container.Container) (any, error) {
			return commands.New(name, p)
		})

		cmd, err := container.MakeAs[*cobra.Command](c, id)
		if err != nil {
			return errors.WrapResource("register", "command", id, err)
		}
		if registry != nil {
			registry.AddCommand(cmd)
		}
		logger.Debug().Str("command", id).Msg("Registered command")
	}
	return nil
}

// Boot registers the publish groups and autoloads the bundled migrations.
// Both happen only when the environment permits publishing; autoloading also
// requires <namespace>.autoload_migrations. Boot may run more than once.
func (p *Provider) Boot(ctx context.Context, c container.Container) error {
	if c == nil {
		return errors.NewValidationError("container", nil, "cannot be nil")
	}
	ctx = p.context(ctx)
	logger := logging.FromContext(ctx)

	p.mu.Lock()
	p.container = c
	p.mu.Unlock()

	if !p.environment(c).Permits() {
		logger.Debug().Msg("Publishing not permitted in this environment")
		return nil
	}

	groups := []*publish.Group{
		publish.NewConfigGroup(p.ConfigTag(),
			p.opts.sourceFs, constants.BundledConfigFile,
			p.opts.hostFs, p.opts.configDir, p.namespace),
		publish.NewMigrationGroup(p.MigrationsTag(),
			p.opts.sourceFs, constants.BundledMigrationsDir,
			p.opts.hostFs, p.opts.migrationsDir),
	}
	for _, g := range groups {
		if err := p.registry.Register(g); err != nil && !errors.IsAlreadyExists(err) {
			return err
		}
	}

	if !config.Bool(c.Config(), config.Key(p.namespace, constants.KeyAutoloadMigrations)) {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.autoloaded {
		return nil
	}

	loader, err := p.loader(c)
	if err != nil {
		return err
	}
	loader.LoadMigrationsFrom(p.opts.sourceFs, constants.BundledMigrationsDir)
	p.autoloaded = true
	logger.Debug().Str("dir", constants.BundledMigrationsDir).Msg("Autoloaded migrations")
	return nil
}

// Tags returns the registered publish tags.
func (p *Provider) Tags() []string {
	return p.registry.Tags()
}

// Registry returns the publish registry.
func (p *Provider) Registry() *publish.Registry {
	return p.registry
}

// Publish runs the publish groups matching selectors, or every group when
// none are given. A closed environment gate yields suppressed results.
func (p *Provider) Publish(ctx context.Context, opts publish.Options, selectors ...string) ([]*publish.Result, error) {
	c, err := p.registered()
	if err != nil {
		return nil, err
	}
	return p.registry.Publish(p.context(ctx), p.publisher, p.environment(c), opts, selectors...)
}

// Migrator returns the runner for the host: the published migrations when
// the host has any, otherwise the provider's runner with its autoloaded
// sources.
func (p *Provider) Migrator(ctx context.Context) (*migrate.Migrator, error) {
	logger := logging.FromContext(p.context(ctx))

	idx, err := resources.ScanOrEmpty(p.opts.hostFs, p.opts.migrationsDir, "*"+constants.UpSuffix, resources.KindMigration)
	if err != nil {
		return nil, err
	}
	if idx.Len() == 0 {
		return p.migrator, nil
	}

	logger.Debug().Str("dir", p.opts.migrationsDir).Int("migrations", idx.Len()).Msg("Using published migrations")
	var opts []migrate.Option
	if p.opts.metrics != nil {
		opts = append(opts, migrate.WithObserver(p.opts.metrics))
	}
	opts = append(opts, migrate.WithSource(p.opts.hostFs, p.opts.migrationsDir))
	return migrate.New(nil, opts...), nil
}

// OpenStore connects to databaseURL and returns the bookkeeping store and
// the connection to close.
func (p *Provider) OpenStore(ctx context.Context, databaseURL string) (migrate.Store, io.Closer, error) {
	db, err := migrate.Open(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return migrate.NewSQLStore(db, p.migrationsTable()), db, nil
}

// DatabaseURL returns the host's database_url setting.
func (p *Provider) DatabaseURL() string {
	c, err := p.registered()
	if err != nil {
		return ""
	}
	return config.GetString(c.Config(), constants.KeyDatabaseURL)
}

func (p *Provider) migrationsTable() string {
	c, err := p.registered()
	if err != nil {
		return constants.DefaultMigrationsTable
	}
	if table := c.Config().GetString(config.Key(p.namespace, constants.KeyMigrationsTable)); table != "" {
		return table
	}
	return constants.DefaultMigrationsTable
}

// mergeConfig merges the bundled configuration under the namespace. A source
// without one contributes no defaults.
func (p *Provider) mergeConfig(ctx context.Context, c container.Container) error {
	exists, err := afero.Exists(p.opts.sourceFs, constants.BundledConfigFile)
	if err != nil {
		return errors.WrapIO("stat", constants.BundledConfigFile, err)
	}
	if !exists {
		logging.FromContext(ctx).Debug().Str("source", constants.BundledConfigFile).Msg("No bundled configuration to merge")
		return nil
	}

	data, err := afero.ReadFile(p.opts.sourceFs, constants.BundledConfigFile)
	if err != nil {
		return errors.WrapIO("read", constants.BundledConfigFile, err)
	}
	defaults, err := config.ParseDefaults(data, constants.BundledConfigFile)
	if err != nil {
		return err
	}
	_, err = config.MergeDefaults(c.Config(), p.namespace, defaults)
	return err
}

func (p *Provider) loader(c container.Container) (migrate.Loader, error) {
	if !c.Bound(MigratorID) {
		return p.migrator, nil
	}
	return container.MakeAs[migrate.Loader](c, MigratorID)
}

func (p *Provider) environment(c container.Container) publish.Environment {
	return publish.Environment{
		Production:  c.IsProduction(),
		Interactive: c.IsInteractive(),
		Override:    p.opts.override,
	}
}

func (p *Provider) registered() (container.Container, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.container == nil {
		return nil, &errors.DependencyError{Dependency: "container", Message: "provider is not registered"}
	}
	return p.container, nil
}

func (p *Provider) context(ctx context.Context) context.Context {
	if p.opts.logger != nil {
		ctx = logging.WithLogger(ctx, p.opts.logger)
	}
	return logging.WithPackage(ctx, p.opts.pkg)
}
