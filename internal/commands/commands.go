// Package commands provides the administrative commands a host exposes for
// the subscriptions package: publish, migrate and rollback.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/muhamedRadwan/subscriptions/internal/output"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/migrate"
	"github.com/muhamedRadwan/subscriptions/pkg/publish"
)

// Command names, also used for their container identifiers.
const (
	NameMigrate  = "migrate"
	NamePublish  = "publish"
	NameRollback = "rollback"
)

// Names returns every command name in registration order.
func Names() []string {
	return []string{NameMigrate, NamePublish, NameRollback}
}

// Runtime is what the commands need from the package provider.
type Runtime interface {
	// Tags returns the registered publish tags.
	Tags() []string
	// Publish runs the selected publish groups.
	Publish(ctx context.Context, opts publish.Options, selectors ...string) ([]*publish.Result, error)
	// Migrator returns the migration runner for the host.
	Migrator(ctx context.Context) (*migrate.Migrator, error)
	// OpenStore connects the migration bookkeeping store.
	OpenStore(ctx context.Context, databaseURL string) (migrate.Store, io.Closer, error)
	// DatabaseURL returns the configured database connection string.
	DatabaseURL() string
}

// New builds the named command.
func New(name string, rt Runtime) (*cobra.Command, error) {
	switch name {
	case NameMigrate:
		return NewMigrateCommand(rt), nil
	case NamePublish:
		return NewPublishCommand(rt), nil
	case NameRollback:
		return NewRollbackCommand(rt), nil
	default:
		return nil, errors.NewNotFoundError("command", name)
	}
}

// render writes table to the command's output, or raw when a structured
// format is requested.
func render(cmd *cobra.Command, format string, table output.Data, raw any) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	f = output.DetectFormat(string(f))

	data := raw
	if f == output.FormatTable {
		data = table
	}
	return output.NewFormatter(f).Format(cmd.OutOrStdout(), data)
}

// withStore attaches a connected store to the runtime's migrator and
// releases the connection when fn returns.
func withStore(ctx context.Context, rt Runtime, databaseURL string, fn func(*migrate.Migrator) error) error {
	if databaseURL == "" {
		databaseURL = rt.DatabaseURL()
	}
	if databaseURL == "" {
		return &errors.DependencyError{
			Dependency: "database",
			Message:    "no database URL configured (set DATABASE_URL or pass --database-url)",
		}
	}

	migrator, err := rt.Migrator(ctx)
	if err != nil {
		return err
	}

	store, closer, err := rt.OpenStore(ctx, databaseURL)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	migrator.SetStore(store)
	return fn(migrator)
}
