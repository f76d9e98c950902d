package commands

import (
	"github.com/spf13/cobra"

	"github.com/muhamedRadwan/subscriptions/internal/output"
	"github.com/muhamedRadwan/subscriptions/pkg/migrate"
)

// MigrateFlags holds the migrate command flags.
type MigrateFlags struct {
	DatabaseURL string
	Pretend     bool
	Format      string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rt Runtime) *cobra.Command {
	flags := &MigrateFlags{}

	cmd := &cobra.Command{
		Use:     "migrate",
		GroupID: "management",
		Short:   "Apply pending subscription migrations",
		Long: `Migrate applies every pending subscription migration as one batch.

Migrations published into the host are used when present; otherwise the
bundled migrations are used when autoloading is enabled.`,
		Example: `  subscriptions migrate
  subscriptions migrate --pretend
  subscriptions migrate --database-url postgres://localhost/app?sslmode=disable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			return withStore(ctx, rt, flags.DatabaseURL, func(m *migrate.Migrator) error {
				if flags.Pretend {
					pending, err := m.Pending(ctx)
					if err != nil {
						return err
					}
					names := make([]string, 0, len(pending))
					for _, p := range pending {
						names = append(names, p.Name)
					}
					return render(cmd, flags.Format, output.NamesData("Pending", names), names)
				}

				applied, err := m.Up(ctx)
				if len(applied) > 0 {
					if renderErr := render(cmd, flags.Format, output.NamesData("Migrated", applied), applied); renderErr != nil && err == nil {
						err = renderErr
					}
				}
				return err
			})
		},
	}

	addDatabaseFlag(cmd, &flags.DatabaseURL)
	cmd.Flags().BoolVar(&flags.Pretend, "pretend", false,
		"List pending migrations without applying them")
	cmd.Flags().StringVarP(&flags.Format, "format", "o", "",
		"Output format: table, json, yaml")

	return cmd
}

func addDatabaseFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "database-url", "",
		"Database connection URL (default from DATABASE_URL)")
}
