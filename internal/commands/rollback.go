package commands

import (
	"github.com/spf13/cobra"

	"github.com/muhamedRadwan/subscriptions/internal/output"
	"github.com/muhamedRadwan/subscriptions/pkg/migrate"
)

// RollbackFlags holds the rollback command flags.
type RollbackFlags struct {
	DatabaseURL string
	All         bool
	Format      string
}

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rt Runtime) *cobra.Command {
	flags := &RollbackFlags{}

	cmd := &cobra.Command{
		Use:     "rollback",
		GroupID: "management",
		Short:   "Revert the last batch of subscription migrations",
		Example: `  subscriptions rollback         # Revert the last batch
  subscriptions rollback --all   # Revert every batch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			return withStore(ctx, rt, flags.DatabaseURL, func(m *migrate.Migrator) error {
				reverted, err := m.Rollback(ctx, flags.All)
				if len(reverted) > 0 {
					if renderErr := render(cmd, flags.Format, output.NamesData("Rolled back", reverted), reverted); renderErr != nil && err == nil {
						err = renderErr
					}
				}
				return err
			})
		},
	}

	addDatabaseFlag(cmd, &flags.DatabaseURL)
	cmd.Flags().BoolVar(&flags.All, "all", false, "Revert every batch")
	cmd.Flags().StringVarP(&flags.Format, "format", "o", "",
		"Output format: table, json, yaml")

	return cmd
}
