package commands

import (
	"github.com/spf13/cobra"

	"github.com/muhamedRadwan/subscriptions/internal/output"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/logging"
	"github.com/muhamedRadwan/subscriptions/pkg/publish"
)

// PublishFlags holds the publish command flags.
type PublishFlags struct {
	Tags   []string
	Force  bool
	DryRun bool
	Format string
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rt Runtime) *cobra.Command {
	flags := &PublishFlags{}

	cmd := &cobra.Command{
		Use:     "publish",
		GroupID: "core",
		Short:   "Publish package configuration and migrations into the host",
		Long: `Publish copies the package resources into the host application.

Configuration is written to config/<namespace>.yaml. Migrations are copied
into the host migrations directory; a migration already published under any
sequence is reused, new ones get a fresh timestamp sequence.

Existing files are left untouched unless --force is given.`,
		Example: `  subscriptions publish                                    # Publish everything
  subscriptions publish --tag rinvex/subscriptions::config # Only the config file
  subscriptions publish --dry-run                          # Show the plan
  subscriptions publish --force                            # Overwrite existing files`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)

			results, err := rt.Publish(ctx, publish.Options{Force: flags.Force, DryRun: flags.DryRun}, flags.Tags...)
			if err != nil && len(results) == 0 {
				return err
			}

			if renderErr := render(cmd, flags.Format, output.PublishData(results), results); renderErr != nil {
				return renderErr
			}

			var failures []error
			for _, r := range results {
				if r.Suppressed {
					logger.Warn().Str("tag", r.Tag).Msg("Publishing is not permitted in this environment")
				}
				if rerr := r.Err(); rerr != nil {
					failures = append(failures, rerr)
				}
			}
			return errors.Join(append(failures, err)...)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.Tags, "tag", "t", nil,
		"Publish only the given tags (repeatable; a namespace selects all of its tags)")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false,
		"Overwrite files that already exist")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Show the plan without writing files")
	cmd.Flags().StringVarP(&flags.Format, "format", "o", "",
		"Output format: table, json, yaml")

	_ = cmd.RegisterFlagCompletionFunc("tag", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return rt.Tags(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
