package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/logging"
)

// Execute runs the subscriptions CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd, err := a.createRootCommand()
	if err != nil {
		return err
	}
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:     "subscriptions",
		Short:   "Subscriptions package administration",
		Version: a.version,
		Long: `Subscriptions manages the subscriptions package inside a host application.

It publishes the package configuration and schema migrations into the host,
and applies or reverts those migrations against the host database.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is ./.subscriptions.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("subscriptions {{.Version}}\n")

	if err := a.registerCommands(rootCmd); err != nil {
		return nil, err
	}
	return rootCmd, nil
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	logLevel := mustGetString(cmd, "log-level")
	configFile := mustGetString(cmd, "config")

	a.config.UpdateFromFlags(verbose, quiet, noColor, logLevel)

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)

	if configFile != "" {
		a.viper.SetConfigFile(configFile)
		if err := a.viper.MergeInConfig(); err != nil {
			return errors.NewConfigError("config", "failed to read "+configFile, err)
		}
	}

	ctx := logging.WithLogger(cmd.Context(), a.logger)
	cmd.SetContext(ctx)

	p, err := a.Provider()
	if err != nil {
		return err
	}
	return p.Boot(ctx, a.Container())
}

// registerCommands registers the utility commands and the provider's commands.
func (a *App) registerCommands(rootCmd *cobra.Command) error {
	rootCmd.AddCommand(a.NewVersionCommand())

	p, err := a.Provider()
	if err != nil {
		return err
	}
	return p.Register(a.Container(), rootCmd)
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
