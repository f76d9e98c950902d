package app

import (
	"os"

	"github.com/spf13/viper"

	"github.com/muhamedRadwan/subscriptions/internal/config"
	"github.com/muhamedRadwan/subscriptions/pkg/constants"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Host application
	Environment string
	HostPath    string
	Package     string
	DatabaseURL string
	Override    bool

	// MetricsFile receives the run's counters in the Prometheus text format.
	MetricsFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (./.subscriptions.yaml or ~/.subscriptions.yaml)
//  5. Defaults
func LoadConfig() (*Config, *viper.Viper, error) {
	v, err := config.Load(config.DefaultLoadOptions())
	if err != nil {
		return nil, nil, err
	}
	return configFrom(v), v, nil
}

// configFrom builds a Config from v.
func configFrom(v *viper.Viper) *Config {
	v.SetDefault("app_env", constants.DefaultEnvironment)
	v.SetDefault("host_path", ".")
	v.SetDefault("package", constants.DefaultPackage)

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),

		ConfigFile: v.ConfigFileUsed(),

		Environment: v.GetString("app_env"),
		HostPath:    v.GetString("host_path"),
		Package:     v.GetString("package"),
		DatabaseURL: config.GetString(v, constants.KeyDatabaseURL),
		Override:    v.GetBool("publish_override"),
		MetricsFile: v.GetString("metrics_file"),

		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}
}

// UpdateFromFlags updates config values from parsed command flags.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
