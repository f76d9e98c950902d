// Package config loads host configuration and merges package defaults into it.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/muhamedRadwan/subscriptions/pkg/errors"
)

// DefaultConfigName is the config file searched for when none is given.
const DefaultConfigName = ".subscriptions"

// LoadOptions control where configuration is read from.
type LoadOptions struct {
	// File is an explicit config file. When empty, DefaultConfigName is
	// searched for in SearchPaths.
	File string
	// SearchPaths are the directories searched for the default config file.
	SearchPaths []string
	// EnvFiles are dotenv files loaded before environment binding. Later
	// files do not override variables set by earlier ones.
	EnvFiles []string
}

// DefaultLoadOptions searches the working and home directories and loads
// .env and .env.local.
func DefaultLoadOptions() LoadOptions {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	return LoadOptions{
		SearchPaths: paths,
		EnvFiles:    []string{".env", ".env.local"},
	}
}

// Load builds a viper instance from config files, dotenv files and the
// environment. A missing default config file is not an error; a missing
// explicit file is.
func Load(opts LoadOptions) (*viper.Viper, error) {
	for _, f := range opts.EnvFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_", "/", "_"))

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "failed to read "+opts.File, err)
		}
		return v, nil
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	for _, p := range opts.SearchPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "failed to read config file", err)
		}
	}
	return v, nil
}

// GetString reads key from v, falling back to the raw environment variable.
func GetString(v *viper.Viper, key string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return os.Getenv(key)
}
