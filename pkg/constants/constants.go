// Package constants provides shared constants used throughout the subscriptions codebase.
// This includes resource naming rules, file permissions, default paths and the
// configuration keys that must stay consistent between the provider and the CLI.
package constants

import "time"

// Resource naming constants
const (
	// SequenceWidth is the number of leading characters of a migration basename
	// that form its ordering sequence ("2020_01_01_000001").
	SequenceWidth = 17

	// OffsetDigits is the number of trailing sequence characters read as a
	// decimal offset in seconds when synthesizing a new sequence.
	OffsetDigits = 6

	// SequenceLayout is the time layout of a synthesized sequence.
	SequenceLayout = "2006_01_02_150405"

	// MigrationPattern matches every file of a migrations directory.
	MigrationPattern = "*.sql"

	// UpSuffix marks the forward half of a migration pair.
	UpSuffix = ".up.sql"

	// DownSuffix marks the reverse half of a migration pair.
	DownSuffix = ".down.sql"

	// ConfigExtension is the extension of a published configuration file.
	ConfigExtension = ".yaml"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Package defaults
const (
	// DefaultPackage is the vendor name of the bundled subscriptions package.
	DefaultPackage = "rinvex/laravel-subscriptions"

	// PackageNamePrefix is stripped from a package name to form its namespace.
	PackageNamePrefix = "laravel-"

	// BundledConfigFile is the configuration file inside the package source.
	BundledConfigFile = "config/config.yaml"

	// BundledMigrationsDir is the migrations directory inside the package source.
	BundledMigrationsDir = "database/migrations"

	// HostConfigDir is the host directory receiving published configuration.
	HostConfigDir = "config"

	// HostMigrationsDir is the host directory receiving published migrations.
	// The package name is appended to it.
	HostMigrationsDir = "database/migrations"

	// DefaultMigrationsTable records applied migrations.
	DefaultMigrationsTable = "subscriptions_migrations"
)

// Configuration keys, relative to the dotted package namespace
const (
	// KeyAutoloadMigrations enables loading bundled migrations without publishing.
	KeyAutoloadMigrations = "autoload_migrations"

	// KeyTables holds the table name overrides.
	KeyTables = "tables"

	// KeyMigrationsTable names the table recording applied migrations.
	KeyMigrationsTable = "migrations_table"

	// KeyDatabaseURL is the host-level database connection setting.
	KeyDatabaseURL = "database_url"
)

// Publish tag suffixes, appended to "<namespace>::"
const (
	// TagConfig selects the configuration publish group.
	TagConfig = "config"

	// TagMigrations selects the migrations publish group.
	TagMigrations = "migrations"
)

// Timeout constants
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// MigrationTimeout bounds a single migration statement.
	MigrationTimeout = 2 * time.Minute

	// DatabaseConnectTimeout bounds the initial database ping.
	DatabaseConnectTimeout = 10 * time.Second
)

// Environment names
const (
	// EnvironmentProduction is the environment name that closes the publish gate.
	EnvironmentProduction = "production"

	// DefaultEnvironment is used when no environment is configured.
	DefaultEnvironment = "local"
)
