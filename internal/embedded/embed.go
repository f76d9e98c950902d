// Package embedded holds the resources bundled with the subscriptions package:
// the default configuration and the schema migrations that hosts publish or autoload.
package embedded

import (
	"embed"
	"io/fs"

	"github.com/spf13/afero"
)

// FS embeds the package configuration and migrations at build time.
//
//go:embed config/*.yaml database/migrations/*.sql
var FS embed.FS

// Fs returns the bundle as a read-only afero filesystem rooted at the package root.
func Fs() afero.Fs {
	return afero.NewReadOnlyFs(afero.FromIOFS{FS: FS})
}

// ConfigYAML returns the raw bundled configuration.
func ConfigYAML() ([]byte, error) {
	return fs.ReadFile(FS, "config/config.yaml")
}
