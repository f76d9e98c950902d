// Package main provides the entry point for the subscriptions CLI tool.
package main

import (
	"context"
	"os"
	"time"

	"github.com/muhamedRadwan/subscriptions/cmd/subscriptions/app"
	"github.com/muhamedRadwan/subscriptions/pkg/logging"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	err = application.Execute(ctx, os.Args[1:])

	// The signal context may already be cancelled; flush with a fresh one.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if shutdownErr := application.Shutdown(shutdownCtx); shutdownErr != nil {
		logging.Err(shutdownErr).Msg("Shutdown error")
	}

	app.ExitOnError(err)
}
