package constants_test

import (
	"context"
	"fmt"
	"path"

	"github.com/muhamedRadwan/subscriptions/pkg/constants"
)

// Example demonstrates the host paths derived from the package name.
func Example() {
	pkg := constants.DefaultPackage

	fmt.Println(path.Join(constants.HostMigrationsDir, pkg))
	fmt.Printf("Created dir with %o permissions\n", constants.DirPermissions)
	fmt.Printf("Created file with %o permissions\n", constants.FilePermissions)
	// Output:
	// database/migrations/rinvex/laravel-subscriptions
	// Created dir with 755 permissions
	// Created file with 644 permissions
}

// Example_sequence shows how a migration basename splits into its sequence.
func Example_sequence() {
	basename := "2020_01_01_000001_create_plans_table.up.sql"

	fmt.Println(basename[:constants.SequenceWidth])
	fmt.Println(basename[constants.SequenceWidth-constants.OffsetDigits : constants.SequenceWidth])
	// Output:
	// 2020_01_01_000001
	// 000001
}

// Example_timeouts demonstrates timeout constants.
func Example_timeouts() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseConnectTimeout)
	defer cancel()

	_, ok := ctx.Deadline()
	fmt.Printf("Connect timeout: %v (deadline set: %v)\n", constants.DatabaseConnectTimeout, ok)
	fmt.Printf("Migration timeout: %v\n", constants.MigrationTimeout)
	fmt.Printf("Command timeout: %v\n", constants.CommandTimeout)

	// Output:
	// Connect timeout: 10s (deadline set: true)
	// Migration timeout: 2m0s
	// Command timeout: 10m0s
}
