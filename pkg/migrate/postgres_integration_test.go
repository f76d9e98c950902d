package migrate_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/muhamedRadwan/subscriptions/internal/embedded"
	"github.com/muhamedRadwan/subscriptions/pkg/migrate"
)

// checkTestcontainersAvailable reports whether a container provider can be reached.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "subscriptions",
				"POSTGRES_PASSWORD": "subscriptions",
				"POSTGRES_DB":       "subscriptions",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://subscriptions:subscriptions@%s:%s/subscriptions?sslmode=disable", host, port.Port())
}

func TestSQLStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping postgres integration test: testcontainers provider not available")
	}

	ctx := context.Background()
	db, err := migrate.Open(ctx, startPostgres(t))
	require.NoError(t, err)
	defer db.Close()

	store := migrate.NewSQLStore(db, "")
	m := migrate.New(store, migrate.WithSource(embedded.Fs(), "database/migrations"))

	done, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Len(t, done, 4)

	var tables int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name LIKE 'plan%'`).Scan(&tables))
	assert.Equal(t, 4, tables)

	applied, err := store.Applied(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 4)
	for _, batch := range applied {
		assert.Equal(t, 1, batch)
	}

	reverted, err := m.Rollback(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "2020_01_01_000004_create_plan_subscription_usage_table", reverted[0])

	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name LIKE 'plan%'`).Scan(&tables))
	assert.Equal(t, 0, tables)
}
