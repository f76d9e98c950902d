package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhamedRadwan/subscriptions/internal/commands"
	pkgerrors "github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/migrate"
	"github.com/muhamedRadwan/subscriptions/pkg/publish"
)

type memStore struct {
	applied map[string]int
}

func (s *memStore) Ensure(context.Context) error { return nil }

func (s *memStore) Applied(context.Context) (map[string]int, error) {
	out := make(map[string]int, len(s.applied))
	for k, v := range s.applied {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Apply(_ context.Context, name string, batch int, _ string) error {
	s.applied[name] = batch
	return nil
}

func (s *memStore) Revert(_ context.Context, name string, _ string) error {
	delete(s.applied, name)
	return nil
}

type closeCounter struct{ closed int }

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

type fakeRuntime struct {
	registry  *publish.Registry
	publisher *publish.Publisher
	env       publish.Environment
	migrator  *migrate.Migrator
	store     *memStore
	closer    *closeCounter
	url       string
	openedURL string
}

func newFakeRuntime(t *testing.T) (*fakeRuntime, afero.Fs) {
	t.Helper()

	src := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(src, "config/config.yaml", []byte("autoload_migrations: true\n"), 0o644))
	for _, n := range []string{"2020_01_01_000001_create_plans_table", "2020_01_01_000002_create_plan_features_table"} {
		require.NoError(t, afero.WriteFile(src, "database/migrations/"+n+".up.sql", []byte("up"), 0o644))
		require.NoError(t, afero.WriteFile(src, "database/migrations/"+n+".down.sql", []byte("down"), 0o644))
	}
	host := afero.NewMemMapFs()

	registry := publish.NewRegistry()
	require.NoError(t, registry.Register(publish.NewConfigGroup("rinvex/subscriptions::config",
		src, "config/config.yaml", host, "config", "rinvex/subscriptions")))
	require.NoError(t, registry.Register(publish.NewMigrationGroup("rinvex/subscriptions::migrations",
		src, "database/migrations", host, "database/migrations/rinvex/laravel-subscriptions")))

	return &fakeRuntime{
		registry:  registry,
		publisher: publish.NewPublisher(),
		migrator:  migrate.New(nil, migrate.WithSource(src, "database/migrations")),
		store:     &memStore{applied: map[string]int{}},
		closer:    &closeCounter{},
		url:       "postgres://localhost/app",
	}, host
}

func (f *fakeRuntime) Tags() []string { return f.registry.Tags() }

func (f *fakeRuntime) Publish(ctx context.Context, opts publish.Options, selectors ...string) ([]*publish.Result, error) {
	return f.registry.Publish(ctx, f.publisher, f.env, opts, selectors...)
}

func (f *fakeRuntime) Migrator(context.Context) (*migrate.Migrator, error) { return f.migrator, nil }

func (f *fakeRuntime) OpenStore(_ context.Context, url string) (migrate.Store, io.Closer, error) {
	f.openedURL = url
	return f.store, f.closer, nil
}

func (f *fakeRuntime) DatabaseURL() string { return f.url }

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "subscriptions", SilenceUsage: true, SilenceErrors: true}
	root.AddGroup(&cobra.Group{ID: "core", Title: "Core"}, &cobra.Group{ID: "management", Title: "Management"})
	root.AddCommand(cmd)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{cmd.Name()}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewUnknownCommand(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	_, err := commands.New("seed", rt)
	assert.True(t, pkgerrors.IsNotFound(err))

	for _, name := range commands.Names() {
		cmd, err := commands.New(name, rt)
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestPublishCommand(t *testing.T) {
	rt, host := newFakeRuntime(t)

	out, err := run(t, commands.NewPublishCommand(rt), "--format", "json")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "rinvex/subscriptions::config", results[0]["tag"])

	exists, err := afero.Exists(host, "config/rinvex.subscriptions.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	files, err := afero.ReadDir(host, "database/migrations/rinvex/laravel-subscriptions")
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestPublishCommandDryRunAndTag(t *testing.T) {
	rt, host := newFakeRuntime(t)

	_, err := run(t, commands.NewPublishCommand(rt), "--dry-run", "--tag", "rinvex/subscriptions::config", "-o", "yaml")
	require.NoError(t, err)

	exists, err := afero.Exists(host, "config/rinvex.subscriptions.yaml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPublishCommandUnknownTag(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	_, err := run(t, commands.NewPublishCommand(rt), "--tag", "other::config")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestPublishCommandBadFormat(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	_, err := run(t, commands.NewPublishCommand(rt), "--format", "xml")
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestMigrateAndRollbackCommands(t *testing.T) {
	rt, _ := newFakeRuntime(t)

	out, err := run(t, commands.NewMigrateCommand(rt), "--pretend", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "2020_01_01_000001_create_plans_table")
	assert.Empty(t, rt.store.applied)

	_, err = run(t, commands.NewMigrateCommand(rt), "--database-url", "postgres://other/db", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "postgres://other/db", rt.openedURL)
	assert.Equal(t, map[string]int{
		"2020_01_01_000001_create_plans_table":         1,
		"2020_01_01_000002_create_plan_features_table": 1,
	}, rt.store.applied)

	out, err = run(t, commands.NewRollbackCommand(rt), "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/app", rt.openedURL)
	assert.Contains(t, out, "2020_01_01_000002_create_plan_features_table")
	assert.Empty(t, rt.store.applied)
	assert.Equal(t, 3, rt.closer.closed)
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	rt.url = ""

	_, err := run(t, commands.NewMigrateCommand(rt))
	var depErr *pkgerrors.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "database", depErr.Dependency)
}
