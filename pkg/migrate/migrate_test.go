package migrate_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhamedRadwan/subscriptions/internal/embedded"
	pkgerrors "github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/logging"
	"github.com/muhamedRadwan/subscriptions/pkg/migrate"
)

// memStore is an in-memory migrate.Store.
type memStore struct {
	mu      sync.Mutex
	applied map[string]int
	scripts []string
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{applied: make(map[string]int)}
}

func (s *memStore) Ensure(context.Context) error { return nil }

func (s *memStore) Applied(context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.applied))
	for k, v := range s.applied {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Apply(_ context.Context, name string, batch int, script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == s.failOn {
		return errors.New("syntax error")
	}
	s.applied[name] = batch
	s.scripts = append(s.scripts, script)
	return nil
}

func (s *memStore) Revert(_ context.Context, name string, script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.applied, name)
	s.scripts = append(s.scripts, script)
	return nil
}

type stepObserver struct {
	steps []string
}

func (o *stepObserver) ObserveMigration(direction, name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.steps = append(o.steps, direction+":"+name+":"+status)
}

func migrationsFs(t *testing.T, names ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, n := range names {
		require.NoError(t, afero.WriteFile(fs, "m/"+n+".up.sql", []byte("up "+n), 0o644))
		require.NoError(t, afero.WriteFile(fs, "m/"+n+".down.sql", []byte("down "+n), 0o644))
	}
	return fs
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	obs := &stepObserver{}
	fs := migrationsFs(t, "2020_01_01_000002_b", "2020_01_01_000001_a")
	m := migrate.New(store, migrate.WithSource(fs, "m"), migrate.WithObserver(obs))

	done, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020_01_01_000001_a", "2020_01_01_000002_b"}, done)
	assert.Equal(t, []string{"up 2020_01_01_000001_a", "up 2020_01_01_000002_b"}, store.scripts)
	assert.Equal(t, map[string]int{"2020_01_01_000001_a": 1, "2020_01_01_000002_b": 1}, store.applied)
	assert.Equal(t, []string{"up:2020_01_01_000001_a:ok", "up:2020_01_01_000002_b:ok"}, obs.steps)

	done, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestUpUsesNewBatch(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	fs := migrationsFs(t, "2020_01_01_000001_a")
	m := migrate.New(store, migrate.WithSource(fs, "m"))

	_, err := m.Up(ctx)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "m/2020_01_01_000002_b.up.sql", []byte("up b"), 0o644))
	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "2020_01_01_000002_b", pending[0].Name)

	_, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.applied["2020_01_01_000002_b"])

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []migrate.Status{
		{Name: "2020_01_01_000001_a", Batch: 1},
		{Name: "2020_01_01_000002_b", Batch: 2},
	}, status)
}

func TestUpStopsAtFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "2020_01_01_000002_b"
	fs := migrationsFs(t, "2020_01_01_000001_a", "2020_01_01_000002_b", "2020_01_01_000003_c")
	m := migrate.New(store, migrate.WithSource(fs, "m"))

	done, err := m.Up(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrMigrationFailed)
	assert.Equal(t, []string{"2020_01_01_000001_a"}, done)
	assert.NotContains(t, store.applied, "2020_01_01_000003_c")
}

func TestMigrationLogsCarryName(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	store := newMemStore()
	store.failOn = "2020_01_01_000002_b"
	fs := migrationsFs(t, "2020_01_01_000001_a", "2020_01_01_000002_b")
	m := migrate.New(store, migrate.WithSource(fs, "m"))

	_, err := m.Up(ctx)
	require.Error(t, err)

	tl.AssertContains(t, `"migration":"2020_01_01_000001_a"`)
	tl.AssertContains(t, `"migration":"2020_01_01_000002_b"`)
	tl.AssertContains(t, `"error":"syntax error"`)
	tl.AssertContains(t, "Migration failed")

	tl.Clear()
	done, err := m.Rollback(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020_01_01_000001_a"}, done)
	tl.AssertContains(t, `"migration":"2020_01_01_000001_a"`)
	tl.AssertContains(t, "Rolled back")
}

func TestRollback(t *testing.T) {
	ctx := context.Background()

	t.Run("last batch newest first", func(t *testing.T) {
		store := newMemStore()
		store.applied = map[string]int{
			"2020_01_01_000001_a": 1,
			"2020_01_01_000002_b": 2,
			"2020_01_01_000003_c": 2,
		}
		fs := migrationsFs(t, "2020_01_01_000001_a", "2020_01_01_000002_b", "2020_01_01_000003_c")
		m := migrate.New(store, migrate.WithSource(fs, "m"))

		done, err := m.Rollback(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"2020_01_01_000003_c", "2020_01_01_000002_b"}, done)
		assert.Equal(t, map[string]int{"2020_01_01_000001_a": 1}, store.applied)
	})

	t.Run("all batches", func(t *testing.T) {
		store := newMemStore()
		store.applied = map[string]int{"2020_01_01_000001_a": 1, "2020_01_01_000002_b": 2}
		fs := migrationsFs(t, "2020_01_01_000001_a", "2020_01_01_000002_b")
		m := migrate.New(store, migrate.WithSource(fs, "m"))

		done, err := m.Rollback(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"2020_01_01_000002_b", "2020_01_01_000001_a"}, done)
		assert.Empty(t, store.applied)
	})

	t.Run("nothing applied", func(t *testing.T) {
		m := migrate.New(newMemStore(), migrate.WithSource(migrationsFs(t), "m"))
		done, err := m.Rollback(ctx, false)
		require.NoError(t, err)
		assert.Empty(t, done)
	})

	t.Run("missing down file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "m/2020_01_01_000001_a.up.sql", []byte("up"), 0o644))
		store := newMemStore()
		store.applied = map[string]int{"2020_01_01_000001_a": 1}
		m := migrate.New(store, migrate.WithSource(fs, "m"))

		_, err := m.Rollback(ctx, false)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.Contains(t, store.applied, "2020_01_01_000001_a")
	})

	t.Run("unknown applied migration", func(t *testing.T) {
		store := newMemStore()
		store.applied = map[string]int{"2019_01_01_000001_gone": 1}
		m := migrate.New(store, migrate.WithSource(migrationsFs(t), "m"))

		_, err := m.Rollback(ctx, false)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestSources(t *testing.T) {
	first := migrationsFs(t, "2020_01_01_000001_a")
	second := migrationsFs(t, "2020_01_01_000001_a", "2020_01_01_000002_b")

	m := migrate.New(newMemStore())
	m.LoadMigrationsFrom(first, "m")
	m.LoadMigrationsFrom(second, "m")
	require.Len(t, m.Sources(), 2)

	all, err := m.Migrations()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Source.Fs == first)
	assert.Equal(t, "2020_01_01_000002_b", all[1].Name)
}

func TestBundledMigrations(t *testing.T) {
	m := migrate.New(newMemStore())
	m.LoadMigrationsFrom(embedded.Fs(), "database/migrations")

	all, err := m.Migrations()
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, mig := range all {
		names = append(names, mig.Name)
	}
	assert.Equal(t, []string{
		"2020_01_01_000001_create_plans_table",
		"2020_01_01_000002_create_plan_features_table",
		"2020_01_01_000003_create_plan_subscriptions_table",
		"2020_01_01_000004_create_plan_subscription_usage_table",
	}, names)
}

func TestNoStore(t *testing.T) {
	m := migrate.New(nil)
	_, err := m.Up(context.Background())
	var depErr *pkgerrors.DependencyError
	assert.ErrorAs(t, err, &depErr)
}
