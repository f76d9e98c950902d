// Package migrate applies and reverts the subscription schema migrations.
//
// A migration is a pair of files sharing a name:
//
//	2020_01_01_000001_create_plans_table.up.sql
//	2020_01_01_000001_create_plans_table.down.sql
//
// Migrations from every loaded source are applied in name order. Each Up run
// records its migrations under a new batch number so Rollback can revert the
// most recent run.
package migrate

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/logging"
	"github.com/muhamedRadwan/subscriptions/pkg/resources"
)

// Loader accepts migration sources. The provider hands bundled migrations to
// a Loader when autoloading is enabled.
type Loader interface {
	LoadMigrationsFrom(fs afero.Fs, dir string)
}

// Store records which migrations have been applied.
type Store interface {
	// Ensure creates the bookkeeping table when missing.
	Ensure(ctx context.Context) error
	// Applied returns the batch number of every applied migration.
	Applied(ctx context.Context) (map[string]int, error)
	// Apply runs script and records name under batch, atomically.
	Apply(ctx context.Context, name string, batch int, script string) error
	// Revert runs script and forgets name, atomically.
	Revert(ctx context.Context, name string, script string) error
}

// Observer receives the outcome of every migration step.
type Observer interface {
	ObserveMigration(direction, name string, err error)
}

// Source is a directory of migration files.
type Source struct {
	Fs  afero.Fs
	Dir string
}

// Migration is one named migration found in a source.
type Migration struct {
	Name   string
	Source Source
}

func (m Migration) upPath() string {
	return path.Join(m.Source.Dir, m.Name+constants.UpSuffix)
}

func (m Migration) downPath() string {
	return path.Join(m.Source.Dir, m.Name+constants.DownSuffix)
}

// Status pairs a migration name with its batch; batch 0 means pending.
type Status struct {
	Name  string `json:"migration" yaml:"migration"`
	Batch int    `json:"batch" yaml:"batch"`
}

// Applied reports whether the migration has run.
func (s Status) Applied() bool {
	return s.Batch > 0
}

// Migrator runs migrations against a Store.
type Migrator struct {
	mu       sync.RWMutex
	store    Store
	sources  []Source
	observer Observer
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithObserver reports every step to observer.
func WithObserver(observer Observer) Option {
	return func(m *Migrator) {
		m.observer = observer
	}
}

// WithSource adds a migration source.
func WithSource(fs afero.Fs, dir string) Option {
	return func(m *Migrator) {
		m.sources = append(m.sources, Source{Fs: fs, Dir: dir})
	}
}

// New creates a Migrator over store.
func New(store Store, opts ...Option) *Migrator {
	m := &Migrator{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadMigrationsFrom implements Loader.
func (m *Migrator) LoadMigrationsFrom(fs afero.Fs, dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, Source{Fs: fs, Dir: dir})
}

// Sources returns the loaded sources in load order.
func (m *Migrator) Sources() []Source {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Source, len(m.sources))
	copy(out, m.sources)
	return out
}

// SetStore replaces the store, for hosts that connect after loading sources.
func (m *Migrator) SetStore(store Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = store
}

// Migrations lists every migration of every source in name order. When two
// sources define the same name, the first loaded source wins.
func (m *Migrator) Migrations() ([]Migration, error) {
	seen := make(map[string]bool)
	var out []Migration

	for _, src := range m.Sources() {
		idx, err := resources.ScanOrEmpty(src.Fs, src.Dir, "*"+constants.UpSuffix, resources.KindMigration)
		if err != nil {
			return nil, err
		}
		for _, f := range idx.Files() {
			name := strings.TrimSuffix(f.Basename, constants.UpSuffix)
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, Migration{Name: name, Source: src})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Status lists every known or applied migration with its batch.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	store, err := m.ready(ctx)
	if err != nil {
		return nil, err
	}
	all, err := m.Migrations()
	if err != nil {
		return nil, err
	}
	applied, err := store.Applied(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(all))
	out := make([]Status, 0, len(all))
	for _, mig := range all {
		seen[mig.Name] = true
		out = append(out, Status{Name: mig.Name, Batch: applied[mig.Name]})
	}
	for name, batch := range applied {
		if !seen[name] {
			out = append(out, Status{Name: name, Batch: batch})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Pending lists the migrations not yet applied, in name order.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	store, err := m.ready(ctx)
	if err != nil {
		return nil, err
	}
	return m.pending(ctx, store)
}

func (m *Migrator) pending(ctx context.Context, store Store) ([]Migration, error) {
	all, err := m.Migrations()
	if err != nil {
		return nil, err
	}
	applied, err := store.Applied(ctx)
	if err != nil {
		return nil, err
	}

	var out []Migration
	for _, mig := range all {
		if _, ok := applied[mig.Name]; !ok {
			out = append(out, mig)
		}
	}
	return out, nil
}

// Up applies every pending migration as one new batch and returns the
// applied names. It stops at the first failure.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	logger := logging.FromContext(ctx)

	store, err := m.ready(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := m.pending(ctx, store)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		logger.Info().Msg("Nothing to migrate")
		return nil, nil
	}

	applied, err := store.Applied(ctx)
	if err != nil {
		return nil, err
	}
	batch := lastBatch(applied) + 1

	var done []string
	for _, mig := range pending {
		if err := ctx.Err(); err != nil {
			return done, errors.Join(errors.ErrCanceled, err)
		}

		migCtx := logging.WithMigration(ctx, mig.Name)
		script, err := afero.ReadFile(mig.Source.Fs, mig.upPath())
		if err == nil {
			err = store.Apply(migCtx, mig.Name, batch, string(script))
		}
		m.observe("up", mig.Name, err)
		if err != nil {
			logging.FromContext(logging.WithError(migCtx, err)).Error().Int("batch", batch).Msg("Migration failed")
			return done, errors.NewMigrationError("up", mig.Name, err)
		}

		logging.FromContext(migCtx).Info().Int("batch", batch).Msg("Migrated")
		done = append(done, mig.Name)
	}
	return done, nil
}

// Rollback reverts the most recent batch, or every batch when all is set,
// newest migration first. It returns the reverted names.
func (m *Migrator) Rollback(ctx context.Context, all bool) ([]string, error) {
	logger := logging.FromContext(ctx)

	store, err := m.ready(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := store.Applied(ctx)
	if err != nil {
		return nil, err
	}
	last := lastBatch(applied)
	if last == 0 {
		logger.Info().Msg("Nothing to rollback")
		return nil, nil
	}

	targets := make([]Status, 0, len(applied))
	for name, batch := range applied {
		if all || batch == last {
			targets = append(targets, Status{Name: name, Batch: batch})
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Batch != targets[j].Batch {
			return targets[i].Batch > targets[j].Batch
		}
		return targets[i].Name > targets[j].Name
	})

	known, err := m.Migrations()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Migration, len(known))
	for _, mig := range known {
		byName[mig.Name] = mig
	}

	var done []string
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return done, errors.Join(errors.ErrCanceled, err)
		}

		mig, ok := byName[target.Name]
		if !ok {
			err := errors.NewNotFoundError("migration", target.Name)
			m.observe("down", target.Name, err)
			return done, errors.NewMigrationError("down", target.Name, err)
		}

		migCtx := logging.WithMigration(ctx, mig.Name)
		script, err := afero.ReadFile(mig.Source.Fs, mig.downPath())
		if err != nil {
			err = errors.NewNotFoundError("down migration", mig.downPath())
		} else {
			err = store.Revert(migCtx, mig.Name, string(script))
		}
		m.observe("down", mig.Name, err)
		if err != nil {
			logging.FromContext(logging.WithError(migCtx, err)).Error().Int("batch", target.Batch).Msg("Rollback failed")
			return done, errors.NewMigrationError("down", mig.Name, err)
		}

		logging.FromContext(migCtx).Info().Int("batch", target.Batch).Msg("Rolled back")
		done = append(done, mig.Name)
	}
	return done, nil
}

func (m *Migrator) ready(ctx context.Context) (Store, error) {
	m.mu.RLock()
	store := m.store
	m.mu.RUnlock()

	if store == nil {
		return nil, &errors.DependencyError{Dependency: "migration store", Message: "no database configured"}
	}
	if err := store.Ensure(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (m *Migrator) observe(direction, name string, err error) {
	if m.observer != nil {
		m.observer.ObserveMigration(direction, name, err)
	}
}

func lastBatch(applied map[string]int) int {
	last := 0
	for _, b := range applied {
		if b > last {
			last = b
		}
	}
	return last
}
