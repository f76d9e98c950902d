package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.NewConfigError("database", "database URL is required", nil)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, constants.DatabaseConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// SQLStore keeps migration bookkeeping in a PostgreSQL table.
type SQLStore struct {
	db    *sql.DB
	table string
}

// NewSQLStore creates a store using table, or the default table when empty.
func NewSQLStore(db *sql.DB, table string) *SQLStore {
	if table == "" {
		table = constants.DefaultMigrationsTable
	}
	return &SQLStore{db: db, table: pq.QuoteIdentifier(table)}
}

// Ensure implements Store.
func (s *SQLStore) Ensure(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         SERIAL PRIMARY KEY,
		migration  VARCHAR(255) NOT NULL UNIQUE,
		batch      INTEGER NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, s.table))
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	return nil
}

// Applied implements Store.
func (s *SQLStore) Applied(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT migration, batch FROM %s`, s.table))
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			batch int
		)
		if err := rows.Scan(&name, &batch); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		applied[name] = batch
	}
	return applied, rows.Err()
}

// Apply implements Store.
func (s *SQLStore) Apply(ctx context.Context, name string, batch int, script string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, script); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (migration, batch) VALUES ($1, $2)`, s.table), name, batch)
		if err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		return nil
	})
}

// Revert implements Store.
func (s *SQLStore) Revert(ctx context.Context, name string, script string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, script); err != nil {
			return fmt.Errorf("exec rollback %s: %w", name, err)
		}
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE migration = $1`, s.table), name)
		if err != nil {
			return fmt.Errorf("forget migration %s: %w", name, err)
		}
		return nil
	})
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, constants.MigrationTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
