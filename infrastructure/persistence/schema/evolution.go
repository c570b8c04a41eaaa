// Package schema applies versioned SQL migrations and records them in a
// schema_version table.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// SchemaVersion is one applied migration as recorded in schema_version.
type SchemaVersion struct {
	Version     int
	Description string
	AppliedAt   time.Time
}

// Migration moves the schema from FromVersion to ToVersion. Down is
// optional; without it the step cannot be rolled back.
type Migration struct {
	FromVersion int
	ToVersion   int
	Description string
	Up          string
	Down        string
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const (
	createVersionTable = `CREATE TABLE IF NOT EXISTS schema_version (
	version     INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at  TEXT NOT NULL
)`
	selectVersion = `SELECT COALESCE(MAX(version), 0) FROM schema_version`
	insertVersion = `INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)`
	deleteVersion = `DELETE FROM schema_version WHERE version = ?`
	selectHistory = `SELECT version, description, applied_at FROM schema_version ORDER BY version`
)

// SchemaEvolution manages the migrations of one database
type SchemaEvolution struct {
	db         *sql.DB
	migrations []Migration
	now        func() time.Time
}

// NewSchemaEvolution creates a migration manager for db
func NewSchemaEvolution(db *sql.DB) *SchemaEvolution {
	return &SchemaEvolution{db: db, now: time.Now}
}

// RegisterMigration registers a single step migration
func (s *SchemaEvolution) RegisterMigration(m Migration) error {
	if m.ToVersion != m.FromVersion+1 {
		return fmt.Errorf("invalid migration %d->%d: steps must advance by one", m.FromVersion, m.ToVersion)
	}
	if s.find(m.FromVersion, m.ToVersion) != nil {
		return fmt.Errorf("migration from %d to %d already exists", m.FromVersion, m.ToVersion)
	}
	s.migrations = append(s.migrations, m)
	sort.Slice(s.migrations, func(i, j int) bool { return s.migrations[i].ToVersion < s.migrations[j].ToVersion })
	return nil
}

// Latest is the highest version a registered migration reaches.
func (s *SchemaEvolution) Latest() int {
	if len(s.migrations) == 0 {
		return 0
	}
	return s.migrations[len(s.migrations)-1].ToVersion
}

// CurrentVersion reads the applied version. A fresh database is at 0.
func (s *SchemaEvolution) CurrentVersion(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx, createVersionTable); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v int
	if err := s.db.QueryRowContext(ctx, selectVersion).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Migrate moves the schema to target, forwards or backwards. The whole path
// must be registered before any step runs. Each step runs in its own
// transaction together with its version row.
func (s *SchemaEvolution) Migrate(ctx context.Context, target int) error {
	current, err := s.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	steps, err := s.path(current, target)
	if err != nil {
		return err
	}
	for _, m := range steps {
		if current < target {
			if err := s.step(ctx, m.Up, func(tx Execer) error {
				_, err := tx.ExecContext(ctx, insertVersion, m.ToVersion, m.Description, s.now().UTC().Format(time.RFC3339))
				return err
			}); err != nil {
				return fmt.Errorf("migration %d->%d failed: %w", m.FromVersion, m.ToVersion, err)
			}
			continue
		}
		if err := s.step(ctx, m.Down, func(tx Execer) error {
			_, err := tx.ExecContext(ctx, deleteVersion, m.ToVersion)
			return err
		}); err != nil {
			return fmt.Errorf("rollback %d->%d failed: %w", m.ToVersion, m.FromVersion, err)
		}
	}
	return nil
}

// path lists the steps from current to target in run order.
func (s *SchemaEvolution) path(current, target int) ([]*Migration, error) {
	var steps []*Migration
	for v := current; v < target; v++ {
		m := s.find(v, v+1)
		if m == nil {
			return nil, fmt.Errorf("no migration found from version %d to %d", v, v+1)
		}
		steps = append(steps, m)
	}
	for v := current; v > target; v-- {
		m := s.find(v-1, v)
		if m == nil || m.Down == "" {
			return nil, fmt.Errorf("migration %d->%d does not support rollback", v-1, v)
		}
		steps = append(steps, m)
	}
	return steps, nil
}

func (s *SchemaEvolution) step(ctx context.Context, ddl string, record func(Execer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return errors.Join(err, rollback(tx))
	}
	if err := record(tx); err != nil {
		return errors.Join(err, rollback(tx))
	}
	return tx.Commit()
}

func rollback(tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (s *SchemaEvolution) find(from, to int) *Migration {
	for i := range s.migrations {
		if s.migrations[i].FromVersion == from && s.migrations[i].ToVersion == to {
			return &s.migrations[i]
		}
	}
	return nil
}

// GetHistory returns the applied migrations in version order
func (s *SchemaEvolution) GetHistory(ctx context.Context) ([]SchemaVersion, error) {
	rows, err := s.db.QueryContext(ctx, selectHistory)
	if err != nil {
		return nil, fmt.Errorf("read schema history: %w", err)
	}
	defer rows.Close()

	var out []SchemaVersion
	for rows.Next() {
		var v SchemaVersion
		var at string
		if err := rows.Scan(&v.Version, &v.Description, &at); err != nil {
			return nil, err
		}
		if v.AppliedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("schema version %d: bad applied_at %q: %w", v.Version, at, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
