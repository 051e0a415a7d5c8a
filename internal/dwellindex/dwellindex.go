// Package dwellindex implements the optional sqlite-backed dwell-index
// store (SPEC_FULL.md §DOMAIN-4): a mirror of the dwell sink's own
// parquet dwell-index table, for callers doing random-access lookups of
// "which file has dwell key K" without scanning parquet. Grounded on the
// teacher's internal/repository stack: sqlx for queries, go-sqlite3 as
// the driver wrapped by sqlhooks for query-duration logging (the
// teacher's sql.Register("sqlite3WithHooks", sqlhooks.Wrap(...))
// pattern), squirrel to build the lookup query, and golang-migrate with
// source/iofs over an embedded migrations directory for the one-table
// schema.
package dwellindex

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/AFMC-MAJCOM/bipconv/internal/sink"
	"github.com/AFMC-MAJCOM/bipconv/pkg/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

var driverRegistered = false

// loggingHooks times every query, mirroring the teacher's query-duration
// logging hook without pulling in its cclog dependency.
type loggingHooks struct{}

func (loggingHooks) Before(ctx context.Context, query string, args ...any) (context.Context, error) {
	return context.WithValue(ctx, startTimeKey{}, time.Now()), nil
}

func (loggingHooks) After(ctx context.Context, query string, args ...any) (context.Context, error) {
	if start, ok := ctx.Value(startTimeKey{}).(time.Time); ok {
		log.Debugf("dwellindex: query took %s: %s", time.Since(start), query)
	}
	return ctx, nil
}

type startTimeKey struct{}

// Store is a sqlite-backed dwell-index table, additive to the dwell
// sink's own parquet table (§DOMAIN-4 is explicit that this backend
// never replaces it).
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) a sqlite dwell-index database at path
// and runs its migrations. The driver is registered once per process as
// "sqlite3WithHooks", the teacher's exact pattern for wrapping a driver
// with query-duration logging.
func Open(path string) (*Store, error) {
	if !driverRegistered {
		sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, loggingHooks{}))
		driverRegistered = true
	}

	db, err := sqlx.Open("sqlite3WithHooks", path)
	if err != nil {
		return nil, fmt.Errorf("dwellindex: open %q: %w", path, err)
	}

	if err := runMigrations(path); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func runMigrations(path string) error {
	srcDriver, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("dwellindex: load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", srcDriver, "sqlite3://"+path)
	if err != nil {
		return fmt.Errorf("dwellindex: migrate: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("dwellindex: run migrations: %w", err)
	}
	return nil
}

// InsertDwellIndexRow implements sink.DwellIndexBackend.
func (s *Store) InsertDwellIndexRow(row sink.DwellIndexRow) error {
	query, args, err := sq.Insert("dwell_index").
		Columns("dwell_key", "file_name", "first_record_index").
		Values(row.Key, row.FileName, row.FirstRecordIndex).
		ToSql()
	if err != nil {
		return fmt.Errorf("dwellindex: build insert: %w", err)
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("dwellindex: insert row: %w", err)
	}
	return nil
}

// Lookup returns the file name(s) recorded for a dwell key.
func (s *Store) Lookup(key string) ([]string, error) {
	query, args, err := sq.Select("file_name").
		From("dwell_index").
		Where(sq.Eq{"dwell_key": key}).
		OrderBy("first_record_index").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("dwellindex: build select: %w", err)
	}
	var files []string
	if err := s.db.Select(&files, query, args...); err != nil {
		return nil, fmt.Errorf("dwellindex: lookup %q: %w", key, err)
	}
	return files, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
