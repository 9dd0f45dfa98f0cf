// Package sqlite contains the Event Store and Snapshot Store implementations
// for embedded SQLite databases, using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var fs embed.FS

// MigrationsTable is the table used to keep track of the applied migrations.
const MigrationsTable = "booking_eventstore_migrations"

// Open opens the SQLite database at path and applies the embedded migrations.
//
// The returned database uses a single connection: SQLite allows one writer
// at a time, and serializing the appends makes the version check inside
// the append transaction authoritative.
func Open(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite.Open: storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: failed to open database, %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: failed to ping database, %w", err)
	}

	if err := RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// RunMigrations runs the latest migrations for the events and snapshots tables.
func RunMigrations(db *sql.DB) error {
	wrapErr := func(err error, msg string) error {
		return fmt.Errorf("sqlite.RunMigrations: %s, %w", msg, err)
	}

	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return wrapErr(err, "failed to create new iofs driver for reading migrations")
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		return wrapErr(err, "failed to create migrate database driver")
	}

	// NOTE: m.Close() is not called, as it would close the database as well.
	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return wrapErr(err, "failed to create new migrate instance")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return wrapErr(err, "failed to execute migrations")
	}

	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(v int64) time.Time { return time.Unix(0, v).UTC() }
