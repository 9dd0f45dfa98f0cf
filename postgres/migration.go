package postgres

import (
	"embed"

	internalpg "github.com/get-eventually/booking/internal/postgres"
)

//go:embed migrations/*.sql
var fs embed.FS

// MigrationsTable is the table used to keep track of the Event Store migrations,
// separate from the default 'schema_migrations' to avoid clashing with other
// components migrating the same database.
const MigrationsTable = "booking_eventstore_migrations"

// RunMigrations runs the latest migrations for the events and snapshots tables.
//
// Make sure to run these in the entrypoint of your application, ideally
// before building a postgres interface implementation.
func RunMigrations(dsn string) error {
	return internalpg.RunMigrations(dsn, fs, "migrations", MigrationsTable)
}
