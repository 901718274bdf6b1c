// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package pgstore

import (
	"database/sql"

	"github.com/rubenv/sql-migrate"
)

// This file maintains the database migration code.  See
// https://github.com/rubenv/sql-migrate for details of what goes in
// here.  This runs "outside" the normal archive flow, either at
// initial startup or from an external tool.

var migrationSource = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-digest-snapshot",
			Up: []string{`
CREATE TABLE digest_snapshot (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	version TEXT NOT NULL,
	generated TEXT NOT NULL,
	saved_at TIMESTAMP WITH TIME ZONE NOT NULL,
	data BYTEA NOT NULL
)`,
				`CREATE INDEX digest_snapshot_identity
ON digest_snapshot(name, version)`,
			},
			Down: []string{
				"DROP INDEX digest_snapshot_identity",
				"DROP TABLE digest_snapshot",
			},
		},
	},
}

// Upgrade upgrades a database to the latest database schema version.
func Upgrade(db *sql.DB) error {
	_, err := migrate.Exec(db, "postgres", migrationSource, migrate.Up)
	return err
}

// Drop clears a database by running all of the migrations in reverse,
// ultimately resulting in dropping all of the tables.
func Drop(db *sql.DB) error {
	_, err := migrate.Exec(db, "postgres", migrationSource, migrate.Down)
	return err
}
