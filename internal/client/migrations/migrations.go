// Package migrations embeds the goose migrations of both stores: the
// PostgreSQL metadata store and the local SQLite orphan journal.
package migrations

import "embed"

// Migrations holds the "postgres" and "sqlite" migration directories.
//
//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
