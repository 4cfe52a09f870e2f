// Package repomanager opens the two databases the document manager talks
// to, runs their embedded goose migrations and vends repositories over them.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/dealroom/internal/client/migrations"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/documents"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/orphans"
	"github.com/dmitrijs2005/dealroom/internal/dbx"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Documents(db dbx.DBTX) documents.Repository
	Orphans(db dbx.DBTX) orphans.Repository
}

// Manager vends the PostgreSQL metadata repository and the SQLite orphan
// journal, and migrates either schema.
type Manager struct {
	// Dialect is "pgx" for the metadata store or "sqlite3" for the journal.
	Dialect string
}

func (m *Manager) Documents(db dbx.DBTX) documents.Repository {
	return documents.NewPostgresRepository(db)
}

func (m *Manager) Orphans(db dbx.DBTX) orphans.Repository {
	return orphans.NewSQLiteRepository(db)
}

// seams for tests
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	sqlOpen = sql.Open
)

func (m *Manager) RunMigrations(ctx context.Context, db *sql.DB) error {
	dir := migrations.PostgresDir
	if m.Dialect == "sqlite3" {
		dir = migrations.SQLiteDir
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.Dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, dir)
}

// OpenMetadata connects to the PostgreSQL metadata store. Migrations run
// only when migrate is set: the table normally belongs to the hosting
// application.
func OpenMetadata(ctx context.Context, dsn string, migrate bool) (*sql.DB, documents.Repository, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open metadata store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping metadata store: %w", err)
	}

	m := &Manager{Dialect: "pgx"}
	if migrate {
		if err := m.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate metadata store: %w", err)
		}
	}
	return db, m.Documents(db), nil
}

// OpenJournal opens (creating if needed) the local SQLite orphan journal.
func OpenJournal(ctx context.Context, dsn string) (*sql.DB, orphans.Repository, error) {
	db, err := sqlOpen("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open orphan journal: %w", err)
	}

	m := &Manager{Dialect: "sqlite3"}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate orphan journal: %w", err)
	}
	return db, m.Orphans(db), nil
}
