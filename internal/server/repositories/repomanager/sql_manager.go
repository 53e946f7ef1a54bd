// Package repomanager provides a concrete RepositoryManager for the SQL
// dialects the server supports, wiring together repository constructors and
// database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cvewatch/internal/dbx"
	"github.com/dmitrijs2005/cvewatch/internal/server/migrations"
	"github.com/dmitrijs2005/cvewatch/internal/server/repositories/users"
	"github.com/dmitrijs2005/cvewatch/internal/server/repositories/vulnerabilities"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends dialect-aware repository implementations and
// exposes a schema migration hook.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

// Vulnerabilities returns a vulnerabilities.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Vulnerabilities(db dbx.DBTX) vulnerabilities.Repository {
	return vulnerabilities.NewSQLRepository(db, m.dialect)
}

// Dialect reports the SQL dialect the manager was built for.
func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection. Applied versions are recorded in
// goose's version table, so a second run is a no-op.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gooseDialect(m.dialect)); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

func gooseDialect(d dbx.Dialect) string {
	if d == dbx.SQLite {
		return "sqlite3"
	}
	return "pgx"
}

// NewSQLRepositoryManager constructs a RepositoryManager for dialect.
func NewSQLRepositoryManager(dialect dbx.Dialect) (*SQLRepositoryManager, error) {
	switch dialect {
	case dbx.Postgres, dbx.SQLite:
		return &SQLRepositoryManager{dialect: dialect}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
