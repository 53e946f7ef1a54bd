// Package storage opens the relational store used by the server: it picks the
// driver, waits for the database with a bounded exponential retry and applies
// the embedded schema migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/dbx"
	"github.com/dmitrijs2005/cvewatch/internal/logging"
	"github.com/dmitrijs2005/cvewatch/internal/server/config"
	"github.com/dmitrijs2005/cvewatch/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

// ConnectionError is returned when the store stayed unreachable for every
// allowed attempt. The process cannot continue without it.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Store bundles the open connection pool with the repositories for its dialect.
type Store struct {
	DB      *sql.DB
	Dialect dbx.Dialect
	Repos   *repomanager.SQLRepositoryManager
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// seams for tests
var (
	openDB      = sql.Open
	pingContext = func(ctx context.Context, db *sql.DB) error { return db.PingContext(ctx) }
)

// DialectFor maps a database/sql driver name onto the query dialect.
func DialectFor(driver string) (dbx.Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return dbx.Postgres, nil
	case "sqlite":
		return dbx.SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects to the configured database and migrates it. Connection
// failures are retried DBConnectAttempts times in total; the wait before
// retry n (counting from 0) is 2^n * DBConnectUnit.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Store, error) {
	logger = logger.With("module", "storage")

	dialect, err := DialectFor(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	driver := cfg.DatabaseDriver
	if driver == "postgres" {
		driver = "pgx"
	}

	db, err := openDB(driver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if dialect == dbx.SQLite {
		// a single connection keeps in-memory databases shared and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	if err := connect(ctx, db, cfg.DBConnectAttempts, cfg.DBConnectUnit, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	repos, err := repomanager.NewSQLRepositoryManager(dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	logger.Info(ctx, "database ready", "driver", driver)
	return &Store{DB: db, Dialect: dialect, Repos: repos}, nil
}

func connect(ctx context.Context, db *sql.DB, attempts int, unit time.Duration, logger logging.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	if unit <= 0 {
		unit = time.Millisecond
	}

	b := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(unit))

	attempt := 0
	var lastErr error
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := pingContext(ctx, db); err != nil {
			lastErr = err
			logger.Warn(ctx, "database ping failed", "attempt", attempt, "of", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return &ConnectionError{Attempts: attempt, Err: lastErr}
	}
	return nil
}
