package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cvewatch/internal/dbx"
	"github.com/dmitrijs2005/cvewatch/internal/logging"
	"github.com/dmitrijs2005/cvewatch/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver  string
		want    dbx.Dialect
		wantErr bool
	}{
		{"pgx", dbx.Postgres, false},
		{"postgres", dbx.Postgres, false},
		{"sqlite", dbx.SQLite, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := DialectFor(tt.driver)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnect_RetriesThenSucceeds(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectPing()

	err = connect(context.Background(), db, 5, time.Millisecond, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnect_ExhaustsAttempts(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	origPing := pingContext
	defer func() { pingContext = origPing }()

	calls := 0
	var gaps []time.Duration
	last := time.Now()
	pingContext = func(ctx context.Context, db *sql.DB) error {
		now := time.Now()
		if calls > 0 {
			gaps = append(gaps, now.Sub(last))
		}
		last = now
		calls++
		return errors.New("refused")
	}

	err = connect(context.Background(), db, 4, 5*time.Millisecond, logging.Discard())

	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 4, cerr.Attempts)
	assert.Equal(t, 4, calls)
	assert.EqualError(t, cerr.Err, "refused")
	assert.Contains(t, err.Error(), "after 4 attempts")

	// waits grow as 1, 2, 4 units
	require.Len(t, gaps, 3)
	assert.GreaterOrEqual(t, gaps[0], 5*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[1], 10*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[2], 20*time.Millisecond)
}

func TestConnect_SingleAttempt(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	origPing := pingContext
	defer func() { pingContext = origPing }()

	calls := 0
	pingContext = func(ctx context.Context, db *sql.DB) error {
		calls++
		return errors.New("refused")
	}

	err = connect(context.Background(), db, 0, 0, logging.Discard())
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, calls)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDriver = "oracle"

	_, err := Open(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}

func TestOpen_OpenError(t *testing.T) {
	origOpen := openDB
	defer func() { openDB = origOpen }()
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		return nil, errors.New("bad dsn")
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()

	_, err := Open(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db open error")
}

func TestOpen_UnreachableReturnsConnectionError(t *testing.T) {
	origPing := pingContext
	defer func() { pingContext = origPing }()
	pingContext = func(ctx context.Context, db *sql.DB) error { return errors.New("refused") }

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = "file:storage_unreachable?mode=memory&cache=shared"
	cfg.DBConnectAttempts = 2
	cfg.DBConnectUnit = time.Millisecond

	_, err := Open(context.Background(), cfg, logging.Discard())
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Attempts)
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = "file:storage_open?mode=memory&cache=shared"
	cfg.DBConnectUnit = time.Millisecond

	ctx := context.Background()
	s, err := Open(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, dbx.SQLite, s.Dialect)

	n, err := s.Repos.Vulnerabilities(s.DB).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Repos.Users(s.DB).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
