package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/logging"
	"github.com/dmitrijs2005/cvewatch/internal/server/config"
	"github.com/dmitrijs2005/cvewatch/internal/server/storage"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a migrated in-memory SQLite database private to t.
func newTestStore(t *testing.T) (*storage.Store, *config.Config) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	cfg.DBConnectUnit = time.Millisecond
	cfg.SecretKey = "test-secret"

	s, err := storage.Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, cfg
}
