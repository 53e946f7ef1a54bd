// Package server initializes and runs the cvewatch server.
// It opens and migrates the store, seeds the first admin account, wires the
// feed client, archive and services, and runs the JSON API and metrics
// listeners until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/common"
	"github.com/dmitrijs2005/cvewatch/internal/logging"
	"github.com/dmitrijs2005/cvewatch/internal/server/archive"
	"github.com/dmitrijs2005/cvewatch/internal/server/config"
	"github.com/dmitrijs2005/cvewatch/internal/server/feed"
	"github.com/dmitrijs2005/cvewatch/internal/server/metrics"
	"github.com/dmitrijs2005/cvewatch/internal/server/services"
	"github.com/dmitrijs2005/cvewatch/internal/server/storage"
	"github.com/dmitrijs2005/cvewatch/internal/server/web"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  *storage.Store
	web    *web.Server
}

// NewApp builds every dependency. A store that stays unreachable yields a
// *storage.ConnectionError and no listener is ever started.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if c.SecretKey == "" {
		secret, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, err
		}
		c.SecretKey = secret
		logger.Warn(ctx, "no secret key configured; sessions will not survive a restart")
	}

	st, err := storage.Open(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	us := services.NewUserService(st.DB, st.Repos, c)
	created, err := us.SeedAdmin(ctx, c.AdminUsername, c.AdminPassword)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if created {
		logger.Warn(ctx, "seeded initial admin account; change its password", "username", c.AdminUsername)
	}

	arch, err := archive.New(ctx, c)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	fc := feed.NewClient(c.FeedBaseURL, c.FeedAPIKey, c.FeedTimeout, logger)
	is := services.NewIngestService(st.DB, st.Repos, fc, arch, logger)
	vs := services.NewVulnerabilityService(st.DB, st.Repos)
	settings := services.NewFeedSettings(c.FeedKeyword)

	ws := web.NewServer(c.HTTPAddr, logger, us, vs, is, settings, st.DB, c.SessionValidityDuration)

	return &App{config: c, logger: logger, store: st, web: ws}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.web.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	listen, err := net.Listen("tcp", app.config.MetricsAddr)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(context.Background(), "closing store", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
