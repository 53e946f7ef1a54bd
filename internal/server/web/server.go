// Package web exposes the JSON HTTP API: login, ingestion, keyword changes
// and the vulnerability views.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/logging"
	"github.com/dmitrijs2005/cvewatch/internal/server/auth"
	"github.com/dmitrijs2005/cvewatch/internal/server/models"
	"github.com/dmitrijs2005/cvewatch/internal/server/services"
	"github.com/gorilla/mux"
)

type UserService interface {
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	Register(ctx context.Context, username, password string, isAdmin bool) (*models.User, error)
	Authenticate(token string) (*auth.Claims, error)
}

type VulnerabilityService interface {
	Search(ctx context.Context, column, term string) ([][]string, error)
	Sorted(ctx context.Context, column string) ([][]string, error)
	All(ctx context.Context) ([][]string, error)
	Get(ctx context.Context, id string) (*models.Vulnerability, error)
}

type Ingester interface {
	Run(ctx context.Context, keyword string) (services.IngestSummary, error)
}

type KeywordSettings interface {
	Keyword() string
	SetKeyword(k string)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

const shutdownTimeout = 10 * time.Second

type Server struct {
	address    string
	router     *mux.Router
	users      UserService
	vulns      VulnerabilityService
	ingester   Ingester
	settings   KeywordSettings
	db         Pinger
	logger     logging.Logger
	sessionTTL time.Duration
}

func NewServer(a string, l logging.Logger, us UserService, vs VulnerabilityService, in Ingester,
	ks KeywordSettings, db Pinger, sessionTTL time.Duration) *Server {

	s := &Server{
		address:    a,
		router:     mux.NewRouter(),
		users:      us,
		vulns:      vs,
		ingester:   in,
		settings:   ks,
		db:         db,
		logger:     l.With("module", "http_server"),
		sessionTTL: sessionTTL,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestID, s.accessLog, s.countRequests)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	s.router.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	s.router.Handle("/ingest", s.admin(s.handleIngest)).Methods(http.MethodPost)
	s.router.Handle("/keyword", s.user(s.handleGetKeyword)).Methods(http.MethodGet)
	s.router.Handle("/keyword", s.admin(s.handleSetKeyword)).Methods(http.MethodPost)
	s.router.Handle("/users", s.admin(s.handleCreateUser)).Methods(http.MethodPost)

	s.router.Handle("/search", s.user(s.handleSearch)).Methods(http.MethodPost)
	s.router.Handle("/sort/{column}", s.user(s.handleSort)).Methods(http.MethodGet)
	s.router.Handle("/cves", s.user(s.handleList)).Methods(http.MethodGet)
	s.router.Handle("/cves/{id}", s.user(s.handleGet)).Methods(http.MethodGet)
}

// Handler returns the routed API with all middleware applied.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
