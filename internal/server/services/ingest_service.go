package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/cvewatch/internal/logging"
	"github.com/dmitrijs2005/cvewatch/internal/server/archive"
	"github.com/dmitrijs2005/cvewatch/internal/server/feed"
	"github.com/dmitrijs2005/cvewatch/internal/server/metrics"
	"github.com/dmitrijs2005/cvewatch/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Fetcher retrieves one feed response.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string) (*feed.Result, error)
}

// IngestService runs fetch, archive and ingest as one synchronous run.
type IngestService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	fetcher     Fetcher
	archiver    archive.Archiver
	logger      logging.Logger
}

func NewIngestService(db *sql.DB, m repomanager.RepositoryManager, f Fetcher, a archive.Archiver, logger logging.Logger) *IngestService {
	if a == nil {
		a = archive.Noop{}
	}
	return &IngestService{
		db:          db,
		repomanager: m,
		fetcher:     f,
		archiver:    a,
		logger:      logger.With("module", "ingest"),
	}
}

// Run fetches with keyword and stores the result. A fetch failure is returned
// as is and nothing is written.
func (s *IngestService) Run(ctx context.Context, keyword string) (IngestSummary, error) {
	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "keyword", keyword)

	start := time.Now()
	res, err := s.fetcher.Fetch(ctx, keyword)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IngestRuns.WithLabelValues("fetch_error").Inc()
		log.Error(ctx, "fetch failed", "error", err)
		return IngestSummary{RunID: runID}, err
	}

	if key, err := s.archiver.Archive(ctx, runID, res.Body); err != nil {
		log.Warn(ctx, "archive failed", "error", err)
	} else if key != "" {
		log.Debug(ctx, "feed archived", "key", key)
	}

	summary := Ingest(ctx, res.Vulnerabilities, s.repomanager.Vulnerabilities(s.db))
	summary.RunID = runID

	for _, r := range summary.Results {
		if r.Err != nil {
			log.Error(ctx, "record not stored", "id", r.ID, "error", r.Err)
		} else if len(r.Fallbacks) > 0 {
			log.Debug(ctx, "record normalized with fallbacks", "id", r.ID, "fields", r.Fallbacks)
		}
	}

	outcome := "success"
	if summary.Failed > 0 {
		outcome = "partial"
	}
	metrics.IngestRuns.WithLabelValues(outcome).Inc()

	log.Info(ctx, "ingestion finished",
		"seen", summary.Seen, "inserted", summary.Inserted,
		"skipped", summary.Skipped, "failed", summary.Failed,
		"duration", time.Since(start).String())

	return summary, nil
}
