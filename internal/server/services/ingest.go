// Package services contains server-side business logic. This file turns raw
// feed entries into stored rows one record at a time.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cvewatch/internal/server/metrics"
	"github.com/dmitrijs2005/cvewatch/internal/server/models"
	"github.com/dmitrijs2005/cvewatch/internal/server/normalize"
)

// RecordStore is the write side the ingester needs. InsertIgnore reports
// false with a nil error when the id is already stored.
type RecordStore interface {
	InsertIgnore(ctx context.Context, v *models.Vulnerability) (bool, error)
}

// StoreWriteError is the failure to persist a single normalized row.
type StoreWriteError struct {
	ID  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store %s: %v", e.ID, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// RecordResult keeps the extraction outcome of one record apart from its
// write outcome.
type RecordResult struct {
	ID        string
	Fallbacks []string
	Inserted  bool
	Err       error
}

// IngestSummary aggregates one batch. Seen == Inserted + Skipped + Failed.
type IngestSummary struct {
	RunID    string         `json:"run_id,omitempty"`
	Seen     int            `json:"seen"`
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Results  []RecordResult `json:"-"`
}

// Ingest normalizes and writes raw in input order. A failed write is recorded
// and the loop moves on; rows already written stay written.
func Ingest(ctx context.Context, raw []any, store RecordStore) IngestSummary {
	summary := IngestSummary{Results: make([]RecordResult, 0, len(raw))}

	for _, r := range raw {
		out := normalize.Normalize(r)
		for _, f := range out.Fallbacks {
			metrics.FieldFallbacks.WithLabelValues(f).Inc()
		}

		res := RecordResult{ID: out.Record.ID, Fallbacks: out.Fallbacks}
		rec := out.Record

		inserted, err := store.InsertIgnore(ctx, &rec)
		switch {
		case err != nil:
			res.Err = &StoreWriteError{ID: rec.ID, Err: err}
			summary.Failed++
			metrics.IngestRecords.WithLabelValues("failed").Inc()
		case inserted:
			res.Inserted = true
			summary.Inserted++
			metrics.IngestRecords.WithLabelValues("inserted").Inc()
		default:
			summary.Skipped++
			metrics.IngestRecords.WithLabelValues("skipped").Inc()
		}

		summary.Seen++
		summary.Results = append(summary.Results, res)
	}

	return summary
}
