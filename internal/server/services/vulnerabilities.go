package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cvewatch/internal/server/models"
	"github.com/dmitrijs2005/cvewatch/internal/server/repositories/repomanager"
)

// VulnerabilityService serves the read views. Lists are returned as rows of
// strings in models.Columns order.
type VulnerabilityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewVulnerabilityService(db *sql.DB, m repomanager.RepositoryManager) *VulnerabilityService {
	return &VulnerabilityService{db: db, repomanager: m}
}

// Search matches term as a case-insensitive substring of column, or of any
// column when column is empty.
func (s *VulnerabilityService) Search(ctx context.Context, column, term string) ([][]string, error) {
	vs, err := s.repomanager.Vulnerabilities(s.db).Search(ctx, column, term)
	if err != nil {
		return nil, err
	}
	return rows(vs), nil
}

func (s *VulnerabilityService) Sorted(ctx context.Context, column string) ([][]string, error) {
	vs, err := s.repomanager.Vulnerabilities(s.db).ListSorted(ctx, column)
	if err != nil {
		return nil, err
	}
	return rows(vs), nil
}

func (s *VulnerabilityService) All(ctx context.Context) ([][]string, error) {
	return s.Sorted(ctx, models.ColumnID)
}

func (s *VulnerabilityService) Get(ctx context.Context, id string) (*models.Vulnerability, error) {
	return s.repomanager.Vulnerabilities(s.db).GetByID(ctx, id)
}

func rows(vs []*models.Vulnerability) [][]string {
	out := make([][]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Row())
	}
	return out
}
