package vulnerabilities

import (
	"context"

	"github.com/dmitrijs2005/cvewatch/internal/server/models"
)

type Repository interface {
	InsertIgnore(ctx context.Context, v *models.Vulnerability) (bool, error)
	Search(ctx context.Context, column, term string) ([]*models.Vulnerability, error)
	ListSorted(ctx context.Context, column string) ([]*models.Vulnerability, error)
	GetByID(ctx context.Context, id string) (*models.Vulnerability, error)
	Count(ctx context.Context) (int, error)
}
