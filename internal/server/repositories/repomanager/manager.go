package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cvewatch/internal/dbx"
	"github.com/dmitrijs2005/cvewatch/internal/server/repositories/users"
	"github.com/dmitrijs2005/cvewatch/internal/server/repositories/vulnerabilities"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Vulnerabilities(db dbx.DBTX) vulnerabilities.Repository
}
