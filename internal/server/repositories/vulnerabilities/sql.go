// Package vulnerabilities provides the SQL-backed repository for normalized
// CVE rows. Queries are written for PostgreSQL and rebound for SQLite.
package vulnerabilities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cvewatch/internal/common"
	"github.com/dmitrijs2005/cvewatch/internal/dbx"
	"github.com/dmitrijs2005/cvewatch/internal/server/models"
)

const selectColumns = `SELECT id, cvss_v2, cvss_v3, description, last_modified, first_criteria FROM vulnerabilities`

// SQLRepository implements vulnerability storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// InsertIgnore stores v unless a row with the same id already exists. It
// reports whether a row was written; an existing id is not an error and the
// stored row is left untouched.
func (r *SQLRepository) InsertIgnore(ctx context.Context, v *models.Vulnerability) (bool, error) {
	query := `
		INSERT INTO vulnerabilities (id, cvss_v2, cvss_v3, description, last_modified, first_criteria)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, dbx.Rebind(r.dialect, query),
		v.ID, v.CVSSv2, v.CVSSv3, v.Description, v.LastModified, v.FirstCriteria)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Search returns rows whose column contains term, case-insensitively. An
// empty column searches every column.
func (r *SQLRepository) Search(ctx context.Context, column, term string) ([]*models.Vulnerability, error) {
	columns := models.Columns
	if column != "" {
		if !models.IsColumn(column) {
			return nil, common.ErrInvalidColumn
		}
		columns = []string{column}
	}

	pattern := "%" + term + "%"
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		conds[i] = fmt.Sprintf("LOWER(%s) LIKE LOWER($%d)", c, i+1)
		args[i] = pattern
	}

	query := selectColumns + ` WHERE ` + strings.Join(conds, " OR ") + ` ORDER BY id`
	return r.query(ctx, dbx.Rebind(r.dialect, query), args...)
}

// ListSorted returns every row ordered by column, ties broken by id.
func (r *SQLRepository) ListSorted(ctx context.Context, column string) ([]*models.Vulnerability, error) {
	if !models.IsColumn(column) {
		return nil, common.ErrInvalidColumn
	}
	order := column
	if column != models.ColumnID {
		order += ", id"
	}
	return r.query(ctx, selectColumns+` ORDER BY `+order)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Vulnerability, error) {
	query := selectColumns + ` WHERE id = $1`

	v := &models.Vulnerability{}
	err := r.db.QueryRowContext(ctx, dbx.Rebind(r.dialect, query), id).Scan(
		&v.ID, &v.CVSSv2, &v.CVSSv3, &v.Description, &v.LastModified, &v.FirstCriteria)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vulnerabilities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) ([]*models.Vulnerability, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Vulnerability{}
	for rows.Next() {
		var v models.Vulnerability
		if err := rows.Scan(&v.ID, &v.CVSSv2, &v.CVSSv3, &v.Description, &v.LastModified, &v.FirstCriteria); err != nil {
			return nil, err
		}
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
