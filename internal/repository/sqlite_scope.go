package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

// SQLiteScopeRepo implements ScopeRepo using a SQLite database.
type SQLiteScopeRepo struct {
	db db.DBTX
}

// NewSQLiteScopeRepo creates a new SQLiteScopeRepo.
func NewSQLiteScopeRepo(conn db.DBTX) *SQLiteScopeRepo {
	return &SQLiteScopeRepo{db: conn}
}

const scopeColumns = `id, project_id, name, goal, start_date, end_date, is_product_backlog, status, created_at`

func (r *SQLiteScopeRepo) Create(ctx context.Context, s *domain.Scope) error {
	query := `INSERT INTO scopes (` + scopeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.ProjectID,
		s.Name,
		s.Goal,
		dateToValue(s.StartDate),
		dateToValue(s.EndDate),
		boolToInt(s.IsProductBacklog),
		string(s.Status),
		formatTimestamp(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting scope: %w", err)
	}
	return nil
}

func (r *SQLiteScopeRepo) GetByID(ctx context.Context, id string) (*domain.Scope, error) {
	query := `SELECT ` + scopeColumns + ` FROM scopes WHERE id = ?`
	s, err := scanScope(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "scope", id)
	}
	return s, nil
}

func (r *SQLiteScopeRepo) GetProductBacklog(ctx context.Context, projectID string) (*domain.Scope, error) {
	query := `SELECT ` + scopeColumns + ` FROM scopes WHERE project_id = ? AND is_product_backlog = 1`
	s, err := scanScope(r.db.QueryRowContext(ctx, query, projectID))
	if err != nil {
		return nil, notFound(err, "product backlog of project", projectID)
	}
	return s, nil
}

func (r *SQLiteScopeRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Scope, error) {
	query := `SELECT ` + scopeColumns + ` FROM scopes WHERE project_id = ?
		ORDER BY is_product_backlog DESC, start_date, created_at, id`
	return r.list(ctx, query, projectID)
}

func (r *SQLiteScopeRepo) ListSprints(ctx context.Context, projectID string) ([]*domain.Scope, error) {
	query := `SELECT ` + scopeColumns + ` FROM scopes WHERE project_id = ? AND is_product_backlog = 0
		ORDER BY start_date, created_at, id`
	return r.list(ctx, query, projectID)
}

func (r *SQLiteScopeRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Scope, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing scopes: %w", err)
	}
	defer rows.Close()

	var scopes []*domain.Scope
	for rows.Next() {
		s, err := scanScope(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scope row: %w", err)
		}
		scopes = append(scopes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scopes: %w", err)
	}
	return scopes, nil
}

func (r *SQLiteScopeRepo) Update(ctx context.Context, s *domain.Scope) error {
	query := `UPDATE scopes SET name = ?, goal = ?, start_date = ?, end_date = ?, status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.Name,
		s.Goal,
		dateToValue(s.StartDate),
		dateToValue(s.EndDate),
		string(s.Status),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating scope: %w", err)
	}
	return requireAffected(res, "scope", s.ID)
}

// Delete removes the scope; its items go with it through the foreign key.
func (r *SQLiteScopeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scopes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting scope: %w", err)
	}
	return requireAffected(res, "scope", id)
}

func scanScope(row scanner) (*domain.Scope, error) {
	var s domain.Scope
	var startStr, endStr sql.NullString
	var statusStr, createdAtStr string
	var isPB int

	if err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Goal, &startStr, &endStr, &isPB, &statusStr, &createdAtStr); err != nil {
		return nil, err
	}
	s.IsProductBacklog = intToBool(isPB)
	s.Status = domain.ScopeStatus(statusStr)

	var err error
	if s.StartDate, err = parseNullableDate(startStr); err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}
	if s.EndDate, err = parseNullableDate(endStr); err != nil {
		return nil, fmt.Errorf("parsing end_date: %w", err)
	}
	if s.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return nil, err
	}
	return &s, nil
}
