package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

// SQLiteDependencyRepo implements DependencyRepo using a SQLite database.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

// NewSQLiteDependencyRepo creates a new SQLiteDependencyRepo.
func NewSQLiteDependencyRepo(conn db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: conn}
}

func (r *SQLiteDependencyRepo) Create(ctx context.Context, d *domain.Dependency) error {
	kind := d.Kind
	if kind == "" {
		kind = domain.DependencyPrecedes
	}
	query := `INSERT INTO dependencies (predecessor_id, successor_id, kind) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, d.PredecessorID, d.SuccessorID, string(kind))
	if err != nil {
		return fmt.Errorf("inserting dependency: %w", err)
	}
	return nil
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, predecessorID, successorID string) error {
	query := `DELETE FROM dependencies WHERE predecessor_id = ? AND successor_id = ?`
	res, err := r.db.ExecContext(ctx, query, predecessorID, successorID)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	return requireAffected(res, "dependency", predecessorID+"->"+successorID)
}

func (r *SQLiteDependencyRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Dependency, error) {
	query := `SELECT d.predecessor_id, d.successor_id, d.kind
		FROM dependencies d
		JOIN items i ON d.predecessor_id = i.id
		WHERE i.project_id = ?
		ORDER BY d.predecessor_id, d.successor_id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project dependencies: %w", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func (r *SQLiteDependencyRepo) ListPredecessors(ctx context.Context, itemID string) ([]domain.Dependency, error) {
	query := `SELECT predecessor_id, successor_id, kind
		FROM dependencies WHERE successor_id = ? ORDER BY predecessor_id`
	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing predecessors: %w", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func (r *SQLiteDependencyRepo) ListSuccessors(ctx context.Context, itemID string) ([]domain.Dependency, error) {
	query := `SELECT predecessor_id, successor_id, kind
		FROM dependencies WHERE predecessor_id = ? ORDER BY successor_id`
	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing successors: %w", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

// scanDependencies scans multiple dependency rows from *sql.Rows.
func scanDependencies(rows *sql.Rows) ([]domain.Dependency, error) {
	var deps []domain.Dependency
	for rows.Next() {
		var d domain.Dependency
		var kind string
		if err := rows.Scan(&d.PredecessorID, &d.SuccessorID, &kind); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		d.Kind = domain.DependencyKind(kind)
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}
