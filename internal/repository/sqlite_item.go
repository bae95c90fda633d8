package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

// itemColumns is the canonical SELECT column list for items.
const itemColumns = `id, project_id, seq, scope_id, parent_id, kind, title, status, position,
		story_points, estimated_hours, target_release, created_at, updated_at`

// itemColumnsAliased is the same column list prefixed with "i." for join queries.
const itemColumnsAliased = `i.id, i.project_id, i.seq, i.scope_id, i.parent_id, i.kind, i.title, i.status, i.position,
		i.story_points, i.estimated_hours, i.target_release, i.created_at, i.updated_at`

// SQLiteItemRepo implements ItemRepo using a SQLite database.
type SQLiteItemRepo struct {
	db db.DBTX
}

// NewSQLiteItemRepo creates a new SQLiteItemRepo.
func NewSQLiteItemRepo(conn db.DBTX) *SQLiteItemRepo {
	return &SQLiteItemRepo{db: conn}
}

func (r *SQLiteItemRepo) Create(ctx context.Context, it *domain.BacklogItem) error {
	query := `INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		it.ID,
		it.ProjectID,
		it.Seq,
		it.ScopeID,
		nullableStringToValue(it.ParentID),
		string(it.Kind),
		it.Title,
		it.Status,
		it.Position,
		decimalToValue(it.StoryPoints),
		decimalToValue(it.EstimatedHours),
		nullableStringToValue(it.TargetRelease),
		formatTimestamp(it.CreatedAt),
		formatTimestamp(it.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

func (r *SQLiteItemRepo) GetByID(ctx context.Context, id string) (*domain.BacklogItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	it, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "item", id)
	}
	return it, nil
}

func (r *SQLiteItemRepo) GetBySeq(ctx context.Context, projectID string, seq int) (*domain.BacklogItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE project_id = ? AND seq = ?`
	it, err := scanItem(r.db.QueryRowContext(ctx, query, projectID, seq))
	if err != nil {
		return nil, notFound(err, "item", fmt.Sprintf("#%d", seq))
	}
	return it, nil
}

func (r *SQLiteItemRepo) ListByScope(ctx context.Context, scopeID string) ([]*domain.BacklogItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE scope_id = ? ORDER BY position, id`
	return r.list(ctx, "listing items by scope", query, scopeID)
}

func (r *SQLiteItemRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.BacklogItem, error) {
	query := `SELECT ` + itemColumnsAliased + `
		FROM items i
		JOIN scopes s ON i.scope_id = s.id
		WHERE i.project_id = ?
		ORDER BY s.is_product_backlog DESC, s.start_date, i.position, i.id`
	return r.list(ctx, "listing items by project", query, projectID)
}

func (r *SQLiteItemRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.BacklogItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE parent_id = ? ORDER BY position, id`
	return r.list(ctx, "listing child items", query, parentID)
}

func (r *SQLiteItemRepo) list(ctx context.Context, op, query string, args ...any) ([]*domain.BacklogItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []*domain.BacklogItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// PositionBounds reports MIN/MAX position of the scope's items, restricted to
// kinds when any are given.
func (r *SQLiteItemRepo) PositionBounds(ctx context.Context, scopeID string, kinds []domain.ItemKind) (PositionBounds, error) {
	query := `SELECT COALESCE(MIN(position), 0), COALESCE(MAX(position), 0), COUNT(*) FROM items WHERE scope_id = ?`
	args := []any{scopeID}
	if len(kinds) > 0 {
		query += ` AND kind IN (?` + strings.Repeat(", ?", len(kinds)-1) + `)`
		for _, k := range kinds {
			args = append(args, string(k))
		}
	}

	var b PositionBounds
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&b.Min, &b.Max, &b.Count); err != nil {
		return PositionBounds{}, fmt.Errorf("reading position bounds: %w", err)
	}
	return b, nil
}

// UpdatePositions writes every placement; the caller provides the transaction.
func (r *SQLiteItemRepo) UpdatePositions(ctx context.Context, placements []domain.Placement) error {
	now := formatTimestamp(nowUTC())
	for _, p := range placements {
		res, err := r.db.ExecContext(ctx, `UPDATE items SET position = ?, updated_at = ? WHERE id = ?`, p.Position, now, p.ItemID)
		if err != nil {
			return fmt.Errorf("updating position of item %s: %w", p.ItemID, err)
		}
		if err := requireAffected(res, "item", p.ItemID); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteItemRepo) MoveToScope(ctx context.Context, id, scopeID string, position int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE items SET scope_id = ?, position = ?, updated_at = ? WHERE id = ?`,
		scopeID, position, formatTimestamp(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("moving item %s to scope %s: %w", id, scopeID, err)
	}
	return requireAffected(res, "item", id)
}

// Update writes the item's descriptive fields. Scope and position change
// only through MoveToScope and UpdatePositions.
func (r *SQLiteItemRepo) Update(ctx context.Context, it *domain.BacklogItem) error {
	query := `UPDATE items SET parent_id = ?, kind = ?, title = ?, status = ?,
		story_points = ?, estimated_hours = ?, target_release = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableStringToValue(it.ParentID),
		string(it.Kind),
		it.Title,
		it.Status,
		decimalToValue(it.StoryPoints),
		decimalToValue(it.EstimatedHours),
		nullableStringToValue(it.TargetRelease),
		formatTimestamp(it.UpdatedAt),
		it.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireAffected(res, "item", it.ID)
}

func (r *SQLiteItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireAffected(res, "item", id)
}

func scanItem(row scanner) (*domain.BacklogItem, error) {
	var it domain.BacklogItem
	var kind, createdAtStr, updatedAtStr string
	var parentID, points, hours, release sql.NullString

	err := row.Scan(
		&it.ID, &it.ProjectID, &it.Seq, &it.ScopeID, &parentID,
		&kind, &it.Title, &it.Status, &it.Position,
		&points, &hours, &release,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	it.Kind = domain.ItemKind(kind)
	it.ParentID = nullableString(parentID)
	it.TargetRelease = nullableString(release)

	if it.StoryPoints, err = parseNullableDecimal(points); err != nil {
		return nil, fmt.Errorf("parsing story_points: %w", err)
	}
	if it.EstimatedHours, err = parseNullableDecimal(hours); err != nil {
		return nil, fmt.Errorf("parsing estimated_hours: %w", err)
	}
	if it.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return nil, err
	}
	return &it, nil
}
