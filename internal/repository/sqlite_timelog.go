package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

// SQLiteTimeLogRepo implements TimeLogRepo using a SQLite database.
type SQLiteTimeLogRepo struct {
	db db.DBTX
}

// NewSQLiteTimeLogRepo creates a new SQLiteTimeLogRepo.
func NewSQLiteTimeLogRepo(conn db.DBTX) *SQLiteTimeLogRepo {
	return &SQLiteTimeLogRepo{db: conn}
}

const timeLogColumnsAliased = `t.id, t.member_id, t.item_id, t.date, t.hours, t.activity_id, t.created_at`

func (r *SQLiteTimeLogRepo) Create(ctx context.Context, e *domain.TimeLogEntry) error {
	query := `INSERT INTO time_entries (id, member_id, item_id, date, hours, activity_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	var activity any
	if e.ActivityID != "" {
		activity = e.ActivityID
	}
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.MemberID,
		e.ItemID,
		e.Date.Format(dateLayout),
		e.Hours.String(),
		activity,
		formatTimestamp(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting time entry: %w", err)
	}
	return nil
}

func (r *SQLiteTimeLogRepo) ListByItem(ctx context.Context, itemID string) ([]domain.TimeLogEntry, error) {
	query := `SELECT ` + timeLogColumnsAliased + ` FROM time_entries t WHERE t.item_id = ? ORDER BY t.date, t.created_at`
	return r.list(ctx, query, itemID)
}

func (r *SQLiteTimeLogRepo) ListByProjectBetween(ctx context.Context, projectID string, from, to time.Time) ([]domain.TimeLogEntry, error) {
	query := `SELECT ` + timeLogColumnsAliased + `
		FROM time_entries t
		JOIN items i ON t.item_id = i.id
		WHERE i.project_id = ? AND t.date >= ? AND t.date <= ?
		ORDER BY t.date, t.created_at`
	return r.list(ctx, query, projectID, from.Format(dateLayout), to.Format(dateLayout))
}

func (r *SQLiteTimeLogRepo) ListByScope(ctx context.Context, scopeID string) ([]domain.TimeLogEntry, error) {
	query := `SELECT ` + timeLogColumnsAliased + `
		FROM time_entries t
		JOIN items i ON t.item_id = i.id
		WHERE i.scope_id = ?
		ORDER BY t.date, t.created_at`
	return r.list(ctx, query, scopeID)
}

func (r *SQLiteTimeLogRepo) list(ctx context.Context, query string, args ...any) ([]domain.TimeLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	defer rows.Close()

	var out []domain.TimeLogEntry
	for rows.Next() {
		var e domain.TimeLogEntry
		var dateStr, hoursStr, createdAtStr string
		var activity sql.NullString
		if err := rows.Scan(&e.ID, &e.MemberID, &e.ItemID, &dateStr, &hoursStr, &activity, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning time entry: %w", err)
		}
		e.ActivityID = activity.String
		if e.Date, err = time.Parse(dateLayout, dateStr); err != nil {
			return nil, fmt.Errorf("parsing time entry date: %w", err)
		}
		if e.Hours, err = decimal.NewFromString(hoursStr); err != nil {
			return nil, fmt.Errorf("parsing hours: %w", err)
		}
		if e.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time entries: %w", err)
	}
	return out, nil
}
