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

// SQLiteEffortRepo stores planned capacity per member and sprint day.
type SQLiteEffortRepo struct {
	db db.DBTX
}

// NewSQLiteEffortRepo creates a new SQLiteEffortRepo.
func NewSQLiteEffortRepo(conn db.DBTX) *SQLiteEffortRepo {
	return &SQLiteEffortRepo{db: conn}
}

// Upsert records capacity, replacing any earlier value for the same
// scope, member and day.
func (r *SQLiteEffortRepo) Upsert(ctx context.Context, e *domain.EffortRecord) error {
	query := `INSERT INTO effort_records (scope_id, member_id, date, estimated_hours)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope_id, member_id, date) DO UPDATE SET estimated_hours = excluded.estimated_hours`
	_, err := r.db.ExecContext(ctx, query, e.ScopeID, e.MemberID, e.Date.Format(dateLayout), e.EstimatedHours.String())
	if err != nil {
		return fmt.Errorf("upserting effort record: %w", err)
	}
	return nil
}

func (r *SQLiteEffortRepo) ListByScope(ctx context.Context, scopeID string) ([]domain.EffortRecord, error) {
	query := `SELECT scope_id, member_id, date, estimated_hours
		FROM effort_records WHERE scope_id = ? ORDER BY date, member_id`
	rows, err := r.db.QueryContext(ctx, query, scopeID)
	if err != nil {
		return nil, fmt.Errorf("listing effort records: %w", err)
	}
	defer rows.Close()

	var out []domain.EffortRecord
	for rows.Next() {
		var e domain.EffortRecord
		var dateStr, hoursStr string
		if err := rows.Scan(&e.ScopeID, &e.MemberID, &dateStr, &hoursStr); err != nil {
			return nil, fmt.Errorf("scanning effort record: %w", err)
		}
		if e.Date, err = time.Parse(dateLayout, dateStr); err != nil {
			return nil, fmt.Errorf("parsing effort date: %w", err)
		}
		if e.EstimatedHours, err = decimal.NewFromString(hoursStr); err != nil {
			return nil, fmt.Errorf("parsing estimated_hours: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating effort records: %w", err)
	}
	return out, nil
}

func (r *SQLiteEffortRepo) Delete(ctx context.Context, scopeID, memberID string, date time.Time) error {
	query := `DELETE FROM effort_records WHERE scope_id = ? AND member_id = ? AND date = ?`
	res, err := r.db.ExecContext(ctx, query, scopeID, memberID, date.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("deleting effort record: %w", err)
	}
	return requireAffected(res, "effort record", memberID+"@"+date.Format(dateLayout))
}

// SQLitePendingEffortRepo stores remaining-work marks of tasks.
type SQLitePendingEffortRepo struct {
	db db.DBTX
}

// NewSQLitePendingEffortRepo creates a new SQLitePendingEffortRepo.
func NewSQLitePendingEffortRepo(conn db.DBTX) *SQLitePendingEffortRepo {
	return &SQLitePendingEffortRepo{db: conn}
}

// Upsert records the mark, replacing a mark of the same item and day.
func (r *SQLitePendingEffortRepo) Upsert(ctx context.Context, m *domain.PendingEffortMark) error {
	query := `INSERT INTO pending_efforts (item_id, date, remaining_hours)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id, date) DO UPDATE SET remaining_hours = excluded.remaining_hours`
	_, err := r.db.ExecContext(ctx, query, m.ItemID, m.Date.Format(dateLayout), m.RemainingHours.String())
	if err != nil {
		return fmt.Errorf("upserting pending effort: %w", err)
	}
	return nil
}

func (r *SQLitePendingEffortRepo) ListByItem(ctx context.Context, itemID string) ([]domain.PendingEffortMark, error) {
	query := `SELECT item_id, date, remaining_hours FROM pending_efforts WHERE item_id = ? ORDER BY date`
	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing pending efforts: %w", err)
	}
	defer rows.Close()
	return scanPendingMarks(rows)
}

func (r *SQLitePendingEffortRepo) ListByScope(ctx context.Context, scopeID string) (map[string][]domain.PendingEffortMark, error) {
	query := `SELECT p.item_id, p.date, p.remaining_hours
		FROM pending_efforts p
		JOIN items i ON p.item_id = i.id
		WHERE i.scope_id = ?
		ORDER BY p.item_id, p.date`
	rows, err := r.db.QueryContext(ctx, query, scopeID)
	if err != nil {
		return nil, fmt.Errorf("listing scope pending efforts: %w", err)
	}
	defer rows.Close()

	marks, err := scanPendingMarks(rows)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string][]domain.PendingEffortMark)
	for _, m := range marks {
		byItem[m.ItemID] = append(byItem[m.ItemID], m)
	}
	return byItem, nil
}

func scanPendingMarks(rows *sql.Rows) ([]domain.PendingEffortMark, error) {
	var out []domain.PendingEffortMark
	for rows.Next() {
		var m domain.PendingEffortMark
		var dateStr, hoursStr string
		if err := rows.Scan(&m.ItemID, &dateStr, &hoursStr); err != nil {
			return nil, fmt.Errorf("scanning pending effort: %w", err)
		}
		var err error
		if m.Date, err = time.Parse(dateLayout, dateStr); err != nil {
			return nil, fmt.Errorf("parsing pending effort date: %w", err)
		}
		if m.RemainingHours, err = decimal.NewFromString(hoursStr); err != nil {
			return nil, fmt.Errorf("parsing remaining_hours: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending efforts: %w", err)
	}
	return out, nil
}
