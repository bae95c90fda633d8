package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

// SQLiteMemberRepo implements MemberRepo using a SQLite database.
type SQLiteMemberRepo struct {
	db db.DBTX
}

// NewSQLiteMemberRepo creates a new SQLiteMemberRepo.
func NewSQLiteMemberRepo(conn db.DBTX) *SQLiteMemberRepo {
	return &SQLiteMemberRepo{db: conn}
}

func (r *SQLiteMemberRepo) Create(ctx context.Context, m *domain.Member) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO members (id, display_name, created_at) VALUES (?, ?, ?)`,
		m.ID, m.DisplayName, formatTimestamp(nowUTC()))
	if err != nil {
		return fmt.Errorf("inserting member: %w", err)
	}
	return nil
}

func (r *SQLiteMemberRepo) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	var m domain.Member
	err := r.db.QueryRowContext(ctx, `SELECT id, display_name FROM members WHERE id = ?`, id).Scan(&m.ID, &m.DisplayName)
	if err != nil {
		return nil, notFound(err, "member", id)
	}
	return &m, nil
}

// GetByName matches the display name case-insensitively.
func (r *SQLiteMemberRepo) GetByName(ctx context.Context, name string) (*domain.Member, error) {
	var m domain.Member
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name FROM members WHERE LOWER(display_name) = LOWER(?) ORDER BY id LIMIT 1`, name).
		Scan(&m.ID, &m.DisplayName)
	if err != nil {
		return nil, notFound(err, "member", name)
	}
	return &m, nil
}

func (r *SQLiteMemberRepo) List(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, display_name FROM members ORDER BY display_name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return out, nil
}

// SQLiteActivityRepo implements ActivityRepo using a SQLite database.
type SQLiteActivityRepo struct {
	db db.DBTX
}

// NewSQLiteActivityRepo creates a new SQLiteActivityRepo.
func NewSQLiteActivityRepo(conn db.DBTX) *SQLiteActivityRepo {
	return &SQLiteActivityRepo{db: conn}
}

func (r *SQLiteActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO activities (id, name, created_at) VALUES (?, ?, ?)`,
		a.ID, a.Name, formatTimestamp(nowUTC()))
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

func (r *SQLiteActivityRepo) GetByName(ctx context.Context, name string) (*domain.Activity, error) {
	var a domain.Activity
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM activities WHERE LOWER(name) = LOWER(?)`, name).Scan(&a.ID, &a.Name)
	if err != nil {
		return nil, notFound(err, "activity", name)
	}
	return &a, nil
}

func (r *SQLiteActivityRepo) List(ctx context.Context) ([]domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM activities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return out, nil
}
