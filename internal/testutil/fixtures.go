package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// Dec parses a decimal literal, panicking on malformed test input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecPtr is Dec returning a pointer.
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

// Day parses a YYYY-MM-DD literal into a UTC day.
func Day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func NewTestProject(name string) *domain.Project {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Project{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Scope options
type ScopeOption func(*domain.Scope)

// WithDates sets the sprint range from YYYY-MM-DD literals.
func WithDates(start, end string) ScopeOption {
	return func(s *domain.Scope) {
		s.StartDate = Day(start)
		s.EndDate = Day(end)
	}
}

func AsProductBacklog() ScopeOption {
	return func(s *domain.Scope) {
		s.IsProductBacklog = true
		s.StartDate = time.Time{}
		s.EndDate = time.Time{}
	}
}

func WithScopeStatus(st domain.ScopeStatus) ScopeOption {
	return func(s *domain.Scope) {
		s.Status = st
	}
}

func WithGoal(g string) ScopeOption {
	return func(s *domain.Scope) {
		s.Goal = g
	}
}

// NewTestScope returns an open two-week sprint starting 2025-01-06 unless
// options say otherwise.
func NewTestScope(projectID, name string, opts ...ScopeOption) *domain.Scope {
	s := &domain.Scope{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		StartDate: Day("2025-01-06"),
		EndDate:   Day("2025-01-17"),
		Status:    domain.ScopeOpen,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Item options
type ItemOption func(*domain.BacklogItem)

func WithKind(k domain.ItemKind) ItemOption {
	return func(it *domain.BacklogItem) {
		it.Kind = k
	}
}

func WithStatus(s string) ItemOption {
	return func(it *domain.BacklogItem) {
		it.Status = s
	}
}

func WithPosition(p int) ItemOption {
	return func(it *domain.BacklogItem) {
		it.Position = p
	}
}

func WithSeq(n int) ItemOption {
	return func(it *domain.BacklogItem) {
		it.Seq = n
	}
}

func WithStoryPoints(s string) ItemOption {
	return func(it *domain.BacklogItem) {
		it.StoryPoints = DecPtr(s)
	}
}

func WithEstimatedHours(s string) ItemOption {
	return func(it *domain.BacklogItem) {
		it.EstimatedHours = DecPtr(s)
	}
}

func WithParent(id string) ItemOption {
	return func(it *domain.BacklogItem) {
		it.ParentID = &id
	}
}

func WithTargetRelease(r string) ItemOption {
	return func(it *domain.BacklogItem) {
		it.TargetRelease = &r
	}
}

// WithCreatedOn sets the creation timestamp to noon of a YYYY-MM-DD day.
func WithCreatedOn(day string) ItemOption {
	return func(it *domain.BacklogItem) {
		it.CreatedAt = Day(day).Add(12 * time.Hour)
		it.UpdatedAt = it.CreatedAt
	}
}

// NewTestItem returns a "story" with status "new" at position 1.
func NewTestItem(projectID, scopeID, title string, opts ...ItemOption) *domain.BacklogItem {
	now := time.Now().UTC().Truncate(time.Second)
	it := &domain.BacklogItem{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		ScopeID:   scopeID,
		Kind:      "story",
		Title:     title,
		Status:    "new",
		Position:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// NewTestTask returns a "task" child of parentID.
func NewTestTask(projectID, scopeID, parentID, title string, opts ...ItemOption) *domain.BacklogItem {
	base := []ItemOption{WithKind("task"), WithParent(parentID)}
	return NewTestItem(projectID, scopeID, title, append(base, opts...)...)
}

func NewTestMember(name string) *domain.Member {
	return &domain.Member{ID: uuid.New().String(), DisplayName: name}
}

func NewTestActivity(name string) *domain.Activity {
	return &domain.Activity{ID: uuid.New().String(), Name: name}
}
