package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// PositionBounds summarizes the positions used inside one scope.
type PositionBounds struct {
	Min, Max int
	Count    int
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type SequenceRepo interface {
	NextProjectSeq(ctx context.Context, projectID string) (int, error)
}

type ScopeRepo interface {
	Create(ctx context.Context, s *domain.Scope) error
	GetByID(ctx context.Context, id string) (*domain.Scope, error)
	GetProductBacklog(ctx context.Context, projectID string) (*domain.Scope, error)
	// ListByProject returns the product backlog first, then sprints by start date.
	ListByProject(ctx context.Context, projectID string) ([]*domain.Scope, error)
	// ListSprints returns the project's sprints ordered by start date.
	ListSprints(ctx context.Context, projectID string) ([]*domain.Scope, error)
	Update(ctx context.Context, s *domain.Scope) error
	Delete(ctx context.Context, id string) error
}

type ItemRepo interface {
	Create(ctx context.Context, it *domain.BacklogItem) error
	GetByID(ctx context.Context, id string) (*domain.BacklogItem, error)
	GetBySeq(ctx context.Context, projectID string, seq int) (*domain.BacklogItem, error)
	// ListByScope returns the scope's items in position order.
	ListByScope(ctx context.Context, scopeID string) ([]*domain.BacklogItem, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.BacklogItem, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.BacklogItem, error)
	PositionBounds(ctx context.Context, scopeID string, kinds []domain.ItemKind) (PositionBounds, error)
	UpdatePositions(ctx context.Context, placements []domain.Placement) error
	MoveToScope(ctx context.Context, id, scopeID string, position int) error
	Update(ctx context.Context, it *domain.BacklogItem) error
	Delete(ctx context.Context, id string) error
}

type DependencyRepo interface {
	Create(ctx context.Context, d *domain.Dependency) error
	Delete(ctx context.Context, predecessorID, successorID string) error
	// ListByProject returns every edge whose predecessor belongs to the project.
	ListByProject(ctx context.Context, projectID string) ([]domain.Dependency, error)
	ListPredecessors(ctx context.Context, itemID string) ([]domain.Dependency, error)
	ListSuccessors(ctx context.Context, itemID string) ([]domain.Dependency, error)
}

type EffortRepo interface {
	Upsert(ctx context.Context, e *domain.EffortRecord) error
	// ListByScope returns the scope's planned capacity ordered by date then member.
	ListByScope(ctx context.Context, scopeID string) ([]domain.EffortRecord, error)
	Delete(ctx context.Context, scopeID, memberID string, date time.Time) error
}

type PendingEffortRepo interface {
	Upsert(ctx context.Context, m *domain.PendingEffortMark) error
	// ListByItem returns the item's marks ordered by date ascending.
	ListByItem(ctx context.Context, itemID string) ([]domain.PendingEffortMark, error)
	// ListByScope returns marks of every item in the scope, keyed by item and
	// ordered by date ascending.
	ListByScope(ctx context.Context, scopeID string) (map[string][]domain.PendingEffortMark, error)
}

type TimeLogRepo interface {
	Create(ctx context.Context, e *domain.TimeLogEntry) error
	ListByItem(ctx context.Context, itemID string) ([]domain.TimeLogEntry, error)
	// ListByProjectBetween returns entries on items of the project dated
	// within [from, to], ordered by date.
	ListByProjectBetween(ctx context.Context, projectID string, from, to time.Time) ([]domain.TimeLogEntry, error)
	// ListByScope returns entries logged on items of the scope.
	ListByScope(ctx context.Context, scopeID string) ([]domain.TimeLogEntry, error)
}

type MemberRepo interface {
	Create(ctx context.Context, m *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByName(ctx context.Context, name string) (*domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
}

type ActivityRepo interface {
	Create(ctx context.Context, a *domain.Activity) error
	GetByName(ctx context.Context, name string) (*domain.Activity, error)
	List(ctx context.Context) ([]domain.Activity, error)
}
