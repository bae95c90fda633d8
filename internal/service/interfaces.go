package service

import (
	"context"
	"time"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/importer"
)

type ProjectService interface {
	// Create stores the project together with its product backlog.
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve accepts a project ID, an ID prefix of at least 8 characters, or
	// a project name.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type ScopeService interface {
	Create(ctx context.Context, s *domain.Scope) error
	GetByID(ctx context.Context, id string) (*domain.Scope, error)
	// Resolve accepts a scope ID or a scope name within the project.
	Resolve(ctx context.Context, projectID, ref string) (*domain.Scope, error)
	ProductBacklog(ctx context.Context, projectID string) (*domain.Scope, error)
	List(ctx context.Context, projectID string) ([]*domain.Scope, error)
	Close(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// CurrentSprint is the sprint containing today, else the latest sprint.
	CurrentSprint(ctx context.Context, projectID string, today time.Time) (*domain.Scope, error)
}

type ItemService interface {
	GetByID(ctx context.Context, id string) (*domain.BacklogItem, error)
	// GetByRef resolves "#12", "12" or an item ID within the project.
	GetByRef(ctx context.Context, projectID, ref string) (*domain.BacklogItem, error)
	ListByScope(ctx context.Context, scopeID string) ([]*domain.BacklogItem, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.BacklogItem, error)
	Update(ctx context.Context, it *domain.BacklogItem) error
	// SetStoryPoints accepts "1,5" and "1.5" alike; blank clears the estimate.
	SetStoryPoints(ctx context.Context, id, raw string) error
	// SetStatus changes the status and keeps the parent backlog item's status
	// in line with its tasks. Closing a task records zero pending effort.
	SetStatus(ctx context.Context, id, status string, today time.Time) error
	Insight(ctx context.Context, id string) (*app.ItemInsight, error)
}

// OrderingService owns item positions. Every mutation runs in one
// transaction under the scope's write lock and either applies completely
// or fails with a ValidationError or DependencyViolationError.
type OrderingService interface {
	// Create allocates the item's reference and places it at the top or the
	// end of its scope.
	Create(ctx context.Context, it *domain.BacklogItem, insertAtTop bool) error
	MoveRelative(ctx context.Context, itemID, anchorID string, after bool) ([]domain.Placement, error)
	MoveToTop(ctx context.Context, itemID string) ([]domain.Placement, error)
	MoveToBottom(ctx context.Context, itemID string) ([]domain.Placement, error)
	// BulkReorder assigns positions 1..N following order, which must name
	// every backlog item of the scope exactly once.
	BulkReorder(ctx context.Context, scopeID string, order []string) ([]domain.Placement, error)
	MoveToScope(ctx context.Context, itemID, scopeID string) (*domain.Placement, error)
	Delete(ctx context.Context, itemID string) error
	CheckScope(ctx context.Context, scopeID string) (*app.DependencyReport, error)
}

type DependencyService interface {
	Add(ctx context.Context, d *domain.Dependency) error
	Remove(ctx context.Context, predecessorID, successorID string) error
	ListPredecessors(ctx context.Context, itemID string) ([]domain.Dependency, error)
	ListSuccessors(ctx context.Context, itemID string) ([]domain.Dependency, error)
}

type EffortService interface {
	// SetEffort plans a member's capacity for one sprint day; zero removes it.
	SetEffort(ctx context.Context, e *domain.EffortRecord) error
	// SetPending records a task's remaining hours. Today's mark is updated
	// in place; a task's first mark in a dated sprint is dated at its start.
	SetPending(ctx context.Context, itemID, raw string, today time.Time) (*domain.PendingEffortMark, error)
	LogTime(ctx context.Context, e *domain.TimeLogEntry) error
	ListEfforts(ctx context.Context, scopeID string) ([]domain.EffortRecord, error)
}

type MemberService interface {
	AddMember(ctx context.Context, m *domain.Member) error
	// ResolveMember accepts a member ID or a display name.
	ResolveMember(ctx context.Context, ref string) (*domain.Member, error)
	ListMembers(ctx context.Context) ([]domain.Member, error)
	AddActivity(ctx context.Context, a *domain.Activity) error
	GetActivityByName(ctx context.Context, name string) (*domain.Activity, error)
	ListActivities(ctx context.Context) ([]domain.Activity, error)
}

type PlanningService interface {
	app.PlanningUseCase
}

type SprintReportService interface {
	app.SprintReportUseCase
}

type ImportService interface {
	ImportFile(ctx context.Context, filePath string) (*app.ImportResult, error)
	ImportSchema(ctx context.Context, schema *importer.ImportSchema) (*app.ImportResult, error)
}
