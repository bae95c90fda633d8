package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BacklogItem struct {
	ID        string
	ProjectID string
	// Seq is the project-scoped number shown to users as #Seq.
	Seq       int
	ScopeID   string
	ParentID  *string
	Kind      ItemKind
	Title     string
	Status    string

	// Position is the priority rank inside ScopeID; lower is sooner.
	Position int

	StoryPoints    *decimal.Decimal
	EstimatedHours *decimal.Decimal
	TargetRelease  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Dependency is a directed precedence edge: SuccessorID depends on
// PredecessorID, so the predecessor must hold the lower position.
type Dependency struct {
	PredecessorID string
	SuccessorID   string
	Kind          DependencyKind
}

// Placement is a computed position assignment for one item.
type Placement struct {
	ItemID   string
	Position int
}

// ScheduledIn reports whether the item already existed when the scope
// started. Backlog items must predate the start; tasks may be created on
// the start day itself.
func (i *BacklogItem) ScheduledIn(s *Scope, task bool) bool {
	if s == nil || s.StartDate.IsZero() || i.CreatedAt.IsZero() {
		return false
	}
	created := Day(i.CreatedAt)
	if task {
		return !created.After(s.StartDate)
	}
	return created.Before(s.StartDate)
}

// Ref is the user-facing reference, #Seq, falling back to the ID.
func (i *BacklogItem) Ref() string {
	if i.Seq > 0 {
		return fmt.Sprintf("#%d", i.Seq)
	}
	return "#" + i.ID
}

// IsChildOf reports whether the item's parent is parentID.
func (i *BacklogItem) IsChildOf(parentID string) bool {
	return i.ParentID != nil && *i.ParentID == parentID
}
