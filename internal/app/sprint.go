package app

import (
	"time"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/scheduler"
)

// SprintRequest names a sprint directly, or the current sprint of a
// project when ScopeID is empty.
type SprintRequest struct {
	ScopeID   string
	ProjectID string
	Today     *time.Time
}

type EffortBurndownResponse struct {
	Sprint *domain.Scope
	Points []scheduler.EffortBurndownPoint
}

type SprintStatsRequest struct {
	SprintRequest
	ViewerID   string
	AllMembers bool
}

type SprintStatsResponse struct {
	Sprint *domain.Scope
	Stats  scheduler.EffortStats
}

// ResolveToday returns today (as a UTC day) or the current day when nil.
func ResolveToday(today *time.Time) time.Time {
	if today != nil {
		return domain.Day(*today)
	}
	return domain.Day(time.Now())
}
