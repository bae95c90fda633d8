package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/scheduler"
)

type VelocityRequest struct {
	ProjectID string
	// Today defaults to the current day.
	Today *time.Time
}

type VelocityResponse struct {
	Velocity scheduler.Velocity
	Window   int
	// History is every sprint of the project, oldest first.
	History []scheduler.IterationPoints
}

type ReleasePlanRequest struct {
	ProjectID string
	// VelocityType defaults to the configured velocity.default_type.
	VelocityType   domain.VelocityType
	CustomVelocity *decimal.Decimal
	Today          *time.Time
}

type ReleasePlanResponse struct {
	Velocity     scheduler.Velocity
	VelocityType domain.VelocityType
	// Chosen is the velocity the plan was built with.
	Chosen          decimal.Decimal
	VelocityClamped bool
	Plan            scheduler.ReleasePlan
}

type ProductBurndownResponse struct {
	ReleasePlanResponse
	// Current is the sprint the chart starts from; nil when the project has
	// no sprint yet.
	Current *domain.Scope
	Points  []scheduler.BurndownPoint
}

type HoursPerPointResponse struct {
	Sprints []scheduler.HoursPerPoint
	Mean    decimal.Decimal
	Window  int
}
