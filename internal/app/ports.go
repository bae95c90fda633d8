package app

import (
	"context"

	"github.com/alexanderramin/sprintplan/internal/importer"
)

// PlanningUseCase covers the product-level projections of one project.
type PlanningUseCase interface {
	Velocity(ctx context.Context, req VelocityRequest) (*VelocityResponse, error)
	ReleasePlan(ctx context.Context, req ReleasePlanRequest) (*ReleasePlanResponse, error)
	ProductBurndown(ctx context.Context, req ReleasePlanRequest) (*ProductBurndownResponse, error)
	HoursPerStoryPoint(ctx context.Context, req VelocityRequest) (*HoursPerPointResponse, error)
}

// SprintReportUseCase covers the reports of a single sprint.
type SprintReportUseCase interface {
	EffortBurndown(ctx context.Context, req SprintRequest) (*EffortBurndownResponse, error)
	Stats(ctx context.Context, req SprintStatsRequest) (*SprintStatsResponse, error)
}

type ImportResult struct {
	ProjectID       string
	ProjectName     string
	ScopeCount      int
	ItemCount       int
	DependencyCount int
	EffortCount     int
	TimeLogCount    int
}

type ImportUseCase interface {
	ImportFile(ctx context.Context, filePath string) (*ImportResult, error)
	ImportSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
