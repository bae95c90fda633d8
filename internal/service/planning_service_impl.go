package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
	"github.com/alexanderramin/sprintplan/internal/scheduler"
)

type planningService struct {
	scopes   repository.ScopeRepo
	uow      db.UnitOfWork
	settings config.Source
	locks    *ScopeLocks
	observer UseCaseObserver
}

func NewPlanningService(
	scopes repository.ScopeRepo,
	uow db.UnitOfWork,
	settings config.Source,
	locks *ScopeLocks,
	observers ...UseCaseObserver,
) PlanningService {
	return &planningService{
		scopes:   scopes,
		uow:      uow,
		settings: settings,
		locks:    locks,
		observer: useCaseObserverOrNoop(observers),
	}
}

// loadHistory summarizes every sprint of the project, oldest first.
func loadHistory(ctx context.Context, tx db.DBTX, settings *config.Settings, projectID string) ([]*domain.Scope, []scheduler.IterationPoints, error) {
	sprints, err := repository.NewSQLiteScopeRepo(tx).ListSprints(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	txItems := repository.NewSQLiteItemRepo(tx)
	kinds := settings.KindRegistry()
	closed := settings.ClosedStatuses()

	history := make([]scheduler.IterationPoints, 0, len(sprints))
	for _, sp := range sprints {
		items, err := txItems.ListByScope(ctx, sp.ID)
		if err != nil {
			return nil, nil, err
		}
		history = append(history, scheduler.SummarizeIteration(sp, items, kinds, closed))
	}
	return sprints, history, nil
}

func (s *planningService) Velocity(ctx context.Context, req app.VelocityRequest) (resp *app.VelocityResponse, err error) {
	done := track(ctx, s.observer, "velocity", map[string]any{"project": req.ProjectID})
	defer func() { done(err) }()

	settings := s.settings.Settings()
	today := app.ResolveToday(req.Today)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, history, err := loadHistory(ctx, tx, settings, req.ProjectID)
		if err != nil {
			return err
		}
		resp = &app.VelocityResponse{
			Velocity: scheduler.ComputeVelocity(history, settings.Velocity.Window, today),
			Window:   settings.Velocity.Window,
			History:  history,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *planningService) ReleasePlan(ctx context.Context, req app.ReleasePlanRequest) (resp *app.ReleasePlanResponse, err error) {
	fields := map[string]any{"project": req.ProjectID}
	done := track(ctx, s.observer, "release-plan", fields)
	defer func() { done(err) }()

	resp, err = s.releasePlan(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	fields["velocity_type"] = string(resp.VelocityType)
	fields["velocity"] = resp.Chosen.String()
	fields["buckets"] = len(resp.Plan.Buckets)
	return resp, nil
}

// releasePlan builds the plan under the product backlog's read lock. When
// extra is set it runs inside the same transaction, after the plan.
func (s *planningService) releasePlan(ctx context.Context, req app.ReleasePlanRequest, extra func(ctx context.Context, tx db.DBTX) error) (*app.ReleasePlanResponse, error) {
	settings := s.settings.Settings()
	typ := req.VelocityType
	if typ == "" {
		typ = domain.VelocityType(settings.Velocity.DefaultType)
	}
	if !domain.ValidVelocityTypes[string(typ)] {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid velocity type %q", typ)}
	}
	if typ == domain.VelocityCustom && req.CustomVelocity == nil {
		return nil, &domain.ValidationError{Message: "a custom velocity needs a value"}
	}

	backlog, err := s.scopes.GetProductBacklog(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.RLock(backlog.ID)
	defer unlock()

	today := app.ResolveToday(req.Today)
	kinds := settings.KindRegistry()
	closed := settings.ClosedStatuses()

	var resp *app.ReleasePlanResponse
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, history, err := loadHistory(ctx, tx, settings, req.ProjectID)
		if err != nil {
			return err
		}
		velocity := scheduler.ComputeVelocity(history, settings.Velocity.Window, today)
		chosen, clamped := scheduler.SelectVelocity(velocity, typ, req.CustomVelocity)

		items, err := repository.NewSQLiteItemRepo(tx).ListByScope(ctx, backlog.ID)
		if err != nil {
			return err
		}
		var open []*domain.BacklogItem
		for _, it := range kinds.BacklogItems(items) {
			if !closed.Has(it.Status) {
				open = append(open, it)
			}
		}

		resp = &app.ReleasePlanResponse{
			Velocity:        velocity,
			VelocityType:    typ,
			Chosen:          chosen,
			VelocityClamped: clamped,
			Plan:            scheduler.PlanRelease(open, kinds, chosen),
		}
		if extra != nil {
			return extra(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *planningService) ProductBurndown(ctx context.Context, req app.ReleasePlanRequest) (resp *app.ProductBurndownResponse, err error) {
	done := track(ctx, s.observer, "product-burndown", map[string]any{"project": req.ProjectID})
	defer func() { done(err) }()

	settings := s.settings.Settings()
	kinds := settings.KindRegistry()
	closed := settings.ClosedStatuses()
	today := app.ResolveToday(req.Today)

	var current *domain.Scope
	currentPoints := decimal.Zero
	plan, err := s.releasePlan(ctx, req, func(ctx context.Context, tx db.DBTX) error {
		sprints, err := repository.NewSQLiteScopeRepo(tx).ListSprints(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		current, err = currentSprint(sprints, today)
		if domain.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		items, err := repository.NewSQLiteItemRepo(tx).ListByScope(ctx, current.ID)
		if err != nil {
			return err
		}
		for _, it := range kinds.BacklogItems(items) {
			if closed.Has(it.Status) {
				continue
			}
			currentPoints = currentPoints.Add(domain.DecimalOrZero(kinds.StoryPoints(it)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	label := "Now"
	if current != nil {
		label = current.Name
	}
	return &app.ProductBurndownResponse{
		ReleasePlanResponse: *plan,
		Current:             current,
		Points:              scheduler.ProjectedBurndown(label, currentPoints, plan.Plan),
	}, nil
}

// HoursPerStoryPoint covers the sprints that ended before today.
func (s *planningService) HoursPerStoryPoint(ctx context.Context, req app.VelocityRequest) (resp *app.HoursPerPointResponse, err error) {
	done := track(ctx, s.observer, "hours-per-story-point", map[string]any{"project": req.ProjectID})
	defer func() { done(err) }()

	settings := s.settings.Settings()
	today := app.ResolveToday(req.Today)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sprints, history, err := loadHistory(ctx, tx, settings, req.ProjectID)
		if err != nil {
			return err
		}
		txLogs := repository.NewSQLiteTimeLogRepo(tx)

		var ended []scheduler.IterationPoints
		var hours []decimal.Decimal
		for i, sp := range sprints {
			if !sp.EndDate.Before(today) {
				continue
			}
			logs, err := txLogs.ListByScope(ctx, sp.ID)
			if err != nil {
				return err
			}
			total := decimal.Zero
			for _, l := range logs {
				total = total.Add(l.Hours)
			}
			ended = append(ended, history[i])
			hours = append(hours, total)
		}

		perSprint, mean := scheduler.HoursPerStoryPoint(ended, hours, settings.Velocity.Window)
		resp = &app.HoursPerPointResponse{Sprints: perSprint, Mean: mean, Window: settings.Velocity.Window}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
