package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
	"github.com/alexanderramin/sprintplan/internal/scheduler"
)

type sprintReportService struct {
	uow      db.UnitOfWork
	settings config.Source
	observer UseCaseObserver
}

func NewSprintReportService(uow db.UnitOfWork, settings config.Source, observers ...UseCaseObserver) SprintReportService {
	return &sprintReportService{uow: uow, settings: settings, observer: useCaseObserverOrNoop(observers)}
}

// resolveSprint loads the requested sprint, or the project's current one.
func resolveSprint(ctx context.Context, tx db.DBTX, req app.SprintRequest, today time.Time) (*domain.Scope, error) {
	txScopes := repository.NewSQLiteScopeRepo(tx)
	if req.ScopeID == "" {
		sprints, err := txScopes.ListSprints(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		return currentSprint(sprints, today)
	}
	sprint, err := txScopes.GetByID(ctx, req.ScopeID)
	if err != nil {
		return nil, err
	}
	if sprint.IsProductBacklog {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%q is not a sprint", sprint.Name)}
	}
	return sprint, nil
}

func (s *sprintReportService) EffortBurndown(ctx context.Context, req app.SprintRequest) (resp *app.EffortBurndownResponse, err error) {
	fields := map[string]any{"project": req.ProjectID, "scope": req.ScopeID}
	done := track(ctx, s.observer, "effort-burndown", fields)
	defer func() { done(err) }()

	settings := s.settings.Settings()
	kinds := settings.KindRegistry()
	activeTasks, activeItems := settings.ActiveTaskStatuses(), settings.ActiveItemStatuses()
	today := app.ResolveToday(req.Today)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sprint, err := resolveSprint(ctx, tx, req, today)
		if err != nil {
			return err
		}
		fields["sprint"] = sprint.Name

		efforts, err := repository.NewSQLiteEffortRepo(tx).ListByScope(ctx, sprint.ID)
		if err != nil {
			return err
		}
		items, err := repository.NewSQLiteItemRepo(tx).ListByScope(ctx, sprint.ID)
		if err != nil {
			return err
		}
		byID := make(map[string]*domain.BacklogItem, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		var tasks []*domain.BacklogItem
		for _, it := range items {
			if it.ParentID == nil {
				continue
			}
			if scheduler.QualifiesForBurndown(it, byID[*it.ParentID], kinds, activeTasks, activeItems) {
				tasks = append(tasks, it)
			}
		}
		marks, err := repository.NewSQLitePendingEffortRepo(tx).ListByScope(ctx, sprint.ID)
		if err != nil {
			return err
		}

		resp = &app.EffortBurndownResponse{
			Sprint: sprint,
			Points: scheduler.EffortBurndown(scheduler.EffortBurndownInput{
				Sprint:  sprint,
				Efforts: efforts,
				Tasks:   tasks,
				Marks:   marks,
				Today:   today,
			}),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *sprintReportService) Stats(ctx context.Context, req app.SprintStatsRequest) (resp *app.SprintStatsResponse, err error) {
	fields := map[string]any{"project": req.ProjectID, "scope": req.ScopeID, "all_members": req.AllMembers}
	done := track(ctx, s.observer, "sprint-stats", fields)
	defer func() { done(err) }()

	today := app.ResolveToday(req.Today)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sprint, err := resolveSprint(ctx, tx, req.SprintRequest, today)
		if err != nil {
			return err
		}
		fields["sprint"] = sprint.Name

		efforts, err := repository.NewSQLiteEffortRepo(tx).ListByScope(ctx, sprint.ID)
		if err != nil {
			return err
		}
		logs, err := repository.NewSQLiteTimeLogRepo(tx).ListByProjectBetween(ctx, sprint.ProjectID, sprint.StartDate, sprint.EndDate)
		if err != nil {
			return err
		}
		members, err := repository.NewSQLiteMemberRepo(tx).List(ctx)
		if err != nil {
			return err
		}
		byID := make(map[string]domain.Member, len(members))
		for _, m := range members {
			byID[m.ID] = m
		}

		resp = &app.SprintStatsResponse{
			Sprint: sprint,
			Stats: scheduler.AggregateEffort(scheduler.EffortStatsInput{
				Sprint:     sprint,
				Efforts:    efforts,
				Logs:       logs,
				Members:    byID,
				ViewerID:   req.ViewerID,
				AllMembers: req.AllMembers,
			}),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
