package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/ordering"
	"github.com/alexanderramin/sprintplan/internal/repository"
)

type dependencyService struct {
	deps     repository.DependencyRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewDependencyService(deps repository.DependencyRepo, uow db.UnitOfWork, observers ...UseCaseObserver) DependencyService {
	return &dependencyService{deps: deps, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

// Add records that d.SuccessorID depends on d.PredecessorID. Edges that
// would close a cycle are rejected; the current order is not checked.
func (s *dependencyService) Add(ctx context.Context, d *domain.Dependency) (err error) {
	done := track(ctx, s.observer, "add-dependency", map[string]any{
		"predecessor": d.PredecessorID, "successor": d.SuccessorID, "kind": string(d.Kind),
	})
	defer func() { done(err) }()

	if d.Kind == "" {
		d.Kind = domain.DependencyPrecedes
	}
	if !domain.ValidDependencyKinds[string(d.Kind)] {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid dependency kind %q", d.Kind)}
	}
	if d.PredecessorID == d.SuccessorID {
		return &domain.ValidationError{Message: "an item cannot depend on itself"}
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txItems := repository.NewSQLiteItemRepo(tx)
		txDeps := repository.NewSQLiteDependencyRepo(tx)

		pred, err := txItems.GetByID(ctx, d.PredecessorID)
		if err != nil {
			return err
		}
		succ, err := txItems.GetByID(ctx, d.SuccessorID)
		if err != nil {
			return err
		}
		if pred.ProjectID != succ.ProjectID {
			return &domain.ValidationError{Message: fmt.Sprintf("%s and %s belong to different projects", pred.Ref(), succ.Ref())}
		}

		existing, err := txDeps.ListByProject(ctx, pred.ProjectID)
		if err != nil {
			return err
		}
		if ordering.NewValidator(true, existing).DependsOn(pred.ID, succ.ID) {
			return &domain.ValidationError{Message: fmt.Sprintf("%s already depends on %s, the dependency would form a cycle", pred.Ref(), succ.Ref())}
		}
		return txDeps.Create(ctx, d)
	})
}

func (s *dependencyService) Remove(ctx context.Context, predecessorID, successorID string) (err error) {
	done := track(ctx, s.observer, "remove-dependency", map[string]any{"predecessor": predecessorID, "successor": successorID})
	defer func() { done(err) }()
	return s.deps.Delete(ctx, predecessorID, successorID)
}

func (s *dependencyService) ListPredecessors(ctx context.Context, itemID string) ([]domain.Dependency, error) {
	return s.deps.ListPredecessors(ctx, itemID)
}

func (s *dependencyService) ListSuccessors(ctx context.Context, itemID string) ([]domain.Dependency, error) {
	return s.deps.ListSuccessors(ctx, itemID)
}
