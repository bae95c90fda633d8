package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
)

type scopeService struct {
	scopes   repository.ScopeRepo
	uow      db.UnitOfWork
	locks    *ScopeLocks
	observer UseCaseObserver
}

func NewScopeService(scopes repository.ScopeRepo, uow db.UnitOfWork, locks *ScopeLocks, observers ...UseCaseObserver) ScopeService {
	return &scopeService{scopes: scopes, uow: uow, locks: locks, observer: useCaseObserverOrNoop(observers)}
}

// Create adds a sprint. The product backlog is created with the project.
func (s *scopeService) Create(ctx context.Context, sc *domain.Scope) (err error) {
	done := track(ctx, s.observer, "create-scope", map[string]any{"name": sc.Name, "project": sc.ProjectID})
	defer func() { done(err) }()

	sc.Name = strings.TrimSpace(sc.Name)
	if sc.IsProductBacklog {
		return &domain.ValidationError{Message: "a project has exactly one product backlog"}
	}
	if sc.Status == "" {
		sc.Status = domain.ScopeOpen
	}
	sc.StartDate = domain.Day(sc.StartDate)
	sc.EndDate = domain.Day(sc.EndDate)
	if err = sc.Validate(); err != nil {
		return err
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	sc.CreatedAt = time.Now().UTC()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txScopes := repository.NewSQLiteScopeRepo(tx)
		existing, err := txScopes.ListByProject(ctx, sc.ProjectID)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if strings.EqualFold(other.Name, sc.Name) {
				return &domain.ValidationError{Message: fmt.Sprintf("scope %q already exists", sc.Name)}
			}
		}
		return txScopes.Create(ctx, sc)
	})
}

func (s *scopeService) GetByID(ctx context.Context, id string) (*domain.Scope, error) {
	return s.scopes.GetByID(ctx, id)
}

func (s *scopeService) Resolve(ctx context.Context, projectID, ref string) (*domain.Scope, error) {
	ref = strings.TrimSpace(ref)
	if sc, err := s.scopes.GetByID(ctx, ref); err == nil && sc.ProjectID == projectID {
		return sc, nil
	}
	all, err := s.scopes.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, sc := range all {
		if strings.EqualFold(sc.Name, ref) {
			return sc, nil
		}
	}
	if strings.EqualFold(ref, "backlog") || strings.EqualFold(ref, "pb") {
		return s.scopes.GetProductBacklog(ctx, projectID)
	}
	return nil, fmt.Errorf("scope %q: %w", ref, domain.ErrNotFound)
}

func (s *scopeService) ProductBacklog(ctx context.Context, projectID string) (*domain.Scope, error) {
	return s.scopes.GetProductBacklog(ctx, projectID)
}

func (s *scopeService) List(ctx context.Context, projectID string) ([]*domain.Scope, error) {
	return s.scopes.ListByProject(ctx, projectID)
}

func (s *scopeService) Close(ctx context.Context, id string) (err error) {
	done := track(ctx, s.observer, "close-scope", map[string]any{"scope": id})
	defer func() { done(err) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txScopes := repository.NewSQLiteScopeRepo(tx)
		sc, err := txScopes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sc.IsProductBacklog {
			return &domain.ValidationError{Message: "the product backlog cannot be closed"}
		}
		sc.Status = domain.ScopeClosed
		return txScopes.Update(ctx, sc)
	})
}

// Delete removes a sprint together with its items.
func (s *scopeService) Delete(ctx context.Context, id string) (err error) {
	done := track(ctx, s.observer, "delete-scope", map[string]any{"scope": id})
	defer func() { done(err) }()

	unlock := s.locks.Lock(id)
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txScopes := repository.NewSQLiteScopeRepo(tx)
		sc, err := txScopes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sc.IsProductBacklog {
			return &domain.ValidationError{Message: "the product backlog cannot be deleted"}
		}
		return txScopes.Delete(ctx, id)
	})
}

func (s *scopeService) CurrentSprint(ctx context.Context, projectID string, today time.Time) (*domain.Scope, error) {
	sprints, err := s.scopes.ListSprints(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return currentSprint(sprints, today)
}

// currentSprint picks the sprint containing today, else the one starting
// last. sprints are ordered by start date.
func currentSprint(sprints []*domain.Scope, today time.Time) (*domain.Scope, error) {
	if len(sprints) == 0 {
		return nil, fmt.Errorf("current sprint: %w", domain.ErrNotFound)
	}
	for _, sc := range sprints {
		if sc.Contains(today) {
			return sc, nil
		}
	}
	return sprints[len(sprints)-1], nil
}
