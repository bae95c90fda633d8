package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/importer"
	"github.com/alexanderramin/sprintplan/internal/repository"
)

// ProductBacklogName names the scope every project is created with.
const ProductBacklogName = importer.ProductBacklogName

type projectService struct {
	projects repository.ProjectRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewProjectService(projects repository.ProjectRepo, uow db.UnitOfWork, observers ...UseCaseObserver) ProjectService {
	return &projectService{projects: projects, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *projectService) Create(ctx context.Context, p *domain.Project) (err error) {
	done := track(ctx, s.observer, "create-project", map[string]any{"name": p.Name})
	defer func() { done(err) }()

	p.Name = strings.TrimSpace(p.Name)
	if err = p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLiteProjectRepo(tx)
		if existing, err := txProjects.GetByName(ctx, p.Name); err == nil {
			return &domain.ValidationError{Message: fmt.Sprintf("project %q already exists (%s)", p.Name, existing.DisplayID())}
		} else if !domain.IsNotFound(err) {
			return err
		}
		if err := txProjects.Create(ctx, p); err != nil {
			return err
		}
		return repository.NewSQLiteScopeRepo(tx).Create(ctx, &domain.Scope{
			ID:               uuid.New().String(),
			ProjectID:        p.ID,
			Name:             ProductBacklogName,
			IsProductBacklog: true,
			Status:           domain.ScopeOpen,
			CreatedAt:        now,
		})
	})
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) Resolve(ctx context.Context, ref string) (*domain.Project, error) {
	ref = strings.TrimSpace(ref)
	if p, err := s.projects.GetByID(ctx, ref); err == nil {
		return p, nil
	} else if !domain.IsNotFound(err) {
		return nil, err
	}
	if p, err := s.projects.GetByName(ctx, ref); err == nil {
		return p, nil
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	if len(ref) >= 8 {
		all, err := s.projects.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range all {
			if strings.HasPrefix(p.ID, ref) {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("project %q: %w", ref, domain.ErrNotFound)
}

func (s *projectService) List(ctx context.Context) ([]*domain.Project, error) {
	return s.projects.List(ctx)
}

func (s *projectService) Delete(ctx context.Context, id string) (err error) {
	done := track(ctx, s.observer, "delete-project", map[string]any{"project": id})
	defer func() { done(err) }()
	return s.projects.Delete(ctx, id)
}
