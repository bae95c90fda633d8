package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
)

type effortService struct {
	efforts  repository.EffortRepo
	uow      db.UnitOfWork
	settings config.Source
	observer UseCaseObserver
}

func NewEffortService(efforts repository.EffortRepo, uow db.UnitOfWork, settings config.Source, observers ...UseCaseObserver) EffortService {
	return &effortService{efforts: efforts, uow: uow, settings: settings, observer: useCaseObserverOrNoop(observers)}
}

func (s *effortService) SetEffort(ctx context.Context, e *domain.EffortRecord) (err error) {
	done := track(ctx, s.observer, "set-effort", map[string]any{
		"scope": e.ScopeID, "member": e.MemberID, "date": e.Date.Format(domain.DateLayout), "hours": e.EstimatedHours.String(),
	})
	defer func() { done(err) }()

	if e.EstimatedHours.IsNegative() {
		return &domain.ValidationError{Message: "estimated hours must not be negative"}
	}
	e.Date = domain.Day(e.Date)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sprint, err := repository.NewSQLiteScopeRepo(tx).GetByID(ctx, e.ScopeID)
		if err != nil {
			return err
		}
		if sprint.IsProductBacklog {
			return &domain.ValidationError{Message: "capacity is planned per sprint, not on the product backlog"}
		}
		if !sprint.Contains(e.Date) {
			return &domain.ValidationError{Message: fmt.Sprintf("%s is outside sprint %q", e.Date.Format(domain.DateLayout), sprint.Name)}
		}
		if _, err := repository.NewSQLiteMemberRepo(tx).GetByID(ctx, e.MemberID); err != nil {
			return err
		}

		txEfforts := repository.NewSQLiteEffortRepo(tx)
		if e.EstimatedHours.IsZero() {
			if err := txEfforts.Delete(ctx, e.ScopeID, e.MemberID, e.Date); err != nil && !domain.IsNotFound(err) {
				return err
			}
			return nil
		}
		return txEfforts.Upsert(ctx, e)
	})
}

func (s *effortService) SetPending(ctx context.Context, itemID, raw string, today time.Time) (mark *domain.PendingEffortMark, err error) {
	fields := map[string]any{"item": itemID, "value": raw}
	done := track(ctx, s.observer, "set-pending-effort", fields)
	defer func() { done(err) }()

	hours, err := domain.ParseDecimal("pending effort", raw)
	if err != nil {
		return nil, err
	}
	if hours == nil {
		return nil, &domain.ValidationError{Message: "pending effort is required"}
	}
	today = domain.Day(today)
	kinds := s.settings.Settings().KindRegistry()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		it, err := repository.NewSQLiteItemRepo(tx).GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if !kinds.IsTask(it.Kind) {
			return &domain.ValidationError{Message: fmt.Sprintf("pending effort is tracked on tasks, %s is a %s", it.Ref(), it.Kind)}
		}

		txPending := repository.NewSQLitePendingEffortRepo(tx)
		marks, err := txPending.ListByItem(ctx, it.ID)
		if err != nil {
			return err
		}

		// Upserting on today's date updates an existing mark in place.
		date := today
		if len(marks) == 0 {
			sprint, err := repository.NewSQLiteScopeRepo(tx).GetByID(ctx, it.ScopeID)
			if err != nil {
				return err
			}
			if !sprint.IsProductBacklog && !sprint.StartDate.IsZero() {
				date = sprint.StartDate
			}
		}
		fields["date"] = date.Format(domain.DateLayout)

		mark = &domain.PendingEffortMark{ItemID: it.ID, Date: date, RemainingHours: *hours}
		return txPending.Upsert(ctx, mark)
	})
	if err != nil {
		return nil, err
	}
	return mark, nil
}

func (s *effortService) LogTime(ctx context.Context, e *domain.TimeLogEntry) (err error) {
	done := track(ctx, s.observer, "log-time", map[string]any{"item": e.ItemID, "member": e.MemberID, "hours": e.Hours.String()})
	defer func() { done(err) }()

	if !e.Hours.IsPositive() {
		return &domain.ValidationError{Message: "logged hours must be positive"}
	}
	if e.Date.IsZero() {
		return &domain.ValidationError{Message: "time entry date is required"}
	}
	e.Date = domain.Day(e.Date)
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteItemRepo(tx).GetByID(ctx, e.ItemID); err != nil {
			return err
		}
		if _, err := repository.NewSQLiteMemberRepo(tx).GetByID(ctx, e.MemberID); err != nil {
			return err
		}
		return repository.NewSQLiteTimeLogRepo(tx).Create(ctx, e)
	})
}

func (s *effortService) ListEfforts(ctx context.Context, scopeID string) ([]domain.EffortRecord, error) {
	return s.efforts.ListByScope(ctx, scopeID)
}
