package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/ordering"
	"github.com/alexanderramin/sprintplan/internal/repository"
)

type orderingService struct {
	items    repository.ItemRepo
	uow      db.UnitOfWork
	settings config.Source
	locks    *ScopeLocks
	observer UseCaseObserver
}

func NewOrderingService(
	items repository.ItemRepo,
	uow db.UnitOfWork,
	settings config.Source,
	locks *ScopeLocks,
	observers ...UseCaseObserver,
) OrderingService {
	return &orderingService{
		items:    items,
		uow:      uow,
		settings: settings,
		locks:    locks,
		observer: useCaseObserverOrNoop(observers),
	}
}

// scopeView is the transaction-local snapshot a reorder works on.
type scopeView struct {
	list      *ordering.List
	byID      map[string]*domain.BacklogItem
	validator *ordering.Validator
}

func loadScopeView(ctx context.Context, tx db.DBTX, settings *config.Settings, scopeID, projectID string) (*scopeView, error) {
	all, err := repository.NewSQLiteItemRepo(tx).ListByScope(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	backlog := settings.KindRegistry().BacklogItems(all)

	deps, err := repository.NewSQLiteDependencyRepo(tx).ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	v := &scopeView{
		list:      ordering.NewList(scopeID, backlog),
		byID:      make(map[string]*domain.BacklogItem, len(all)),
		validator: ordering.NewValidator(settings.Dependencies.CheckOnSort, deps),
	}
	for _, it := range all {
		v.byID[it.ID] = it
	}
	return v, nil
}

// explain fills display references into a dependency violation.
func (v *scopeView) explain(err error) error {
	var verr *domain.DependencyViolationError
	if !errors.As(err, &verr) {
		return err
	}
	verr.Refs = v.refs(append([]string{verr.ItemID}, verr.Conflicts...))
	return err
}

func (v *scopeView) refs(ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if it, ok := v.byID[id]; ok {
			out[id] = it.Ref()
		}
	}
	return out
}

// apply validates plan against the scope's dependencies and persists it.
func (v *scopeView) apply(ctx context.Context, tx db.DBTX, plan *ordering.Plan) error {
	if err := v.validator.CheckPlan(plan); err != nil {
		return v.explain(err)
	}
	if len(plan.Changes) == 0 {
		return nil
	}
	return repository.NewSQLiteItemRepo(tx).UpdatePositions(ctx, plan.Changes)
}

// lockItemScope write-locks the scope currently holding itemID, plus any
// extra scopes. The item is re-read under the lock so a concurrent scope
// change is noticed.
func (s *orderingService) lockItemScope(ctx context.Context, itemID string, extra ...string) (*domain.BacklogItem, func(), error) {
	for range 3 {
		it, err := s.items.GetByID(ctx, itemID)
		if err != nil {
			return nil, nil, err
		}
		unlock := s.locks.Lock(append([]string{it.ScopeID}, extra...)...)
		again, err := s.items.GetByID(ctx, itemID)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if again.ScopeID == it.ScopeID {
			return again, unlock, nil
		}
		unlock()
	}
	return nil, nil, fmt.Errorf("item %s keeps changing scope, try again", itemID)
}

func (s *orderingService) requireBacklog(it *domain.BacklogItem) error {
	if !s.settings.Settings().KindRegistry().IsBacklog(it.Kind) {
		return &domain.ValidationError{Message: fmt.Sprintf("%s is a %s; only backlog items are ordered", it.Ref(), it.Kind)}
	}
	return nil
}

// kindGroup names the kinds an item shares a position sequence with.
func kindGroup(settings *config.Settings, kind domain.ItemKind) []domain.ItemKind {
	var names []string
	switch reg := settings.KindRegistry(); {
	case reg.IsBacklog(kind):
		names = settings.Kinds.Backlog
	case reg.IsTask(kind):
		names = settings.Kinds.Task
	default:
		return []domain.ItemKind{kind}
	}
	out := make([]domain.ItemKind, len(names))
	for i, n := range names {
		out[i] = domain.ItemKind(n)
	}
	return out
}

func edgePosition(b repository.PositionBounds, top bool) int {
	switch {
	case b.Count == 0:
		return 1
	case top:
		return b.Min - 1
	default:
		return b.Max + 1
	}
}

// defaultStatus is the first configured active status for the item's kind.
func defaultStatus(settings *config.Settings, kind domain.ItemKind) string {
	statuses := settings.Statuses.ActiveItems
	if settings.KindRegistry().IsTask(kind) {
		statuses = settings.Statuses.ActiveTasks
	}
	if len(statuses) == 0 {
		return "new"
	}
	return statuses[0]
}

func validateNewItem(it *domain.BacklogItem) error {
	it.Title = strings.TrimSpace(it.Title)
	if it.Title == "" {
		return &domain.ValidationError{Message: "item title is required"}
	}
	if it.Kind == "" {
		return &domain.ValidationError{Message: "item kind is required"}
	}
	if it.StoryPoints != nil && it.StoryPoints.IsNegative() {
		return &domain.ValidationError{Message: "story points must not be negative"}
	}
	if it.EstimatedHours != nil && it.EstimatedHours.IsNegative() {
		return &domain.ValidationError{Message: "estimated hours must not be negative"}
	}
	return nil
}

func (s *orderingService) Create(ctx context.Context, it *domain.BacklogItem, insertAtTop bool) (err error) {
	fields := map[string]any{"kind": string(it.Kind), "insert_at_top": insertAtTop}
	done := track(ctx, s.observer, "create-item", fields)
	defer func() { done(err) }()

	if err = validateNewItem(it); err != nil {
		return err
	}
	settings := s.settings.Settings()

	// Tasks live in their parent's scope.
	var parent *domain.BacklogItem
	if it.ParentID != nil {
		parent, err = s.items.GetByID(ctx, *it.ParentID)
		if err != nil {
			return fmt.Errorf("parent of new item: %w", err)
		}
		if it.ScopeID == "" {
			it.ScopeID = parent.ScopeID
		}
	}
	if it.ScopeID == "" {
		return &domain.ValidationError{Message: "item scope is required"}
	}

	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	if it.Status == "" {
		it.Status = defaultStatus(settings, it.Kind)
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	unlock := s.locks.Lock(it.ScopeID)
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txItems := repository.NewSQLiteItemRepo(tx)

		scope, err := repository.NewSQLiteScopeRepo(tx).GetByID(ctx, it.ScopeID)
		if err != nil {
			return err
		}
		if it.ProjectID == "" {
			it.ProjectID = scope.ProjectID
		}
		if it.ProjectID != scope.ProjectID {
			return &domain.ValidationError{Message: fmt.Sprintf("scope %q belongs to another project", scope.Name)}
		}
		if parent != nil {
			if parent.ScopeID != it.ScopeID {
				return &domain.ValidationError{Message: fmt.Sprintf("tasks must live in the scope of their parent %s", parent.Ref())}
			}
			if !settings.KindRegistry().IsBacklog(parent.Kind) {
				return &domain.ValidationError{Message: fmt.Sprintf("parent %s is not a backlog item", parent.Ref())}
			}
		}

		seq, err := repository.NewSQLiteProjectSequenceRepo(tx).NextProjectSeq(ctx, it.ProjectID)
		if err != nil {
			return err
		}
		it.Seq = seq
		fields["ref"] = it.Ref()

		bounds, err := txItems.PositionBounds(ctx, it.ScopeID, kindGroup(settings, it.Kind))
		if err != nil {
			return err
		}
		it.Position = edgePosition(bounds, insertAtTop)
		fields["position"] = it.Position

		if err := txItems.Create(ctx, it); err != nil {
			return err
		}
		if parent != nil && settings.KindRegistry().IsTask(it.Kind) {
			return syncParentStatus(ctx, txItems, parent.ID, settings)
		}
		return nil
	})
}

func (s *orderingService) MoveRelative(ctx context.Context, itemID, anchorID string, after bool) (placements []domain.Placement, err error) {
	done := track(ctx, s.observer, "move-relative", map[string]any{"item": itemID, "anchor": anchorID, "after": after})
	defer func() { done(err) }()

	it, unlock, err := s.lockItemScope(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if err = s.requireBacklog(it); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		view, err := loadScopeView(ctx, tx, s.settings.Settings(), it.ScopeID, it.ProjectID)
		if err != nil {
			return err
		}
		plan, err := view.list.MoveRelative(itemID, anchorID, after)
		if err != nil {
			return err
		}
		if err := view.apply(ctx, tx, plan); err != nil {
			return err
		}
		placements = plan.Changes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placements, nil
}

func (s *orderingService) MoveToTop(ctx context.Context, itemID string) ([]domain.Placement, error) {
	return s.moveToEdge(ctx, itemID, true)
}

func (s *orderingService) MoveToBottom(ctx context.Context, itemID string) ([]domain.Placement, error) {
	return s.moveToEdge(ctx, itemID, false)
}

func (s *orderingService) moveToEdge(ctx context.Context, itemID string, top bool) (placements []domain.Placement, err error) {
	name := "move-to-bottom"
	if top {
		name = "move-to-top"
	}
	done := track(ctx, s.observer, name, map[string]any{"item": itemID})
	defer func() { done(err) }()

	it, unlock, err := s.lockItemScope(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if err = s.requireBacklog(it); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		view, err := loadScopeView(ctx, tx, s.settings.Settings(), it.ScopeID, it.ProjectID)
		if err != nil {
			return err
		}
		move := view.list.MoveToBottom
		if top {
			move = view.list.MoveToTop
		}
		plan, err := move(itemID)
		if err != nil {
			return err
		}
		if err := view.apply(ctx, tx, plan); err != nil {
			return err
		}
		placements = plan.Changes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placements, nil
}

// BulkReorder returns the full 1..N assignment, including items whose
// position did not change.
func (s *orderingService) BulkReorder(ctx context.Context, scopeID string, order []string) (placements []domain.Placement, err error) {
	done := track(ctx, s.observer, "bulk-reorder", map[string]any{"scope": scopeID, "items": len(order)})
	defer func() { done(err) }()

	unlock := s.locks.Lock(scopeID)
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		scope, err := repository.NewSQLiteScopeRepo(tx).GetByID(ctx, scopeID)
		if err != nil {
			return err
		}
		view, err := loadScopeView(ctx, tx, s.settings.Settings(), scope.ID, scope.ProjectID)
		if err != nil {
			return err
		}
		plan, err := view.list.Reorder(order)
		if err != nil {
			return err
		}
		return view.apply(ctx, tx, plan)
	})
	if err != nil {
		return nil, err
	}

	placements = make([]domain.Placement, len(order))
	for i, id := range order {
		placements[i] = domain.Placement{ItemID: id, Position: i + 1}
	}
	return placements, nil
}

// MoveToScope re-derives the item's position in the target scope: into a
// sprint it goes to the end, back to the product backlog it goes to the
// top. Its tasks follow it.
func (s *orderingService) MoveToScope(ctx context.Context, itemID, scopeID string) (placement *domain.Placement, err error) {
	done := track(ctx, s.observer, "move-to-scope", map[string]any{"item": itemID, "scope": scopeID})
	defer func() { done(err) }()

	it, unlock, err := s.lockItemScope(ctx, itemID, scopeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	settings := s.settings.Settings()
	kinds := settings.KindRegistry()
	if kinds.IsTask(it.Kind) && it.ParentID != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("task %s moves with its parent backlog item", it.Ref())}
	}
	if it.ScopeID == scopeID {
		return &domain.Placement{ItemID: it.ID, Position: it.Position}, nil
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txScopes := repository.NewSQLiteScopeRepo(tx)
		txItems := repository.NewSQLiteItemRepo(tx)

		target, err := txScopes.GetByID(ctx, scopeID)
		if err != nil {
			return err
		}
		if target.ProjectID != it.ProjectID {
			return &domain.ValidationError{Message: fmt.Sprintf("scope %q belongs to another project", target.Name)}
		}
		if target.Status == domain.ScopeClosed {
			return &domain.ValidationError{Message: fmt.Sprintf("scope %q is closed", target.Name)}
		}

		bounds, err := txItems.PositionBounds(ctx, scopeID, kindGroup(settings, it.Kind))
		if err != nil {
			return err
		}
		pos := edgePosition(bounds, target.IsProductBacklog)
		if err := txItems.MoveToScope(ctx, it.ID, scopeID, pos); err != nil {
			return err
		}
		placement = &domain.Placement{ItemID: it.ID, Position: pos}

		children, err := txItems.ListChildren(ctx, it.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			b, err := txItems.PositionBounds(ctx, scopeID, kindGroup(settings, child.Kind))
			if err != nil {
				return err
			}
			if err := txItems.MoveToScope(ctx, child.ID, scopeID, edgePosition(b, false)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placement, nil
}

// Delete removes the item and, through the store's cascade, its tasks,
// dependencies and effort records. The gap it leaves is not closed.
func (s *orderingService) Delete(ctx context.Context, itemID string) (err error) {
	done := track(ctx, s.observer, "delete-item", map[string]any{"item": itemID})
	defer func() { done(err) }()

	_, unlock, err := s.lockItemScope(ctx, itemID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteItemRepo(tx).Delete(ctx, itemID)
	})
}

func (s *orderingService) CheckScope(ctx context.Context, scopeID string) (report *app.DependencyReport, err error) {
	done := track(ctx, s.observer, "check-dependencies", map[string]any{"scope": scopeID})
	defer func() { done(err) }()

	unlock := s.locks.RLock(scopeID)
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		scope, err := repository.NewSQLiteScopeRepo(tx).GetByID(ctx, scopeID)
		if err != nil {
			return err
		}
		view, err := loadScopeView(ctx, tx, s.settings.Settings(), scope.ID, scope.ProjectID)
		if err != nil {
			return err
		}
		conflicts := view.validator.Violations(view.list)
		ids := make([]string, 0, len(conflicts)*2)
		for id, deps := range conflicts {
			ids = append(ids, id)
			ids = append(ids, deps...)
		}
		report = &app.DependencyReport{ScopeID: scopeID, Conflicts: conflicts, Refs: view.refs(ids)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
