package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
	"github.com/alexanderramin/sprintplan/internal/scheduler"
)

type itemService struct {
	items    repository.ItemRepo
	pending  repository.PendingEffortRepo
	logs     repository.TimeLogRepo
	members  repository.MemberRepo
	catalog  *ActivityCatalog
	uow      db.UnitOfWork
	settings config.Source
	observer UseCaseObserver
}

func NewItemService(
	items repository.ItemRepo,
	pending repository.PendingEffortRepo,
	logs repository.TimeLogRepo,
	members repository.MemberRepo,
	catalog *ActivityCatalog,
	uow db.UnitOfWork,
	settings config.Source,
	observers ...UseCaseObserver,
) ItemService {
	return &itemService{
		items:    items,
		pending:  pending,
		logs:     logs,
		members:  members,
		catalog:  catalog,
		uow:      uow,
		settings: settings,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *itemService) GetByID(ctx context.Context, id string) (*domain.BacklogItem, error) {
	return s.items.GetByID(ctx, id)
}

func (s *itemService) GetByRef(ctx context.Context, projectID, ref string) (*domain.BacklogItem, error) {
	ref = strings.TrimSpace(ref)
	if seq, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		return s.items.GetBySeq(ctx, projectID, seq)
	}
	it, err := s.items.GetByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if projectID != "" && it.ProjectID != projectID {
		return nil, fmt.Errorf("item %s: %w", ref, domain.ErrNotFound)
	}
	return it, nil
}

func (s *itemService) ListByScope(ctx context.Context, scopeID string) ([]*domain.BacklogItem, error) {
	return s.items.ListByScope(ctx, scopeID)
}

func (s *itemService) ListChildren(ctx context.Context, parentID string) ([]*domain.BacklogItem, error) {
	return s.items.ListChildren(ctx, parentID)
}

func (s *itemService) Update(ctx context.Context, it *domain.BacklogItem) error {
	if err := validateNewItem(it); err != nil {
		return err
	}
	it.UpdatedAt = time.Now().UTC()
	return s.items.Update(ctx, it)
}

func (s *itemService) SetStoryPoints(ctx context.Context, id, raw string) (err error) {
	done := track(ctx, s.observer, "set-story-points", map[string]any{"item": id, "value": raw})
	defer func() { done(err) }()

	points, err := domain.ParseStoryPoints(raw)
	if err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txItems := repository.NewSQLiteItemRepo(tx)
		it, err := txItems.GetByID(ctx, id)
		if err != nil {
			return err
		}
		spec := s.settings.Settings().KindRegistry().Spec(it.Kind)
		if points != nil && !spec.HasStoryPoints() {
			return &domain.ValidationError{Message: fmt.Sprintf("%s items do not carry story points", it.Kind)}
		}
		it.StoryPoints = points
		it.UpdatedAt = time.Now().UTC()
		return txItems.Update(ctx, it)
	})
}

func (s *itemService) SetStatus(ctx context.Context, id, status string, today time.Time) (err error) {
	fields := map[string]any{"item": id, "status": status}
	done := track(ctx, s.observer, "set-status", fields)
	defer func() { done(err) }()

	status = strings.TrimSpace(status)
	if status == "" {
		return &domain.ValidationError{Message: "status is required"}
	}
	settings := s.settings.Settings()
	kinds := settings.KindRegistry()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txItems := repository.NewSQLiteItemRepo(tx)
		it, err := txItems.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if it.Status == status {
			return nil
		}
		fields["from"] = it.Status
		it.Status = status
		it.UpdatedAt = time.Now().UTC()
		if err := txItems.Update(ctx, it); err != nil {
			return err
		}
		if !kinds.IsTask(it.Kind) {
			return nil
		}

		if settings.ClosedStatuses().Has(status) {
			mark := &domain.PendingEffortMark{ItemID: it.ID, Date: domain.Day(today), RemainingHours: decimal.Zero}
			if err := repository.NewSQLitePendingEffortRepo(tx).Upsert(ctx, mark); err != nil {
				return err
			}
		}
		if it.ParentID != nil {
			return syncParentStatus(ctx, txItems, *it.ParentID, settings)
		}
		return nil
	})
}

// syncParentStatus keeps a backlog item's status in line with its tasks,
// using the first two configured task statuses as "new" and "in progress":
// a new item with any started task becomes in progress, and a started item
// whose tasks are all new again goes back to new.
func syncParentStatus(ctx context.Context, items repository.ItemRepo, parentID string, settings *config.Settings) error {
	if len(settings.Statuses.ActiveTasks) < 2 {
		return nil
	}
	newStatus, inProgress := settings.Statuses.ActiveTasks[0], settings.Statuses.ActiveTasks[1]
	kinds := settings.KindRegistry()

	parent, err := items.GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	if !kinds.IsBacklog(parent.Kind) {
		return nil
	}
	children, err := items.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}
	allNew := true
	for _, c := range children {
		if kinds.IsTask(c.Kind) && c.Status != newStatus {
			allNew = false
			break
		}
	}

	switch {
	case parent.Status == newStatus && !allNew:
		parent.Status = inProgress
	case parent.Status != newStatus && allNew:
		parent.Status = newStatus
	default:
		return nil
	}
	parent.UpdatedAt = time.Now().UTC()
	return items.Update(ctx, parent)
}

func (s *itemService) Insight(ctx context.Context, id string) (*app.ItemInsight, error) {
	settings := s.settings.Settings()
	kinds := settings.KindRegistry()

	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	descendants, err := s.descendants(ctx, it.ID)
	if err != nil {
		return nil, err
	}

	insight := &app.ItemInsight{Item: it, Estimated: domain.DecimalOrZero(it.EstimatedHours)}
	for _, d := range descendants {
		insight.Estimated = insight.Estimated.Add(domain.DecimalOrZero(d.EstimatedHours))
	}

	// A backlog item's effort is the sum over its tasks.
	effortItems := []*domain.BacklogItem{it}
	if kinds.IsBacklog(it.Kind) {
		effortItems = nil
		for _, d := range descendants {
			if d.IsChildOf(it.ID) {
				effortItems = append(effortItems, d)
			}
		}
	}
	for _, e := range effortItems {
		marks, err := s.pending.ListByItem(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		if len(marks) > 0 {
			sum := domain.DecimalOrZero(insight.Pending).Add(marks[len(marks)-1].RemainingHours)
			insight.Pending = &sum
		}
		logs, err := s.logs.ListByItem(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range logs {
			insight.Spent = insight.Spent.Add(l.Hours)
		}
	}

	if kinds.IsBacklog(it.Kind) || kinds.IsTask(it.Kind) {
		if speed, ok := scheduler.ItemSpeed(insight.Estimated, domain.DecimalOrZero(insight.Pending), insight.Spent); ok {
			insight.Speed = &speed
			insight.Deviation = scheduler.ClassifySpeed(speed, scheduler.SpeedThresholds{
				Lowest: settings.Speed.Lowest,
				Low:    settings.Speed.Low,
				High:   settings.Speed.High,
			})
		}
	}

	insight.Doers, insight.Reviewers, err = s.people(ctx, it.ID)
	if err != nil {
		return nil, err
	}
	return insight, nil
}

func (s *itemService) descendants(ctx context.Context, id string) ([]*domain.BacklogItem, error) {
	var out []*domain.BacklogItem
	queue := []string{id}
	for len(queue) > 0 {
		children, err := s.items.ListChildren(ctx, queue[0])
		if err != nil {
			return nil, err
		}
		queue = queue[1:]
		for _, c := range children {
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}
	return out, nil
}

// people splits the members who logged time on the item into doers and
// reviewers by activity.
func (s *itemService) people(ctx context.Context, itemID string) (doers, reviewers []domain.Member, err error) {
	logs, err := s.logs.ListByItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	seen := map[domain.ActivityClass]map[string]bool{
		domain.ActivityDoing:     {},
		domain.ActivityReviewing: {},
	}
	for _, l := range logs {
		class, err := s.catalog.Classify(ctx, l.ActivityID)
		if err != nil {
			return nil, nil, err
		}
		if seen[class][l.MemberID] {
			continue
		}
		seen[class][l.MemberID] = true

		m, err := s.members.GetByID(ctx, l.MemberID)
		if err != nil {
			return nil, nil, err
		}
		if class == domain.ActivityReviewing {
			reviewers = append(reviewers, *m)
		} else {
			doers = append(doers, *m)
		}
	}
	sortMembers(doers)
	sortMembers(reviewers)
	return doers, reviewers, nil
}

func sortMembers(ms []domain.Member) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].DisplayName != ms[j].DisplayName {
			return ms[i].DisplayName < ms[j].DisplayName
		}
		return ms[i].ID < ms[j].ID
	})
}
