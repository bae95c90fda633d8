package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// ProductBacklogName names the scope items without a sprint_ref land in.
const ProductBacklogName = "Product backlog"

// Refs maps member and activity refs to stored IDs. Members and activities
// are shared across projects, so the caller resolves them before Convert.
type Refs struct {
	Members    map[string]string
	Activities map[string]string
}

// Generated holds the records of one imported project, ready to persist in
// slice order.
type Generated struct {
	Project *domain.Project
	// Scopes starts with the product backlog.
	Scopes         []*domain.Scope
	Items          []*domain.BacklogItem
	Dependencies   []domain.Dependency
	Efforts        []domain.EffortRecord
	PendingEfforts []domain.PendingEffortMark
	TimeLogs       []domain.TimeLogEntry
}

// Convert transforms a validated schema into domain records. Items are
// numbered #1..#N and positioned 1..N per scope in file order; an empty
// status is left for the caller to default by kind.
func Convert(schema *ImportSchema, refs Refs) (*Generated, error) {
	now := time.Now().UTC()
	gen := &Generated{
		Project: &domain.Project{
			ID:        uuid.New().String(),
			Name:      strings.TrimSpace(schema.Project.Name),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	backlog := &domain.Scope{
		ID:               uuid.New().String(),
		ProjectID:        gen.Project.ID,
		Name:             ProductBacklogName,
		IsProductBacklog: true,
		Status:           domain.ScopeOpen,
		CreatedAt:        now,
	}
	gen.Scopes = append(gen.Scopes, backlog)

	scopeIDs := map[string]string{"": backlog.ID}
	for _, s := range schema.Sprints {
		start, err := domain.ParseDay(s.StartDate)
		if err != nil {
			return nil, fmt.Errorf("sprint %q: %w", s.Ref, err)
		}
		end, err := domain.ParseDay(s.EndDate)
		if err != nil {
			return nil, fmt.Errorf("sprint %q: %w", s.Ref, err)
		}
		status := domain.ScopeStatus(s.Status)
		if status == "" {
			status = domain.ScopeOpen
		}
		sc := &domain.Scope{
			ID:        uuid.New().String(),
			ProjectID: gen.Project.ID,
			Name:      strings.TrimSpace(s.Name),
			Goal:      s.Goal,
			StartDate: start,
			EndDate:   end,
			Status:    status,
			CreatedAt: now,
		}
		scopeIDs[s.Ref] = sc.ID
		gen.Scopes = append(gen.Scopes, sc)
	}

	itemIDs := make(map[string]string, len(schema.Items))
	positions := make(map[string]int)
	for i, it := range schema.Items {
		scopeID := scopeIDs[it.SprintRef]
		positions[scopeID]++

		item := &domain.BacklogItem{
			ID:            uuid.New().String(),
			ProjectID:     gen.Project.ID,
			Seq:           i + 1,
			ScopeID:       scopeID,
			Kind:          domain.ItemKind(it.Kind),
			Title:         strings.TrimSpace(it.Title),
			Status:        it.Status,
			Position:      positions[scopeID],
			TargetRelease: domain.StrPtr(strings.TrimSpace(it.TargetRelease)),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if it.ParentRef != "" {
			parentID := itemIDs[it.ParentRef]
			item.ParentID = &parentID
		}

		var err error
		if item.StoryPoints, err = domain.ParseStoryPoints(string(it.StoryPoints)); err != nil {
			return nil, fmt.Errorf("item %q: %w", it.Ref, err)
		}
		if item.EstimatedHours, err = domain.ParseDecimal("estimated hours", string(it.EstimatedHours)); err != nil {
			return nil, fmt.Errorf("item %q: %w", it.Ref, err)
		}
		if it.CreatedOn != "" {
			day, err := domain.ParseDay(it.CreatedOn)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", it.Ref, err)
			}
			item.CreatedAt = day.Add(12 * time.Hour)
			item.UpdatedAt = item.CreatedAt
		}

		itemIDs[it.Ref] = item.ID
		gen.Items = append(gen.Items, item)
	}

	for _, d := range schema.Dependencies {
		kind := domain.DependencyKind(d.Kind)
		if kind == "" {
			kind = domain.DependencyPrecedes
		}
		gen.Dependencies = append(gen.Dependencies, domain.Dependency{
			PredecessorID: itemIDs[d.PredecessorRef],
			SuccessorID:   itemIDs[d.SuccessorRef],
			Kind:          kind,
		})
	}

	for _, e := range schema.Efforts {
		day, hours, err := dayAndHours(e.Date, e.Hours)
		if err != nil {
			return nil, fmt.Errorf("effort of %q: %w", e.MemberRef, err)
		}
		gen.Efforts = append(gen.Efforts, domain.EffortRecord{
			ScopeID:        scopeIDs[e.SprintRef],
			MemberID:       refs.Members[e.MemberRef],
			Date:           day,
			EstimatedHours: hours,
		})
	}

	for _, p := range schema.PendingEfforts {
		day, hours, err := dayAndHours(p.Date, p.Hours)
		if err != nil {
			return nil, fmt.Errorf("pending effort of %q: %w", p.ItemRef, err)
		}
		gen.PendingEfforts = append(gen.PendingEfforts, domain.PendingEffortMark{
			ItemID:         itemIDs[p.ItemRef],
			Date:           day,
			RemainingHours: hours,
		})
	}

	for _, l := range schema.TimeLogs {
		day, hours, err := dayAndHours(l.Date, l.Hours)
		if err != nil {
			return nil, fmt.Errorf("time log on %q: %w", l.ItemRef, err)
		}
		gen.TimeLogs = append(gen.TimeLogs, domain.TimeLogEntry{
			ID:         uuid.New().String(),
			MemberID:   refs.Members[l.MemberRef],
			ItemID:     itemIDs[l.ItemRef],
			Date:       day,
			Hours:      hours,
			ActivityID: refs.Activities[l.ActivityRef],
			CreatedAt:  now,
		})
	}

	return gen, nil
}

func dayAndHours(date string, q Quantity) (time.Time, decimal.Decimal, error) {
	day, err := domain.ParseDay(date)
	if err != nil {
		return time.Time{}, decimal.Zero, err
	}
	hours, err := domain.ParseDecimal("hours", string(q))
	if err != nil {
		return time.Time{}, decimal.Zero, err
	}
	return day, domain.DecimalOrZero(hours), nil
}
