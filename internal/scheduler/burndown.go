package scheduler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// EndLabel names the synthetic closing point of every burndown series.
const EndLabel = "end"

// BurndownPoint is one sprint of the projected product burndown.
type BurndownPoint struct {
	Label     string
	Points    decimal.Decimal
	Remaining decimal.Decimal
	Tooltip   string
}

// ProjectedBurndown charts the current sprint followed by one virtual
// sprint per release-plan bucket. Each point's remaining work is its own
// points plus every later point's, and the series closes on a zero "end"
// point.
func ProjectedBurndown(currentLabel string, currentPoints decimal.Decimal, plan ReleasePlan) []BurndownPoint {
	points := make([]BurndownPoint, 0, len(plan.Buckets)+2)
	points = append(points, BurndownPoint{Label: currentLabel, Points: currentPoints.Round(2)})
	for i, b := range plan.Buckets {
		points = append(points, BurndownPoint{Label: fmt.Sprintf("Sprint +%d", i+1), Points: b.Points.Round(2)})
	}

	later := decimal.Zero
	for i := len(points) - 1; i >= 0; i-- {
		later = later.Add(points[i].Points)
		points[i].Remaining = later.Round(2)
		points[i].Tooltip = fmt.Sprintf("%s: %s pending story points (%s in this sprint)",
			points[i].Label, points[i].Remaining, points[i].Points)
	}

	points = append(points, BurndownPoint{
		Label:     EndLabel,
		Points:    decimal.Zero,
		Remaining: decimal.Zero,
		Tooltip:   EndLabel + ": 0 pending story points",
	})
	return points
}

// EffortBurndownPoint is one day of a sprint's effort burndown.
type EffortBurndownPoint struct {
	Day       time.Time
	Label     string
	Estimated decimal.Decimal
	Pending   decimal.Decimal
	// Actual is false for days after today, whose Pending is carried over.
	Actual           bool
	EstimatedTooltip string
	PendingTooltip   string
}

// EffortBurndownInput is everything the daily effort burndown reads.
type EffortBurndownInput struct {
	Sprint  *domain.Scope
	Efforts []domain.EffortRecord
	// Tasks are the sprint's qualifying tasks; Marks holds their pending
	// effort marks by item ID, dates ascending.
	Tasks []*domain.BacklogItem
	Marks map[string][]domain.PendingEffortMark
	Today time.Time
}

// EffortBurndown charts planned capacity still ahead against the tasks'
// pending effort for every sprint day that has planned capacity. Pending
// effort is computed up to today and carried forward after it.
func EffortBurndown(in EffortBurndownInput) []EffortBurndownPoint {
	today := domain.Day(in.Today)
	planned := make(map[string]decimal.Decimal)
	for _, e := range in.Efforts {
		key := e.Date.Format(domain.DateLayout)
		planned[key] = planned[key].Add(e.EstimatedHours)
	}

	var points []EffortBurndownPoint
	var carried *decimal.Decimal
	for _, day := range in.Sprint.Days() {
		key := day.Format(domain.DateLayout)
		if _, ok := planned[key]; !ok {
			continue
		}
		estimated := decimal.Zero
		for d, h := range planned {
			if d >= key {
				estimated = estimated.Add(h)
			}
		}
		if carried == nil {
			first := estimated
			carried = &first
		}

		actual := !day.After(today)
		if actual {
			pending := pendingOn(day, in.Tasks, in.Marks)
			carried = &pending
		}

		label := dayLabel(day)
		points = append(points, EffortBurndownPoint{
			Day:              day,
			Label:            label,
			Estimated:        estimated,
			Pending:          *carried,
			Actual:           actual,
			EstimatedTooltip: fmt.Sprintf("%s: %s estimated hours remaining", label, estimated),
			PendingTooltip:   fmt.Sprintf("%s: %s pending hours", label, *carried),
		})
	}

	end := EffortBurndownPoint{Label: EndLabel, Estimated: decimal.Zero, Pending: decimal.Zero}
	if n := len(points); n > 0 {
		end.Day = points[n-1].Day
		end.Pending = points[n-1].Pending
	}
	end.EstimatedTooltip = EndLabel + ": 0 estimated hours remaining"
	end.PendingTooltip = fmt.Sprintf("%s: %s pending hours", EndLabel, end.Pending)
	return append(points, end)
}

func pendingOn(day time.Time, tasks []*domain.BacklogItem, marks map[string][]domain.PendingEffortMark) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range tasks {
		if m, ok := domain.LatestMarkOnOrBefore(marks[t.ID], day); ok {
			sum = sum.Add(m.RemainingHours)
		}
	}
	return sum
}

func dayLabel(day time.Time) string {
	return fmt.Sprintf("%s %d", day.Format("Mon"), day.Day())
}

// QualifiesForBurndown reports whether task counts towards the pending
// effort line: an active task whose parent is an active backlog item.
func QualifiesForBurndown(task, parent *domain.BacklogItem, kinds *domain.KindRegistry, activeTasks, activeItems StatusMatcher) bool {
	if task == nil || parent == nil || !kinds.IsTask(task.Kind) || !activeTasks.Has(task.Status) {
		return false
	}
	return task.IsChildOf(parent.ID) && kinds.IsBacklog(parent.Kind) && activeItems.Has(parent.Status)
}
