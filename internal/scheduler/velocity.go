package scheduler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// StatusMatcher reports whether a status belongs to a configured set.
type StatusMatcher interface {
	Has(status string) bool
}

// IterationPoints is the story-point outcome of one sprint.
type IterationPoints struct {
	ScopeID string
	Name    string
	EndDate time.Time
	// Points and Scheduled are nil when the sprint holds no estimated
	// backlog item.
	Points    *decimal.Decimal
	Scheduled *decimal.Decimal
}

// Velocity is the average story points completed per sprint over the
// qualifying window. A zero average is clamped to 1 and flagged.
type Velocity struct {
	All              decimal.Decimal
	Scheduled        decimal.Decimal
	Iterations       int
	ClampedAll       bool
	ClampedScheduled bool
}

// SummarizeIteration sums the story points of the sprint's closed backlog
// items. Scheduled counts only items created before the sprint started.
func SummarizeIteration(s *domain.Scope, items []*domain.BacklogItem, kinds *domain.KindRegistry, closed StatusMatcher) IterationPoints {
	out := IterationPoints{ScopeID: s.ID, Name: s.Name, EndDate: s.EndDate}
	estimated := false
	done, scheduled := decimal.Zero, decimal.Zero
	for _, it := range items {
		if !kinds.IsBacklog(it.Kind) {
			continue
		}
		sp := kinds.StoryPoints(it)
		if sp == nil {
			continue
		}
		estimated = true
		if !closed.Has(it.Status) {
			continue
		}
		done = done.Add(*sp)
		if it.ScheduledIn(s, false) {
			scheduled = scheduled.Add(*sp)
		}
	}
	if estimated {
		out.Points = &done
		out.Scheduled = &scheduled
	}
	return out
}

// ComputeVelocity walks history (oldest first) from the most recent sprint
// backwards, skipping sprints that have not ended before today or carry no
// story-point data, and averages at most window qualifying sprints.
func ComputeVelocity(history []IterationPoints, window int, today time.Time) Velocity {
	if window < 1 {
		window = 1
	}
	today = domain.Day(today)

	all, scheduled := decimal.Zero, decimal.Zero
	count := 0
	for i := len(history) - 1; i >= 0 && count < window; i-- {
		it := history[i]
		if it.Points == nil || it.Scheduled == nil || !it.EndDate.Before(today) {
			continue
		}
		all = all.Add(*it.Points)
		scheduled = scheduled.Add(*it.Scheduled)
		count++
	}

	v := Velocity{Iterations: count}
	v.All, v.ClampedAll = averagePoints(all, count)
	v.Scheduled, v.ClampedScheduled = averagePoints(scheduled, count)
	return v
}

func averagePoints(sum decimal.Decimal, count int) (decimal.Decimal, bool) {
	if sum.IsPositive() && count > 0 {
		sum = sum.Div(decimal.NewFromInt(int64(count)))
	}
	if sum.IsZero() {
		return decimal.NewFromInt(1), true
	}
	return sum.Round(2), false
}

// SelectVelocity picks the planning velocity for typ. A missing custom
// velocity counts as zero. Anything below 1 is raised to 1 and flagged.
func SelectVelocity(v Velocity, typ domain.VelocityType, custom *decimal.Decimal) (decimal.Decimal, bool) {
	var chosen decimal.Decimal
	switch typ {
	case domain.VelocityAll:
		chosen = v.All
	case domain.VelocityOnlyScheduled:
		chosen = v.Scheduled
	default:
		chosen = domain.DecimalOrZero(custom)
	}
	one := decimal.NewFromInt(1)
	if chosen.LessThan(one) {
		return one, true
	}
	return chosen, false
}

// HoursPerPoint is the logged effort per completed story point of one sprint.
type HoursPerPoint struct {
	Name  string
	Value decimal.Decimal
}

// HoursPerStoryPoint reports hours/points per sprint (zero when the sprint
// completed no points) and the mean of the last window sprints.
func HoursPerStoryPoint(sprints []IterationPoints, hours []decimal.Decimal, window int) ([]HoursPerPoint, decimal.Decimal) {
	out := make([]HoursPerPoint, len(sprints))
	for i, s := range sprints {
		value := decimal.Zero
		points := domain.DecimalOrZero(s.Points)
		if points.IsPositive() && i < len(hours) {
			value = hours[i].Div(points).Round(2)
		}
		out[i] = HoursPerPoint{Name: s.Name, Value: value}
	}

	last := window
	if last > len(out) {
		last = len(out)
	}
	if last <= 0 {
		return out, decimal.Zero
	}
	sum := decimal.Zero
	for _, h := range out[len(out)-last:] {
		sum = sum.Add(h.Value)
	}
	return out, sum.Div(decimal.NewFromInt(int64(last))).Round(2)
}
