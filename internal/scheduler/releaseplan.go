package scheduler

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// Bucket is one projected future sprint of the release plan.
type Bucket struct {
	Items  []*domain.BacklogItem
	Points decimal.Decimal
	// Releases lists the target releases whose last item lands here.
	Releases []string
}

type ReleasePlan struct {
	Velocity decimal.Decimal
	Buckets  []Bucket
	// ReleaseBucket maps a target release to the index of the last bucket
	// holding one of its items.
	ReleaseBucket map[string]int
	Estimated     int
	Unestimated   int
	TotalPoints   decimal.Decimal
}

// PlanRelease packs position-ordered backlog items into sprints of velocity
// points in a single greedy pass. An item larger than the remaining capacity
// closes the current bucket (empty ones included) until capacity catches up.
// velocity is raised to 1 when lower.
func PlanRelease(items []*domain.BacklogItem, kinds *domain.KindRegistry, velocity decimal.Decimal) ReleasePlan {
	if velocity.LessThan(decimal.NewFromInt(1)) {
		velocity = decimal.NewFromInt(1)
	}
	plan := ReleasePlan{
		Velocity:      velocity,
		ReleaseBucket: make(map[string]int),
		TotalPoints:   decimal.Zero,
	}

	capacity := velocity
	current := Bucket{Points: decimal.Zero}
	for _, it := range items {
		sp := kinds.StoryPoints(it)
		if sp == nil {
			plan.Unestimated++
			continue
		}
		plan.Estimated++
		plan.TotalPoints = plan.TotalPoints.Add(*sp)

		for capacity.LessThan(*sp) {
			plan.Buckets = append(plan.Buckets, current)
			capacity = capacity.Add(velocity)
			current = Bucket{Points: decimal.Zero}
		}
		capacity = capacity.Sub(*sp)
		current.Items = append(current.Items, it)
		current.Points = current.Points.Add(*sp)

		if it.TargetRelease != nil && *it.TargetRelease != "" {
			plan.ReleaseBucket[*it.TargetRelease] = len(plan.Buckets)
		}
	}
	if len(current.Items) > 0 {
		plan.Buckets = append(plan.Buckets, current)
	}

	for release, idx := range plan.ReleaseBucket {
		plan.Buckets[idx].Releases = append(plan.Buckets[idx].Releases, release)
	}
	for i := range plan.Buckets {
		slices.Sort(plan.Buckets[i].Releases)
	}
	return plan
}
