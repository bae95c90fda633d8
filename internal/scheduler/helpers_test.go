package scheduler

import (
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

func testKinds() *domain.KindRegistry {
	return domain.NewKindRegistry([]string{"story", "bug"}, []string{"task"}, []string{"story", "bug"})
}

type statusSet map[string]bool

func (s statusSet) Has(status string) bool { return s[status] }

var (
	closedStatuses     = statusSet{"done": true, "rejected": true}
	activeItemStatuses = statusSet{"new": true, "in_progress": true}
	activeTaskStatuses = statusSet{"new": true, "in_progress": true}
)

// sized returns backlog stories carrying the given points, in order.
func sized(points ...string) []*domain.BacklogItem {
	items := make([]*domain.BacklogItem, len(points))
	for i, p := range points {
		items[i] = testutil.NewTestItem("p", "pb", "item", testutil.WithPosition(i+1), testutil.WithStoryPoints(p))
	}
	return items
}

func ptsPtr(s string) *decimal.Decimal { return testutil.DecPtr(s) }

func decEqual(want string, got decimal.Decimal) bool {
	return testutil.Dec(want).Equal(got)
}
