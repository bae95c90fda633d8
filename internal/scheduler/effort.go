package scheduler

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// EffortTotals is hours per day (keyed YYYY-MM-DD) plus their sum.
type EffortTotals struct {
	Days  map[string]decimal.Decimal
	Total decimal.Decimal
}

func newEffortTotals() EffortTotals {
	return EffortTotals{Days: make(map[string]decimal.Decimal), Total: decimal.Zero}
}

func (t *EffortTotals) add(day string, hours decimal.Decimal) {
	t.Days[day] = t.Days[day].Add(hours)
	t.Total = t.Total.Add(hours)
}

type MemberEffort struct {
	Member    domain.Member
	Estimated EffortTotals
	Done      EffortTotals
}

// EffortStats is the estimated versus done effort table of one sprint.
type EffortStats struct {
	Days      []time.Time
	Members   []MemberEffort
	Estimated EffortTotals
	Done      EffortTotals
}

type EffortStatsInput struct {
	Sprint  *domain.Scope
	Efforts []domain.EffortRecord
	// Logs are every time entry of the project; only days with planned
	// capacity are counted.
	Logs    []domain.TimeLogEntry
	Members map[string]domain.Member
	// ViewerID restricts the table to the viewer's own records unless
	// AllMembers is set.
	ViewerID   string
	AllMembers bool
}

// AggregateEffort totals planned capacity and logged hours per member and
// per day over the sprint days that have planned capacity.
func AggregateEffort(in EffortStatsInput) EffortStats {
	stats := EffortStats{Estimated: newEffortTotals(), Done: newEffortTotals()}
	byMember := make(map[string]*MemberEffort)
	member := func(id string) *MemberEffort {
		if m, ok := byMember[id]; ok {
			return m
		}
		info, ok := in.Members[id]
		if !ok {
			info = domain.Member{ID: id, DisplayName: id}
		}
		m := &MemberEffort{Member: info, Estimated: newEffortTotals(), Done: newEffortTotals()}
		byMember[id] = m
		return m
	}
	visible := func(memberID string) bool {
		return in.AllMembers || memberID == in.ViewerID
	}

	plannedDays := make(map[string]bool)
	for _, e := range in.Efforts {
		plannedDays[e.Date.Format(domain.DateLayout)] = true
	}

	for _, day := range in.Sprint.Days() {
		key := day.Format(domain.DateLayout)
		if !plannedDays[key] {
			continue
		}
		stats.Days = append(stats.Days, day)

		for _, e := range in.Efforts {
			if e.Date.Format(domain.DateLayout) != key || !visible(e.MemberID) {
				continue
			}
			member(e.MemberID).Estimated.add(key, e.EstimatedHours)
			stats.Estimated.add(key, e.EstimatedHours)
		}
		for _, l := range in.Logs {
			if l.Date.Format(domain.DateLayout) != key || !visible(l.MemberID) {
				continue
			}
			member(l.MemberID).Done.add(key, l.Hours)
			stats.Done.add(key, l.Hours)
		}
	}

	for _, m := range byMember {
		stats.Members = append(stats.Members, *m)
	}
	sort.Slice(stats.Members, func(i, j int) bool {
		a, b := stats.Members[i].Member, stats.Members[j].Member
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})
	return stats
}
