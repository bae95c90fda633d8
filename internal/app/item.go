package app

import (
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// ItemInsight is the work-tracking view of one item: its effort, speed and
// the people who worked on it.
type ItemInsight struct {
	Item *domain.BacklogItem
	// Pending is nil when no pending effort has ever been recorded.
	Pending   *decimal.Decimal
	Spent     decimal.Decimal
	Estimated decimal.Decimal
	// Speed is nil when nothing is pending or spent yet.
	Speed     *int
	Deviation domain.Deviation
	Doers     []domain.Member
	Reviewers []domain.Member
}

// DependencyReport lists, for every item of a scope sitting ahead of items
// it depends on, those conflicting items.
type DependencyReport struct {
	ScopeID   string
	Conflicts map[string][]string
	Refs      map[string]string
}
