package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EffortRecord is the planned capacity of one member on one day of a sprint.
type EffortRecord struct {
	ScopeID        string
	MemberID       string
	Date           time.Time
	EstimatedHours decimal.Decimal
}

// PendingEffortMark is the remaining work of a task as known on Date.
type PendingEffortMark struct {
	ItemID         string
	Date           time.Time
	RemainingHours decimal.Decimal
}

// TimeLogEntry is actual work logged against an item.
type TimeLogEntry struct {
	ID         string
	MemberID   string
	ItemID     string
	Date       time.Time
	Hours      decimal.Decimal
	ActivityID string
	CreatedAt  time.Time
}

type Member struct {
	ID          string
	DisplayName string
}

type Activity struct {
	ID   string
	Name string
}

// LatestMarkOnOrBefore returns the most recent mark dated on or before day.
// marks must be sorted by date ascending.
func LatestMarkOnOrBefore(marks []PendingEffortMark, day time.Time) (PendingEffortMark, bool) {
	var found PendingEffortMark
	ok := false
	for _, m := range marks {
		if m.Date.After(day) {
			break
		}
		found = m
		ok = true
	}
	return found, ok
}
