package domain

import (
	"fmt"
	"time"
)

// Scope is either the product backlog or one time-boxed iteration (sprint).
// The product backlog has no meaningful dates.
type Scope struct {
	ID               string
	ProjectID        string
	Name             string
	Goal             string
	StartDate        time.Time
	EndDate          time.Time
	IsProductBacklog bool
	Status           ScopeStatus
	CreatedAt        time.Time
}

// Validate checks that a sprint has an ordered date range.
func (s *Scope) Validate() error {
	if s.Name == "" {
		return &ValidationError{Message: "scope name is required"}
	}
	if !ValidScopeStatuses[string(s.Status)] {
		return &ValidationError{Message: fmt.Sprintf("invalid scope status %q", s.Status)}
	}
	if s.IsProductBacklog {
		return nil
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return &ValidationError{Message: fmt.Sprintf("sprint %q needs start and end dates", s.Name)}
	}
	if s.EndDate.Before(s.StartDate) {
		return &ValidationError{Message: fmt.Sprintf("sprint %q ends before it starts", s.Name)}
	}
	return nil
}

// Contains reports whether day falls inside the sprint's date range.
func (s *Scope) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(s.StartDate) && !d.After(s.EndDate)
}

// Days returns every calendar day of the sprint, start and end included.
func (s *Scope) Days() []time.Time {
	if s.IsProductBacklog || s.StartDate.IsZero() || s.EndDate.Before(s.StartDate) {
		return nil
	}
	var days []time.Time
	for d := s.StartDate; !d.After(s.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
