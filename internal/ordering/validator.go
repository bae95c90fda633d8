package ordering

import (
	"sort"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// Validator decides whether an item may hold its position relative to the
// items it depends on. Edges are followed transitively, including through
// items outside the scope being checked.
type Validator struct {
	enabled      bool
	predecessors map[string][]string
	successors   map[string][]string
}

// NewValidator builds a validator over deps. When enabled is false,
// CheckPlacement always succeeds; DependenciesOf still reports conflicts.
func NewValidator(enabled bool, deps []domain.Dependency) *Validator {
	v := &Validator{
		enabled:      enabled,
		predecessors: make(map[string][]string),
		successors:   make(map[string][]string),
	}
	for _, d := range deps {
		v.predecessors[d.SuccessorID] = append(v.predecessors[d.SuccessorID], d.PredecessorID)
		v.successors[d.PredecessorID] = append(v.successors[d.PredecessorID], d.SuccessorID)
	}
	return v
}

func (v *Validator) Enabled() bool { return v.enabled }

// walk returns every item reachable from start through next, start excluded.
func walk(start string, next map[string][]string) map[string]bool {
	reached := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range next[cur] {
			if n == start || reached[n] {
				continue
			}
			reached[n] = true
			queue = append(queue, n)
		}
	}
	return reached
}

// DependsOn reports whether itemID transitively depends on otherID.
func (v *Validator) DependsOn(itemID, otherID string) bool {
	return walk(itemID, v.predecessors)[otherID]
}

// DependenciesOf returns the in-scope items positioned strictly after itemID
// that itemID depends on, in position order.
func (v *Validator) DependenciesOf(l *List, itemID string) []string {
	pos, ok := l.Position(itemID)
	if !ok {
		return nil
	}
	var out []string
	for id := range walk(itemID, v.predecessors) {
		if p, in := l.Position(id); in && p > pos {
			out = append(out, id)
		}
	}
	sortByPosition(l, out)
	return out
}

// Dependents returns the in-scope items that transitively depend on itemID.
func (v *Validator) Dependents(l *List, itemID string) []string {
	var out []string
	for id := range walk(itemID, v.successors) {
		if l.Contains(id) {
			out = append(out, id)
		}
	}
	sortByPosition(l, out)
	return out
}

// CheckPlacement fails with a DependencyViolationError when checking is
// enabled and itemID sits ahead of something it depends on.
func (v *Validator) CheckPlacement(l *List, itemID string) error {
	if !v.enabled {
		return nil
	}
	if conflicts := v.DependenciesOf(l, itemID); len(conflicts) > 0 {
		return &domain.DependencyViolationError{ItemID: itemID, Conflicts: conflicts}
	}
	return nil
}

// CheckPlan validates every item the plan names plus everything depending
// on a moved item, against the post-move ordering. The first failure in
// position order is returned.
func (v *Validator) CheckPlan(p *Plan) error {
	if !v.enabled {
		return nil
	}
	check := make(map[string]bool)
	for _, id := range p.Validate {
		check[id] = true
	}
	for _, c := range p.Changes {
		for _, dep := range v.Dependents(p.After, c.ItemID) {
			check[dep] = true
		}
	}
	for _, id := range p.After.IDs() {
		if !check[id] {
			continue
		}
		if err := v.CheckPlacement(p.After, id); err != nil {
			return err
		}
	}
	return nil
}

// Violations reports every item of the list currently ahead of something it
// depends on, keyed by item ID. It ignores the enabled flag.
func (v *Validator) Violations(l *List) map[string][]string {
	out := make(map[string][]string)
	for _, id := range l.IDs() {
		if deps := v.DependenciesOf(l, id); len(deps) > 0 {
			out[id] = deps
		}
	}
	return out
}

func sortByPosition(l *List, ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		pi, _ := l.Position(ids[i])
		pj, _ := l.Position(ids[j])
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
}
