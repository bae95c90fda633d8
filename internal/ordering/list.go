// Package ordering maintains the total order of backlog items inside one
// scope. Every operation works on a fully materialized, position-sorted
// snapshot and returns the placements to persist; nothing here touches
// storage, so a failed validation leaves the caller's state untouched.
package ordering

import (
	"fmt"
	"sort"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// List is a position-sorted snapshot of one scope's backlog items.
type List struct {
	scopeID   string
	ids       []string
	positions map[string]int
}

// NewList snapshots items (all expected to belong to scopeID). Ties on
// position are broken by ID so the order is deterministic.
func NewList(scopeID string, items []*domain.BacklogItem) *List {
	l := &List{scopeID: scopeID, positions: make(map[string]int, len(items))}
	for _, it := range items {
		l.ids = append(l.ids, it.ID)
		l.positions[it.ID] = it.Position
	}
	l.sort()
	return l
}

func (l *List) sort() {
	sort.SliceStable(l.ids, func(i, j int) bool {
		pi, pj := l.positions[l.ids[i]], l.positions[l.ids[j]]
		if pi != pj {
			return pi < pj
		}
		return l.ids[i] < l.ids[j]
	})
}

func (l *List) ScopeID() string { return l.scopeID }

func (l *List) Len() int { return len(l.ids) }

// IDs returns item IDs in position order.
func (l *List) IDs() []string {
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// Position returns the position of id and whether it is in the list.
func (l *List) Position(id string) (int, bool) {
	p, ok := l.positions[id]
	return p, ok
}

// Contains reports whether id belongs to the scope.
func (l *List) Contains(id string) bool {
	_, ok := l.positions[id]
	return ok
}

// Bounds returns the minimum and maximum position; ok is false when empty.
func (l *List) Bounds() (min, max int, ok bool) {
	if len(l.ids) == 0 {
		return 0, 0, false
	}
	return l.positions[l.ids[0]], l.positions[l.ids[len(l.ids)-1]], true
}

// AppendPosition is the position a new item takes at the end of the scope.
func (l *List) AppendPosition() int {
	_, max, ok := l.Bounds()
	if !ok {
		return 1
	}
	return max + 1
}

// PrependPosition is the position a new item takes at the top of the scope.
func (l *List) PrependPosition() int {
	min, _, ok := l.Bounds()
	if !ok {
		return 1
	}
	return min - 1
}

// Plan is the outcome of a move: the list as it would look afterwards, the
// placements that changed, and the items whose placement must be validated.
type Plan struct {
	After    *List
	Changes  []domain.Placement
	Validate []string
}

func (l *List) clone() *List {
	c := &List{scopeID: l.scopeID, ids: l.IDs(), positions: make(map[string]int, len(l.positions))}
	for id, p := range l.positions {
		c.positions[id] = p
	}
	return c
}

func (l *List) requireMember(id, role string) error {
	if !l.Contains(id) {
		return &domain.ValidationError{Message: fmt.Sprintf("%s %s is not in scope %s", role, id, l.scopeID)}
	}
	return nil
}

// MoveRelative places itemID immediately before (or after) anchorID. The
// item takes the anchor's position (+1 when after) and every other item at
// or beyond that position shifts down by one, keeping relative order.
func (l *List) MoveRelative(itemID, anchorID string, after bool) (*Plan, error) {
	if err := l.requireMember(itemID, "item"); err != nil {
		return nil, err
	}
	if err := l.requireMember(anchorID, "anchor"); err != nil {
		return nil, err
	}
	if itemID == anchorID {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("item %s cannot be moved relative to itself", itemID)}
	}

	target := l.positions[anchorID]
	if after {
		target++
	}

	next := l.clone()
	plan := &Plan{After: next}
	if l.positions[itemID] != target {
		next.positions[itemID] = target
		plan.Changes = append(plan.Changes, domain.Placement{ItemID: itemID, Position: target})
	}
	plan.Validate = append(plan.Validate, itemID)
	for _, id := range l.ids {
		if id == itemID || l.positions[id] < target {
			continue
		}
		next.positions[id] = l.positions[id] + 1
		plan.Changes = append(plan.Changes, domain.Placement{ItemID: id, Position: next.positions[id]})
		plan.Validate = append(plan.Validate, id)
	}
	next.sort()
	return plan, nil
}

// MoveToTop places itemID before the current minimum position.
func (l *List) MoveToTop(itemID string) (*Plan, error) {
	return l.moveToEdge(itemID, true)
}

// MoveToBottom places itemID after the current maximum position.
func (l *List) MoveToBottom(itemID string) (*Plan, error) {
	return l.moveToEdge(itemID, false)
}

func (l *List) moveToEdge(itemID string, top bool) (*Plan, error) {
	if err := l.requireMember(itemID, "item"); err != nil {
		return nil, err
	}
	next := l.clone()
	plan := &Plan{After: next, Validate: []string{itemID}}

	// Already at the edge: recomputing would push it one further for no reason.
	if top && next.ids[0] == itemID {
		return plan, nil
	}
	if !top && next.ids[len(next.ids)-1] == itemID {
		return plan, nil
	}

	target := l.AppendPosition()
	if top {
		target = l.PrependPosition()
	}
	next.positions[itemID] = target
	next.sort()
	plan.Changes = []domain.Placement{{ItemID: itemID, Position: target}}
	return plan, nil
}

// Reorder assigns positions 1..N following order, which must name every
// item of the scope exactly once.
func (l *List) Reorder(order []string) (*Plan, error) {
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !l.Contains(id) {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("item %s is not in scope %s", id, l.scopeID)}
		}
		if seen[id] {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("item %s appears more than once in the new order", id)}
		}
		seen[id] = true
	}
	if len(order) != len(l.ids) {
		var missing []string
		for _, id := range l.ids {
			if !seen[id] {
				missing = append(missing, id)
			}
		}
		return nil, &domain.ValidationError{Message: fmt.Sprintf("new order for scope %s is missing items %v", l.scopeID, missing)}
	}

	next := l.clone()
	plan := &Plan{After: next}
	for i, id := range order {
		pos := i + 1
		plan.Validate = append(plan.Validate, id)
		if l.positions[id] != pos {
			next.positions[id] = pos
			plan.Changes = append(plan.Changes, domain.Placement{ItemID: id, Position: pos})
		}
	}
	next.sort()
	return plan, nil
}
