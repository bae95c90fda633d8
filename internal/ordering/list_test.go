package ordering

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(positions map[string]int) []*domain.BacklogItem {
	var out []*domain.BacklogItem
	for id, p := range positions {
		out = append(out, &domain.BacklogItem{ID: id, ScopeID: "pb", Position: p})
	}
	return out
}

func positionsOf(l *List) map[string]int {
	out := make(map[string]int)
	for _, id := range l.IDs() {
		out[id], _ = l.Position(id)
	}
	return out
}

func TestNewList_SortsByPositionThenID(t *testing.T) {
	l := NewList("pb", items(map[string]int{"c": 2, "b": 2, "a": 5, "d": 1}))
	assert.Equal(t, []string{"d", "b", "c", "a"}, l.IDs())
}

func TestAppendAndPrependPosition(t *testing.T) {
	empty := NewList("pb", nil)
	assert.Equal(t, 1, empty.AppendPosition(), "empty scope starts at 1")
	assert.Equal(t, 1, empty.PrependPosition(), "empty scope starts at 1")

	l := NewList("pb", items(map[string]int{"a": 3, "b": 7}))
	assert.Equal(t, 8, l.AppendPosition())
	assert.Equal(t, 2, l.PrependPosition())

	top := NewList("pb", items(map[string]int{"a": 1}))
	assert.Equal(t, 0, top.PrependPosition(), "prepending below 1 is allowed")
}

func TestMoveRelative_Before(t *testing.T) {
	l := NewList("pb", items(map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}))

	plan, err := l.MoveRelative("d", "b", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "d", "b", "c"}, plan.After.IDs())
	assert.Equal(t, map[string]int{"a": 1, "d": 2, "b": 3, "c": 4}, positionsOf(plan.After))
	assert.ElementsMatch(t, []string{"d", "b", "c"}, plan.Validate)
	// The snapshot the plan was computed from is not touched.
	assert.Equal(t, []string{"a", "b", "c", "d"}, l.IDs())
}

func TestMoveRelative_After(t *testing.T) {
	l := NewList("pb", items(map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}))

	plan, err := l.MoveRelative("a", "c", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c", "a", "d"}, plan.After.IDs())
	assert.Equal(t, map[string]int{"b": 2, "c": 3, "a": 4, "d": 5}, positionsOf(plan.After))
}

func TestMoveRelative_ValidationErrors(t *testing.T) {
	l := NewList("pb", items(map[string]int{"a": 1, "b": 2}))

	tests := []struct {
		name           string
		item, anchor   string
		wantMsgContain string
	}{
		{"unknown anchor", "a", "zz", "anchor zz"},
		{"unknown item", "zz", "a", "item zz"},
		{"self anchor", "a", "a", "itself"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.MoveRelative(tt.item, tt.anchor, false)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Message, tt.wantMsgContain)
		})
	}
}

func TestMoveToTopAndBottom(t *testing.T) {
	l := NewList("pb", items(map[string]int{"a": 1, "b": 2, "c": 3}))

	plan, err := l.MoveToTop("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, plan.After.IDs())
	assert.Equal(t, []domain.Placement{{ItemID: "c", Position: 0}}, plan.Changes)

	plan, err = l.MoveToBottom("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, plan.After.IDs())
	assert.Equal(t, []domain.Placement{{ItemID: "a", Position: 4}}, plan.Changes)

	plan, err = l.MoveToTop("a")
	require.NoError(t, err)
	assert.Empty(t, plan.Changes, "already on top")
}

func TestReorder_RejectsNonPermutations(t *testing.T) {
	l := NewList("pb", items(map[string]int{"a": 1, "b": 2, "c": 3}))

	for name, order := range map[string][]string{
		"unknown":   {"a", "b", "x"},
		"duplicate": {"a", "a", "b"},
		"missing":   {"a", "b"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := l.Reorder(order)
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

// TestReorder_Invariants_ContiguousPositions property-tests that any
// sequence of reorders leaves positions exactly 1..N.
func TestReorder_Invariants_ContiguousPositions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 100; trial++ {
		n := rng.Intn(12) + 1
		start := make(map[string]int, n)
		for i := 0; i < n; i++ {
			// Arbitrary gapped, possibly negative, starting positions.
			start[fmt.Sprintf("it-%02d", i)] = rng.Intn(50) - 10
		}
		l := NewList("pb", items(start))

		for round := 0; round < 5; round++ {
			order := l.IDs()
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

			plan, err := l.Reorder(order)
			require.NoError(t, err)
			l = plan.After

			assert.Equal(t, order, l.IDs(), "trial %d round %d: order must follow the request", trial, round)
			for i, id := range l.IDs() {
				pos, _ := l.Position(id)
				assert.Equal(t, i+1, pos, "trial %d round %d: positions must be 1..N", trial, round)
			}
		}
	}
}
