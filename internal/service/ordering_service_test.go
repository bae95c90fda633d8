package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

func TestCreate_AllocatesSeqAndAppends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")

	a := env.add(t, p.ID, backlog.ID, "Login")
	b := env.add(t, p.ID, backlog.ID, "Cart")
	c := env.add(t, p.ID, backlog.ID, "Payment")

	assert.Equal(t, []int{1, 2, 3}, []int{a.Seq, b.Seq, c.Seq})
	assert.Equal(t, []int{1, 2, 3}, []int{a.Position, b.Position, c.Position})
	assert.Equal(t, "new", a.Status)

	top := testutil.NewTestItem(p.ID, backlog.ID, "Hotfix", testutil.WithKind("bug"))
	require.NoError(t, env.ordering.Create(ctx, top, true))
	assert.Equal(t, 4, top.Seq)
	assert.Equal(t, 0, top.Position)
	assert.Equal(t, ids(top, a, b, c), env.order(t, backlog.ID))

	found, err := env.items.GetByRef(ctx, p.ID, "#4")
	require.NoError(t, err)
	assert.Equal(t, top.ID, found.ID)
}

func TestCreate_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")

	noTitle := testutil.NewTestItem(p.ID, backlog.ID, "  ")
	var verr *domain.ValidationError
	require.ErrorAs(t, env.ordering.Create(ctx, noTitle, false), &verr)

	_, otherBacklog := env.project(t, "Other")
	foreign := testutil.NewTestItem(p.ID, otherBacklog.ID, "Wrong project")
	err := env.ordering.Create(ctx, foreign, false)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "another project")

	story := env.add(t, p.ID, backlog.ID, "Login")
	task := env.addTask(t, story, "API")
	nested := testutil.NewTestTask(p.ID, "", task.ID, "Nested")
	err = env.ordering.Create(ctx, nested, false)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "not a backlog item")
}

func TestCreate_TaskTakesParentScopeAndSyncsParent(t *testing.T) {
	env := newTestEnv(t)
	p, _ := env.project(t, "Webshop")
	sprint := env.sprint(t, p.ID, "Sprint 1", "2025-01-06", "2025-01-17")
	story := env.add(t, p.ID, sprint.ID, "Login")

	first := env.addTask(t, story, "Schema")
	assert.Equal(t, sprint.ID, first.ScopeID)
	assert.Equal(t, 1, first.Position, "tasks keep their own position sequence")
	assert.Equal(t, "new", env.reload(t, story.ID).Status)

	env.addTask(t, story, "API", testutil.WithStatus("in_progress"))
	assert.Equal(t, "in_progress", env.reload(t, story.ID).Status)
}

func TestMoveRelative_ShiftsFollowingItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	c := env.add(t, p.ID, backlog.ID, "C")

	placements, err := env.ordering.MoveRelative(ctx, c.ID, a.ID, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Placement{
		{ItemID: c.ID, Position: 1},
		{ItemID: a.ID, Position: 2},
		{ItemID: b.ID, Position: 3},
	}, placements)
	assert.Equal(t, ids(c, a, b), env.order(t, backlog.ID))

	_, err = env.ordering.MoveRelative(ctx, c.ID, b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, ids(a, b, c), env.order(t, backlog.ID))
}

func TestMoveRelative_UnknownAnchorIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	p, backlog := env.project(t, "Webshop")
	sprint := env.sprint(t, p.ID, "Sprint 1", "2025-01-06", "2025-01-17")
	a := env.add(t, p.ID, backlog.ID, "A")
	elsewhere := env.add(t, p.ID, sprint.ID, "Elsewhere")

	_, err := env.ordering.MoveRelative(context.Background(), a.ID, elsewhere.ID, false)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "anchor")
}

func TestMoveRelative_DependencyViolationLeavesOrderUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	c := env.add(t, p.ID, backlog.ID, "C")
	require.NoError(t, env.deps.Add(ctx, &domain.Dependency{PredecessorID: a.ID, SuccessorID: c.ID}))

	_, err := env.ordering.MoveRelative(ctx, c.ID, a.ID, false)
	var verr *domain.DependencyViolationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, c.ID, verr.ItemID)
	assert.Equal(t, []string{a.ID}, verr.Conflicts)
	assert.Equal(t, "#3 depends on other items (#1), it cannot be sorted", verr.Error())

	assert.Equal(t, ids(a, b, c), env.order(t, backlog.ID))
	assert.Equal(t, 3, env.reload(t, c.ID).Position)
}

func TestMoveRelative_MovingPredecessorBehindDependentIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	c := env.add(t, p.ID, backlog.ID, "C")
	require.NoError(t, env.deps.Add(ctx, &domain.Dependency{PredecessorID: a.ID, SuccessorID: b.ID}))

	_, err := env.ordering.MoveToBottom(ctx, a.ID)
	var verr *domain.DependencyViolationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, b.ID, verr.ItemID)
	assert.Equal(t, ids(a, b, c), env.order(t, backlog.ID))
}

func TestMoveRelative_CheckDisabledAllowsViolation(t *testing.T) {
	settings := config.Default()
	settings.Dependencies.CheckOnSort = false
	env := newTestEnvOn(t, testutil.NewTestDB(t), settings)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	require.NoError(t, env.deps.Add(ctx, &domain.Dependency{PredecessorID: a.ID, SuccessorID: b.ID}))

	_, err := env.ordering.MoveToTop(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, ids(b, a), env.order(t, backlog.ID))

	report, err := env.ordering.CheckScope(ctx, backlog.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{b.ID: {a.ID}}, report.Conflicts)
	assert.Equal(t, "#2", report.Refs[b.ID])
	assert.Equal(t, "#1", report.Refs[a.ID])
}

func TestMoveToTopAndBottom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	c := env.add(t, p.ID, backlog.ID, "C")

	placements, err := env.ordering.MoveToTop(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, placements, "already on top")

	placements, err = env.ordering.MoveToTop(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Placement{{ItemID: c.ID, Position: 0}}, placements)

	placements, err = env.ordering.MoveToBottom(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Placement{{ItemID: a.ID, Position: 3}}, placements)
	assert.Equal(t, ids(c, b, a), env.order(t, backlog.ID))
}

func TestMoveToTop_RejectsTasks(t *testing.T) {
	env := newTestEnv(t)
	p, backlog := env.project(t, "Webshop")
	story := env.add(t, p.ID, backlog.ID, "Login")
	task := env.addTask(t, story, "API")

	_, err := env.ordering.MoveToTop(context.Background(), task.ID)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "only backlog items are ordered")
}

func TestBulkReorder_AssignsContiguousPositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	c := env.add(t, p.ID, backlog.ID, "C")
	_, err := env.ordering.MoveToTop(ctx, c.ID)
	require.NoError(t, err)

	placements, err := env.ordering.BulkReorder(ctx, backlog.ID, ids(b, c, a))
	require.NoError(t, err)
	assert.Equal(t, []domain.Placement{
		{ItemID: b.ID, Position: 1},
		{ItemID: c.ID, Position: 2},
		{ItemID: a.ID, Position: 3},
	}, placements)
	assert.Equal(t, ids(b, c, a), env.order(t, backlog.ID))
	assert.Equal(t, 2, env.reload(t, c.ID).Position)
}

func TestBulkReorder_RejectsIncompleteOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")

	var verr *domain.ValidationError
	_, err := env.ordering.BulkReorder(ctx, backlog.ID, ids(b))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "missing items")

	_, err = env.ordering.BulkReorder(ctx, backlog.ID, ids(b, a, a))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "more than once")

	assert.Equal(t, ids(a, b), env.order(t, backlog.ID))
}

func TestBulkReorder_RollbackOnWriteFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	env := newTestEnvOn(t, database, config.Default())
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	c := env.add(t, p.ID, backlog.ID, "C")

	// One UPDATE per changed placement: c->1 succeeds, a->2 fails.
	failUoW := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: fmt.Errorf("injected position failure")}
	svc := NewOrderingService(repository.NewSQLiteItemRepo(database), failUoW, env.settings, env.locks)

	_, err := svc.BulkReorder(ctx, backlog.ID, ids(c, a, b))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected position failure")

	assert.Equal(t, ids(a, b, c), env.order(t, backlog.ID))
	assert.Equal(t, 3, env.reload(t, c.ID).Position)
}

func TestMoveToScope_SprintAppendsAndBacklogPrepends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	sprint := env.sprint(t, p.ID, "Sprint 1", "2025-01-06", "2025-01-17")
	planned := env.add(t, p.ID, sprint.ID, "Planned")
	a := env.add(t, p.ID, backlog.ID, "A")
	story := env.add(t, p.ID, backlog.ID, "Login")
	task := env.addTask(t, story, "API")

	placement, err := env.ordering.MoveToScope(ctx, story.ID, sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, &domain.Placement{ItemID: story.ID, Position: 2}, placement)
	assert.Equal(t, ids(planned, story), env.order(t, sprint.ID))
	assert.Equal(t, sprint.ID, env.reload(t, task.ID).ScopeID, "tasks follow their parent")

	placement, err = env.ordering.MoveToScope(ctx, planned.ID, backlog.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, placement.Position)
	assert.Equal(t, ids(planned, a), env.order(t, backlog.ID))
}

func TestMoveToScope_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	sprint := env.sprint(t, p.ID, "Sprint 1", "2025-01-06", "2025-01-17")
	story := env.add(t, p.ID, backlog.ID, "Login")
	task := env.addTask(t, story, "API")

	var verr *domain.ValidationError
	_, err := env.ordering.MoveToScope(ctx, task.ID, sprint.ID)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "moves with its parent")

	require.NoError(t, env.scopes.Close(ctx, sprint.ID))
	_, err = env.ordering.MoveToScope(ctx, story.ID, sprint.ID)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "is closed")

	_, otherBacklog := env.project(t, "Other")
	_, err = env.ordering.MoveToScope(ctx, story.ID, otherBacklog.ID)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, backlog.ID, env.reload(t, story.ID).ScopeID)
}

func TestDelete_RemovesTasksAndKeepsGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	c := env.add(t, p.ID, backlog.ID, "C")
	task := env.addTask(t, b, "API")

	require.NoError(t, env.ordering.Delete(ctx, b.ID))

	_, err := env.items.GetByID(ctx, task.ID)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, ids(a, c), env.order(t, backlog.ID))
	assert.Equal(t, 3, env.reload(t, c.ID).Position)
}

func TestCheckScope_NoConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, backlog := env.project(t, "Webshop")
	a := env.add(t, p.ID, backlog.ID, "A")
	b := env.add(t, p.ID, backlog.ID, "B")
	require.NoError(t, env.deps.Add(ctx, &domain.Dependency{PredecessorID: a.ID, SuccessorID: b.ID}))

	report, err := env.ordering.CheckScope(ctx, backlog.ID)
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
}
