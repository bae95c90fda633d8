package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

func TestCascadeDelete_ProjectToScopesAndItems(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, db, "Cascade")
	items := NewSQLiteItemRepo(db)

	it := testutil.NewTestItem(proj.ID, pb.ID, "Story")
	require.NoError(t, items.Create(ctx, it))

	require.NoError(t, NewSQLiteProjectRepo(db).Delete(ctx, proj.ID))

	_, err := NewSQLiteScopeRepo(db).GetByID(ctx, sprint.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = items.GetByID(ctx, it.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCascadeDelete_ScopeToItems(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, db, "Cascade")
	items := NewSQLiteItemRepo(db)

	inSprint := testutil.NewTestItem(proj.ID, sprint.ID, "Sprint story")
	inBacklog := testutil.NewTestItem(proj.ID, pb.ID, "Backlog story")
	require.NoError(t, items.Create(ctx, inSprint))
	require.NoError(t, items.Create(ctx, inBacklog))

	require.NoError(t, NewSQLiteScopeRepo(db).Delete(ctx, sprint.ID))

	_, err := items.GetByID(ctx, inSprint.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = items.GetByID(ctx, inBacklog.ID)
	assert.NoError(t, err)
}

func TestCascadeDelete_ItemToEffortAndDependencies(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, db, "Cascade")
	items := NewSQLiteItemRepo(db)
	deps := NewSQLiteDependencyRepo(db)
	pending := NewSQLitePendingEffortRepo(db)
	logs := NewSQLiteTimeLogRepo(db)

	member := testutil.NewTestMember("Ann")
	require.NoError(t, NewSQLiteMemberRepo(db).Create(ctx, member))

	a := testutil.NewTestItem(proj.ID, pb.ID, "A")
	b := testutil.NewTestItem(proj.ID, pb.ID, "B", testutil.WithPosition(2))
	require.NoError(t, items.Create(ctx, a))
	require.NoError(t, items.Create(ctx, b))
	require.NoError(t, deps.Create(ctx, &domain.Dependency{PredecessorID: a.ID, SuccessorID: b.ID}))

	task := testutil.NewTestTask(proj.ID, sprint.ID, a.ID, "Task")
	require.NoError(t, items.Create(ctx, task))
	require.NoError(t, pending.Upsert(ctx, &domain.PendingEffortMark{
		ItemID: task.ID, Date: testutil.Day("2025-01-06"), RemainingHours: testutil.Dec("8"),
	}))
	require.NoError(t, logs.Create(ctx, &domain.TimeLogEntry{
		ID: "log-1", MemberID: member.ID, ItemID: task.ID,
		Date: testutil.Day("2025-01-06"), Hours: testutil.Dec("2"), CreatedAt: testutil.Day("2025-01-06"),
	}))

	require.NoError(t, items.Delete(ctx, a.ID))

	preds, err := deps.ListPredecessors(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, preds)

	_, err = items.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "tasks go with their parent")

	marks, err := pending.ListByItem(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, marks)
	entries, err := logs.ListByItem(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestForeignKey_ItemRequiresScope(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, _ := seedProject(t, db, "FK")

	err := NewSQLiteItemRepo(db).Create(ctx, testutil.NewTestItem(proj.ID, "missing-scope", "Orphan"))
	assert.Error(t, err)
}

func TestForeignKey_ScopeRequiresProject(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	err := NewSQLiteScopeRepo(db).Create(ctx, testutil.NewTestScope("missing-project", "Sprint"))
	assert.Error(t, err)
}
