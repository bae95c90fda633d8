package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

func TestItemRepo_CreateAndGet_RoundTripsDecimals(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, _ := seedProject(t, db, "Items")
	repo := NewSQLiteItemRepo(db)

	it := testutil.NewTestItem(proj.ID, pb.ID, "Checkout",
		testutil.WithSeq(3),
		testutil.WithStoryPoints("1.5"),
		testutil.WithEstimatedHours("12.25"),
		testutil.WithTargetRelease("v1.0"),
	)
	require.NoError(t, repo.Create(ctx, it))

	got, err := repo.GetByID(ctx, it.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StoryPoints)
	assert.True(t, got.StoryPoints.Equal(testutil.Dec("1.5")))
	assert.True(t, got.EstimatedHours.Equal(testutil.Dec("12.25")))
	require.NotNil(t, got.TargetRelease)
	assert.Equal(t, "v1.0", *got.TargetRelease)
	assert.Nil(t, got.ParentID)

	bySeq, err := repo.GetBySeq(ctx, proj.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, it.ID, bySeq.ID)

	_, err = repo.GetBySeq(ctx, proj.ID, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemRepo_UnestimatedStaysNil(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, _ := seedProject(t, db, "Items")
	repo := NewSQLiteItemRepo(db)

	it := testutil.NewTestItem(proj.ID, pb.ID, "Spike")
	require.NoError(t, repo.Create(ctx, it))

	got, err := repo.GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StoryPoints)
	assert.Nil(t, got.EstimatedHours)
}

func TestItemRepo_ListByScopeInPositionOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, db, "Items")
	repo := NewSQLiteItemRepo(db)

	c := testutil.NewTestItem(proj.ID, pb.ID, "C", testutil.WithPosition(7))
	a := testutil.NewTestItem(proj.ID, pb.ID, "A", testutil.WithPosition(-1))
	b := testutil.NewTestItem(proj.ID, pb.ID, "B", testutil.WithPosition(2))
	other := testutil.NewTestItem(proj.ID, sprint.ID, "Other", testutil.WithPosition(1))
	for _, it := range []*domain.BacklogItem{c, a, b, other} {
		require.NoError(t, repo.Create(ctx, it))
	}

	items, err := repo.ListByScope(ctx, pb.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{items[0].Title, items[1].Title, items[2].Title})

	all, err := repo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Other", all[3].Title, "product backlog items come first")
}

func TestItemRepo_PositionBounds(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, db, "Items")
	repo := NewSQLiteItemRepo(db)

	story := testutil.NewTestItem(proj.ID, pb.ID, "Story", testutil.WithPosition(3))
	require.NoError(t, repo.Create(ctx, story))
	require.NoError(t, repo.Create(ctx, testutil.NewTestItem(proj.ID, pb.ID, "Bug", testutil.WithPosition(8), testutil.WithKind("bug"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestTask(proj.ID, pb.ID, story.ID, "Task", testutil.WithPosition(20))))

	b, err := repo.PositionBounds(ctx, pb.ID, []domain.ItemKind{"story", "bug"})
	require.NoError(t, err)
	assert.Equal(t, PositionBounds{Min: 3, Max: 8, Count: 2}, b)

	b, err = repo.PositionBounds(ctx, pb.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, b.Max)

	empty, err := repo.PositionBounds(ctx, sprint.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, PositionBounds{}, empty)
}

func TestItemRepo_UpdatePositionsAndMoveToScope(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, db, "Items")
	repo := NewSQLiteItemRepo(db)

	a := testutil.NewTestItem(proj.ID, pb.ID, "A", testutil.WithPosition(1))
	b := testutil.NewTestItem(proj.ID, pb.ID, "B", testutil.WithPosition(2))
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.UpdatePositions(ctx, []domain.Placement{{ItemID: a.ID, Position: 2}, {ItemID: b.ID, Position: 1}}))
	items, err := repo.ListByScope(ctx, pb.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, []string{items[0].ID, items[1].ID})

	err = repo.UpdatePositions(ctx, []domain.Placement{{ItemID: "ghost", Position: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.MoveToScope(ctx, a.ID, sprint.ID, 5))
	moved, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, sprint.ID, moved.ScopeID)
	assert.Equal(t, 5, moved.Position)
}

func TestItemRepo_UpdateAndChildren(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, _, sprint := seedProject(t, db, "Items")
	repo := NewSQLiteItemRepo(db)

	story := testutil.NewTestItem(proj.ID, sprint.ID, "Story")
	require.NoError(t, repo.Create(ctx, story))
	task := testutil.NewTestTask(proj.ID, sprint.ID, story.ID, "Task", testutil.WithEstimatedHours("4"))
	require.NoError(t, repo.Create(ctx, task))

	children, err := repo.ListChildren(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.True(t, children[0].IsChildOf(story.ID))

	story.Status = "done"
	story.StoryPoints = testutil.DecPtr("5")
	require.NoError(t, repo.Update(ctx, story))
	got, err := repo.GetByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", got.Status)
	assert.True(t, got.StoryPoints.Equal(testutil.Dec("5")))

	// Deleting the parent removes its tasks.
	require.NoError(t, repo.Delete(ctx, story.ID))
	_, err = repo.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
