package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

func TestScopeRepo_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, db, "Scopes")
	repo := NewSQLiteScopeRepo(db)

	got, err := repo.GetByID(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 1", got.Name)
	assert.Equal(t, testutil.Day("2025-01-06"), got.StartDate)
	assert.Equal(t, testutil.Day("2025-01-17"), got.EndDate)
	assert.False(t, got.IsProductBacklog)
	assert.Equal(t, domain.ScopeOpen, got.Status)

	backlog, err := repo.GetProductBacklog(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, pb.ID, backlog.ID)
	assert.True(t, backlog.StartDate.IsZero(), "product backlog has no dates")
}

func TestScopeRepo_ListOrdersBacklogThenSprintsByStart(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint1 := seedProject(t, db, "Scopes")
	repo := NewSQLiteScopeRepo(db)

	sprint0 := testutil.NewTestScope(proj.ID, "Sprint 0", testutil.WithDates("2024-12-16", "2025-01-03"))
	require.NoError(t, repo.Create(ctx, sprint0))

	all, err := repo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{pb.ID, sprint0.ID, sprint1.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	sprints, err := repo.ListSprints(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, sprints, 2)
	assert.Equal(t, sprint0.ID, sprints[0].ID)
}

func TestScopeRepo_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, _, sprint := seedProject(t, db, "Scopes")
	repo := NewSQLiteScopeRepo(db)

	sprint.Status = domain.ScopeClosed
	sprint.Goal = "Checkout flow"
	require.NoError(t, repo.Update(ctx, sprint))

	got, err := repo.GetByID(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScopeClosed, got.Status)
	assert.Equal(t, "Checkout flow", got.Goal)

	require.NoError(t, repo.Delete(ctx, sprint.ID))
	_, err = repo.GetByID(ctx, sprint.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
