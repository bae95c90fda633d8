package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

// seedProject creates a project with its product backlog and one sprint.
func seedProject(t *testing.T, database *sql.DB, name string) (*domain.Project, *domain.Scope, *domain.Scope) {
	t.Helper()
	ctx := context.Background()

	proj := testutil.NewTestProject(name)
	require.NoError(t, NewSQLiteProjectRepo(database).Create(ctx, proj))

	scopes := NewSQLiteScopeRepo(database)
	pb := testutil.NewTestScope(proj.ID, "Product backlog", testutil.AsProductBacklog())
	require.NoError(t, scopes.Create(ctx, pb))
	sprint := testutil.NewTestScope(proj.ID, "Sprint 1")
	require.NoError(t, scopes.Create(ctx, sprint))

	return proj, pb, sprint
}

func TestProjectRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Webshop")
	require.NoError(t, repo.Create(ctx, proj))

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)
	assert.Equal(t, "Webshop", fetched.Name)
	assert.True(t, proj.CreatedAt.Equal(fetched.CreatedAt))
}

func TestProjectRepo_GetByName_CaseInsensitive(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Webshop")
	require.NoError(t, repo.Create(ctx, proj))

	fetched, err := repo.GetByName(ctx, "WEBSHOP")
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestProjectRepo_ListAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	a := testutil.NewTestProject("A")
	b := testutil.NewTestProject("B")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 2)

	require.NoError(t, repo.Delete(ctx, a.ID))
	projects, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, b.ID, projects[0].ID)

	assert.ErrorIs(t, repo.Delete(ctx, a.ID), domain.ErrNotFound)
}
