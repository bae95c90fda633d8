package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

func TestConvert_MinimalProject(t *testing.T) {
	gen, err := Convert(validMinimalSchema(), Refs{})
	require.NoError(t, err)

	assert.NotEmpty(t, gen.Project.ID)
	assert.Equal(t, "Webshop", gen.Project.Name)

	require.Len(t, gen.Scopes, 1)
	pb := gen.Scopes[0]
	assert.True(t, pb.IsProductBacklog)
	assert.Equal(t, ProductBacklogName, pb.Name)
	assert.NoError(t, pb.Validate())

	require.Len(t, gen.Items, 1)
	it := gen.Items[0]
	assert.Equal(t, pb.ID, it.ScopeID)
	assert.Equal(t, gen.Project.ID, it.ProjectID)
	assert.Equal(t, 1, it.Seq)
	assert.Equal(t, 1, it.Position)
	assert.Equal(t, "", it.Status, "status is defaulted by the caller")
	require.NotNil(t, it.StoryPoints)
	assert.Equal(t, "3", it.StoryPoints.String())
	assert.Empty(t, gen.Dependencies)
}

func TestConvert_FullProject(t *testing.T) {
	refs := Refs{
		Members:    map[string]string{"ana": "m-ana", "bo": "m-bo"},
		Activities: map[string]string{"dev": "a-dev", "rev": "a-rev"},
	}
	gen, err := Convert(validFullSchema(), refs)
	require.NoError(t, err)

	require.Len(t, gen.Scopes, 3)
	s1, s2 := gen.Scopes[1], gen.Scopes[2]
	assert.Equal(t, domain.ScopeClosed, s1.Status)
	assert.Equal(t, domain.ScopeOpen, s2.Status)
	assert.Equal(t, testutil.Day("2025-01-06"), s1.StartDate)
	assert.NoError(t, s1.Validate())

	require.Len(t, gen.Items, 4)
	login, api, cart, pay := gen.Items[0], gen.Items[1], gen.Items[2], gen.Items[3]

	assert.Equal(t, s1.ID, login.ScopeID)
	assert.Equal(t, testutil.Day("2025-01-02"), domain.Day(login.CreatedAt))
	assert.True(t, login.ScheduledIn(s1, false))

	require.NotNil(t, api.ParentID)
	assert.Equal(t, login.ID, *api.ParentID)
	assert.Equal(t, 2, api.Position, "positions count per scope in file order")
	assert.Nil(t, api.StoryPoints)
	assert.Equal(t, "6", api.EstimatedHours.String())

	assert.Equal(t, gen.Scopes[0].ID, cart.ScopeID)
	assert.Equal(t, 1, cart.Position)
	assert.Equal(t, 2, pay.Position)
	assert.Equal(t, "1.5", cart.StoryPoints.String())
	require.NotNil(t, cart.TargetRelease)
	assert.Equal(t, "1.0", *cart.TargetRelease)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{login.Seq, api.Seq, cart.Seq, pay.Seq})

	require.Len(t, gen.Dependencies, 1)
	assert.Equal(t, domain.Dependency{PredecessorID: cart.ID, SuccessorID: pay.ID, Kind: domain.DependencyPrecedes}, gen.Dependencies[0])

	require.Len(t, gen.Efforts, 1)
	assert.Equal(t, "m-ana", gen.Efforts[0].MemberID)
	assert.Equal(t, s1.ID, gen.Efforts[0].ScopeID)

	require.Len(t, gen.PendingEfforts, 1)
	assert.Equal(t, api.ID, gen.PendingEfforts[0].ItemID)

	require.Len(t, gen.TimeLogs, 1)
	log := gen.TimeLogs[0]
	assert.Equal(t, "m-bo", log.MemberID)
	assert.Equal(t, "a-rev", log.ActivityID)
	assert.True(t, log.Hours.Equal(testutil.Dec("1.5")))
	assert.NotEmpty(t, log.ID)
}
