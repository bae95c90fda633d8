package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

func TestEffortRepo_UpsertReplacesSameDay(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, _, sprint := seedProject(t, db, "Effort")
	ann := testutil.NewTestMember("Ann")
	bob := testutil.NewTestMember("Bob")
	members := NewSQLiteMemberRepo(db)
	require.NoError(t, members.Create(ctx, ann))
	require.NoError(t, members.Create(ctx, bob))
	repo := NewSQLiteEffortRepo(db)

	mon := testutil.Day("2025-01-06")
	tue := testutil.Day("2025-01-07")
	require.NoError(t, repo.Upsert(ctx, &domain.EffortRecord{ScopeID: sprint.ID, MemberID: ann.ID, Date: tue, EstimatedHours: testutil.Dec("6")}))
	require.NoError(t, repo.Upsert(ctx, &domain.EffortRecord{ScopeID: sprint.ID, MemberID: bob.ID, Date: mon, EstimatedHours: testutil.Dec("4")}))
	require.NoError(t, repo.Upsert(ctx, &domain.EffortRecord{ScopeID: sprint.ID, MemberID: bob.ID, Date: mon, EstimatedHours: testutil.Dec("7.5")}))

	records, err := repo.ListByScope(ctx, sprint.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, mon, records[0].Date)
	assert.True(t, records[0].EstimatedHours.Equal(testutil.Dec("7.5")))
	assert.Equal(t, ann.ID, records[1].MemberID)

	require.NoError(t, repo.Delete(ctx, sprint.ID, ann.ID, tue))
	assert.ErrorIs(t, repo.Delete(ctx, sprint.ID, ann.ID, tue), domain.ErrNotFound)
}

func TestPendingEffortRepo_MarksByItemAndScope(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, pb, sprint := seedProject(t, db, "Pending")
	items := NewSQLiteItemRepo(db)
	repo := NewSQLitePendingEffortRepo(db)

	story := testutil.NewTestItem(proj.ID, sprint.ID, "Story")
	require.NoError(t, items.Create(ctx, story))
	t1 := testutil.NewTestTask(proj.ID, sprint.ID, story.ID, "T1")
	t2 := testutil.NewTestTask(proj.ID, sprint.ID, story.ID, "T2")
	elsewhere := testutil.NewTestItem(proj.ID, pb.ID, "Elsewhere")
	for _, it := range []*domain.BacklogItem{t1, t2, elsewhere} {
		require.NoError(t, items.Create(ctx, it))
	}

	mark := func(itemID, day, hours string) {
		require.NoError(t, repo.Upsert(ctx, &domain.PendingEffortMark{ItemID: itemID, Date: testutil.Day(day), RemainingHours: testutil.Dec(hours)}))
	}
	mark(t1.ID, "2025-01-08", "3")
	mark(t1.ID, "2025-01-06", "8")
	mark(t1.ID, "2025-01-08", "2.5")
	mark(t2.ID, "2025-01-07", "5")
	mark(elsewhere.ID, "2025-01-07", "1")

	marks, err := repo.ListByItem(ctx, t1.ID)
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.Equal(t, testutil.Day("2025-01-06"), marks[0].Date)
	assert.True(t, marks[1].RemainingHours.Equal(testutil.Dec("2.5")))

	byItem, err := repo.ListByScope(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Len(t, byItem, 2)
	assert.Len(t, byItem[t1.ID], 2)
	assert.Len(t, byItem[t2.ID], 1)
	assert.NotContains(t, byItem, elsewhere.ID)
}
