package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

// testEnv wires every service over one database, the way the CLI does.
type testEnv struct {
	db       *sql.DB
	uow      db.UnitOfWork
	settings *config.Settings
	locks    *ScopeLocks
	catalog  *ActivityCatalog

	projects ProjectService
	scopes   ScopeService
	items    ItemService
	ordering OrderingService
	deps     DependencyService
	efforts  EffortService
	members  MemberService
	planning PlanningService
	reports  SprintReportService
	imports  ImportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvOn(t, testutil.NewTestDB(t), config.Default())
}

func newTestEnvOn(t *testing.T, database *sql.DB, settings *config.Settings) *testEnv {
	t.Helper()
	uow := testutil.NewTestUoW(database)
	locks := NewScopeLocks()
	catalog := NewActivityCatalog(repository.NewSQLiteActivityRepo(database), settings)

	return &testEnv{
		db:       database,
		uow:      uow,
		settings: settings,
		locks:    locks,
		catalog:  catalog,
		projects: NewProjectService(repository.NewSQLiteProjectRepo(database), uow),
		scopes:   NewScopeService(repository.NewSQLiteScopeRepo(database), uow, locks),
		items: NewItemService(
			repository.NewSQLiteItemRepo(database),
			repository.NewSQLitePendingEffortRepo(database),
			repository.NewSQLiteTimeLogRepo(database),
			repository.NewSQLiteMemberRepo(database),
			catalog, uow, settings,
		),
		ordering: NewOrderingService(repository.NewSQLiteItemRepo(database), uow, settings, locks),
		deps:     NewDependencyService(repository.NewSQLiteDependencyRepo(database), uow),
		efforts:  NewEffortService(repository.NewSQLiteEffortRepo(database), uow, settings),
		members:  NewMemberService(repository.NewSQLiteMemberRepo(database), repository.NewSQLiteActivityRepo(database), catalog),
		planning: NewPlanningService(repository.NewSQLiteScopeRepo(database), uow, settings, locks),
		reports:  NewSprintReportService(uow, settings),
		imports:  NewImportService(uow, settings, catalog),
	}
}

// project creates a project and returns it with its product backlog.
func (e *testEnv) project(t *testing.T, name string) (*domain.Project, *domain.Scope) {
	t.Helper()
	ctx := context.Background()
	p := &domain.Project{Name: name}
	require.NoError(t, e.projects.Create(ctx, p))
	backlog, err := e.scopes.ProductBacklog(ctx, p.ID)
	require.NoError(t, err)
	return p, backlog
}

func (e *testEnv) sprint(t *testing.T, projectID, name, start, end string) *domain.Scope {
	t.Helper()
	sc := testutil.NewTestScope(projectID, name, testutil.WithDates(start, end))
	sc.ID = ""
	require.NoError(t, e.scopes.Create(context.Background(), sc))
	return sc
}

// add appends a story to scopeID.
func (e *testEnv) add(t *testing.T, projectID, scopeID, title string, opts ...testutil.ItemOption) *domain.BacklogItem {
	t.Helper()
	it := testutil.NewTestItem(projectID, scopeID, title, opts...)
	require.NoError(t, e.ordering.Create(context.Background(), it, false))
	return it
}

func (e *testEnv) addTask(t *testing.T, parent *domain.BacklogItem, title string, opts ...testutil.ItemOption) *domain.BacklogItem {
	t.Helper()
	it := testutil.NewTestTask(parent.ProjectID, "", parent.ID, title, opts...)
	require.NoError(t, e.ordering.Create(context.Background(), it, false))
	return it
}

func (e *testEnv) member(t *testing.T, name string) *domain.Member {
	t.Helper()
	m := &domain.Member{DisplayName: name}
	require.NoError(t, e.members.AddMember(context.Background(), m))
	return m
}

// order returns the scope's backlog item IDs in position order.
func (e *testEnv) order(t *testing.T, scopeID string) []string {
	t.Helper()
	items, err := e.items.ListByScope(context.Background(), scopeID)
	require.NoError(t, err)
	var ids []string
	for _, it := range e.settings.KindRegistry().BacklogItems(items) {
		ids = append(ids, it.ID)
	}
	return ids
}

func (e *testEnv) reload(t *testing.T, id string) *domain.BacklogItem {
	t.Helper()
	it, err := e.items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return it
}

func ids(items ...*domain.BacklogItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
