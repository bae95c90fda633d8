package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/repository"
	"github.com/alexanderramin/sprintplan/internal/service"
	"github.com/alexanderramin/sprintplan/internal/testutil"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
// The clock is pinned to 2025-01-08, inside the default test sprint.
func testApp(t *testing.T) *App {
	t.Helper()
	db := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(db)
	settings := config.Default()
	locks := service.NewScopeLocks()
	catalog := service.NewActivityCatalog(repository.NewSQLiteActivityRepo(db), settings)

	itemRepo := repository.NewSQLiteItemRepo(db)
	scopeRepo := repository.NewSQLiteScopeRepo(db)
	memberRepo := repository.NewSQLiteMemberRepo(db)

	return &App{
		Projects: service.NewProjectService(repository.NewSQLiteProjectRepo(db), uow),
		Scopes:   service.NewScopeService(scopeRepo, uow, locks),
		Items: service.NewItemService(itemRepo, repository.NewSQLitePendingEffortRepo(db),
			repository.NewSQLiteTimeLogRepo(db), memberRepo, catalog, uow, settings),
		Ordering: service.NewOrderingService(itemRepo, uow, settings, locks),
		Deps:     service.NewDependencyService(repository.NewSQLiteDependencyRepo(db), uow),
		Efforts:  service.NewEffortService(repository.NewSQLiteEffortRepo(db), uow, settings),
		Members:  service.NewMemberService(memberRepo, repository.NewSQLiteActivityRepo(db), catalog),
		Planning: service.NewPlanningService(scopeRepo, uow, settings, locks),
		Reports:  service.NewSprintReportService(uow, settings),
		Import:   service.NewImportService(uow, settings, catalog),
		Settings: settings,
		Now:      func() time.Time { return testutil.Day("2025-01-08").Add(9 * time.Hour) },
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// mustExec runs a command that is expected to succeed.
func mustExec(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "sprintplan %v", args)
	return out
}

// seedBacklog creates the project "Webshop" with a sprint and three
// estimated product backlog items #1..#3.
func seedBacklog(t *testing.T, app *App) {
	t.Helper()
	mustExec(t, app, "project", "add", "Webshop")
	mustExec(t, app, "scope", "add", "Sprint 1", "--start", "2025-01-06", "--end", "2025-01-17")
	mustExec(t, app, "item", "add", "Checkout", "--points", "3", "--release", "1.0")
	mustExec(t, app, "item", "add", "Search", "--points", "2")
	mustExec(t, app, "item", "add", "Wishlist", "--points", "5")
}

// backlogOrder returns the refs of the product backlog in position order.
func backlogOrder(t *testing.T, app *App) []string {
	t.Helper()
	ctx := context.Background()
	p, err := resolveProject(ctx, app, "")
	require.NoError(t, err)
	backlog, err := app.Scopes.ProductBacklog(ctx, p.ID)
	require.NoError(t, err)
	items, err := app.Items.ListByScope(ctx, backlog.ID)
	require.NoError(t, err)
	var refs []string
	for _, it := range app.Settings.Settings().KindRegistry().BacklogItems(items) {
		refs = append(refs, it.Ref())
	}
	return refs
}

// --- project ---

func TestProjectCmd_AddListRemove(t *testing.T) {
	app := testApp(t)

	out := mustExec(t, app, "project", "add", "Webshop")
	assert.Contains(t, out, "Created project Webshop")

	out = mustExec(t, app, "project", "list")
	assert.Contains(t, out, "PROJECTS")
	assert.Contains(t, out, "Webshop")

	mustExec(t, app, "project", "rm", "Webshop")
	out = mustExec(t, app, "project", "list")
	assert.Contains(t, out, "No projects found.")
}

func TestProjectCmd_DuplicateName(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "project", "add", "Webshop")

	_, err := executeCmd(t, app, "project", "add", "Webshop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestProjectResolution(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "item", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no projects yet")

	mustExec(t, app, "project", "add", "Webshop")
	mustExec(t, app, "project", "add", "Intranet")

	_, err = executeCmd(t, app, "item", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 projects exist")

	out := mustExec(t, app, "--project", "Intranet", "item", "add", "Login")
	assert.Contains(t, out, "Created #1 Login in Product backlog at position 1")
	out = mustExec(t, app, "-p", "Webshop", "item", "list")
	assert.NotContains(t, out, "Login")
}

// --- scope ---

func TestScopeCmd_AddListClose(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "project", "add", "Webshop")

	out := mustExec(t, app, "scope", "add", "Sprint 1", "--start", "2025-01-06", "--end", "2025-01-17", "--goal", "Checkout")
	assert.Contains(t, out, "Created sprint Sprint 1 (2025-01-06 → 2025-01-17)")

	mustExec(t, app, "item", "add", "Pay", "--scope", "Sprint 1")
	out = mustExec(t, app, "sprint", "list")
	assert.Contains(t, out, "Product backlog")
	assert.Contains(t, out, "Sprint 1")
	assert.Contains(t, out, "2025-01-06")

	out = mustExec(t, app, "scope", "close", "Sprint 1")
	assert.Contains(t, out, "Closed Sprint 1")
	out = mustExec(t, app, "scope", "list")
	assert.Contains(t, out, "Closed")
}

func TestScopeCmd_RequiresDates(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "project", "add", "Webshop")

	_, err := executeCmd(t, app, "scope", "add", "Sprint 1", "--start", "2025-01-06")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end")

	_, err = executeCmd(t, app, "scope", "add", "Sprint 1", "--start", "06/01/2025", "--end", "2025-01-17")
	require.Error(t, err)
}

// --- item ---

func TestItemCmd_AddAndList(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "project", "add", "Webshop")

	out := mustExec(t, app, "item", "add", "Checkout", "--points", "3", "--release", "1.0")
	assert.Contains(t, out, "Created #1 Checkout in Product backlog at position 1")
	out = mustExec(t, app, "item", "add", "Search", "--points", "1,5")
	assert.Contains(t, out, "Created #2 Search in Product backlog at position 2")
	out = mustExec(t, app, "item", "add", "Pay", "--parent", "#1", "--hours", "6")
	assert.Contains(t, out, "Created #3 Pay under #1")

	out = mustExec(t, app, "item", "list")
	assert.Contains(t, out, "PRODUCT BACKLOG")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "3 sp")
	assert.Contains(t, out, "→ 1.0")
	assert.Contains(t, out, "1.5 sp")
	assert.Contains(t, out, "└─")
	assert.Contains(t, out, "6h")
}

func TestItemCmd_AddRejectsBadInput(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "project", "add", "Webshop")

	_, err := executeCmd(t, app, "item", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")

	_, err = executeCmd(t, app, "item", "add", "Pay", "--kind", "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tasks need --parent")

	_, err = executeCmd(t, app, "item", "add", "Pay", "--points", "lots")
	require.Error(t, err)

	_, err = executeCmd(t, app, "item", "add", "Pay", "--scope", "Sprint 9")
	require.Error(t, err)
}

func TestItemCmd_AddWithForm(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "project", "add", "Webshop")
	app.IsInteractive = func() bool { return true }
	app.RunForm = func(f *itemForm) error {
		f.Title = "Login fails"
		f.Kind = "bug"
		f.Points = "2"
		return nil
	}

	out := mustExec(t, app, "item", "add")
	assert.Contains(t, out, "Created #1 Login fails in Product backlog")

	p, err := resolveProject(context.Background(), app, "")
	require.NoError(t, err)
	it, err := app.Items.GetByRef(context.Background(), p.ID, "#1")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemKind("bug"), it.Kind)
	require.NotNil(t, it.StoryPoints)
	assert.Equal(t, "2", it.StoryPoints.String())
}

func TestItemCmd_MoveTopBottom(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	out := mustExec(t, app, "item", "move", "#3", "--before", "#1")
	assert.Contains(t, out, "POSITION")
	assert.Equal(t, []string{"#3", "#1", "#2"}, backlogOrder(t, app))

	mustExec(t, app, "item", "move", "#3", "--after", "#2")
	assert.Equal(t, []string{"#1", "#2", "#3"}, backlogOrder(t, app))

	mustExec(t, app, "item", "top", "#2")
	assert.Equal(t, []string{"#2", "#1", "#3"}, backlogOrder(t, app))

	mustExec(t, app, "item", "bottom", "#2")
	assert.Equal(t, []string{"#1", "#3", "#2"}, backlogOrder(t, app))
}

func TestItemCmd_MoveNeedsAnchor(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	_, err := executeCmd(t, app, "item", "move", "#1")
	require.Error(t, err)

	_, err = executeCmd(t, app, "item", "move", "#1", "--before", "#2", "--after", "#3")
	require.Error(t, err)
}

func TestItemCmd_Sort(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	mustExec(t, app, "item", "sort", "Product backlog", "#2", "#3", "#1")
	assert.Equal(t, []string{"#2", "#3", "#1"}, backlogOrder(t, app))

	_, err := executeCmd(t, app, "item", "sort", "Product backlog", "#2", "#3")
	require.Error(t, err)
	assert.Equal(t, []string{"#2", "#3", "#1"}, backlogOrder(t, app), "a rejected sort changes nothing")
}

func TestItemCmd_SortRespectsDependencies(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	out := mustExec(t, app, "dep", "add", "#1", "#2")
	assert.Contains(t, out, "#1 precedes #2")

	_, err := executeCmd(t, app, "item", "sort", "Product backlog", "#2", "#1", "#3")
	require.Error(t, err)
	var violation *domain.DependencyViolationError
	assert.ErrorAs(t, err, &violation)
	assert.Equal(t, []string{"#1", "#2", "#3"}, backlogOrder(t, app))

	out = mustExec(t, app, "dep", "check")
	assert.Contains(t, out, "no dependency conflicts")

	out = mustExec(t, app, "dep", "rm", "#1", "#2")
	assert.Contains(t, out, "Removed dependency #1 → #2")
	mustExec(t, app, "item", "sort", "Product backlog", "#2", "#1", "#3")
}

func TestItemCmd_RescopeAndRemove(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	out := mustExec(t, app, "item", "rescope", "#2", "Sprint 1")
	assert.Contains(t, out, "Moved #2 to Sprint 1 at position 1")
	assert.Equal(t, []string{"#1", "#3"}, backlogOrder(t, app))

	out = mustExec(t, app, "item", "list", "--scope", "Sprint 1")
	assert.Contains(t, out, "Search")

	out = mustExec(t, app, "item", "rm", "#1")
	assert.Contains(t, out, "Deleted #1 Checkout")
	assert.Equal(t, []string{"#3"}, backlogOrder(t, app))
}

func TestItemCmd_PointsAndStatus(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	out := mustExec(t, app, "item", "points", "#1", "0,5")
	assert.Contains(t, out, "#1 is now 0.5 sp")
	out = mustExec(t, app, "item", "points", "#1")
	assert.Contains(t, out, "Cleared the estimate of #1")

	out = mustExec(t, app, "item", "status", "#2", "done")
	assert.Contains(t, out, "#2 is now done")

	out = mustExec(t, app, "item", "show", "#2")
	assert.Contains(t, out, "#2 Search")
	assert.Contains(t, out, "done")
}

// --- effort, pending, log ---

func TestEffortAndLogCmds(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)
	mustExec(t, app, "item", "rescope", "#1", "Sprint 1")
	mustExec(t, app, "item", "add", "Build form", "--parent", "#1", "--hours", "8")

	out := mustExec(t, app, "member", "add", "Alice")
	assert.Contains(t, out, "Added member Alice")
	out = mustExec(t, app, "activity", "add", "review")
	assert.Contains(t, out, "Added activity review")

	out = mustExec(t, app, "effort", "set", "Alice", "6", "--date", "2025-01-08")
	assert.Contains(t, out, "Alice plans 6h on 2025-01-08 in Sprint 1")

	out = mustExec(t, app, "pending", "set", "#4", "5")
	assert.Contains(t, out, "#4 has 5h pending")

	out = mustExec(t, app, "log", "#4", "2,5", "-m", "Alice", "-a", "review")
	assert.Contains(t, out, "Logged 2.5h on #4 for Alice")

	_, err := executeCmd(t, app, "log", "#4", "2")
	require.Error(t, err, "the member is required")

	_, err = executeCmd(t, app, "log", "#4", "2", "-m", "Alice", "-a", "juggling")
	require.Error(t, err)

	out = mustExec(t, app, "stats", "Sprint 1")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "2.5h")

	out = mustExec(t, app, "burndown", "sprint")
	assert.Contains(t, out, "SPRINT 1")
	assert.Contains(t, out, "ESTIMATED")

	out = mustExec(t, app, "member", "list")
	assert.Contains(t, out, "Alice")
	out = mustExec(t, app, "activity", "list")
	assert.Contains(t, out, "review")
}

// --- planning reports ---

func TestPlanCmd_CustomVelocity(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	out := mustExec(t, app, "plan", "--velocity", "5")
	assert.Contains(t, out, "RELEASE PLAN")
	assert.Contains(t, out, "(custom)")
	assert.Contains(t, out, "Sprint +1")
	assert.Contains(t, out, "1.0 ready after Sprint +1")

	out = mustExec(t, app, "plan", "--velocity", "2")
	assert.Contains(t, out, "1.0 ready after Sprint +2")
}

func TestPlanCmd_EmptyBacklog(t *testing.T) {
	app := testApp(t)
	mustExec(t, app, "project", "add", "Webshop")

	out := mustExec(t, app, "plan")
	assert.Contains(t, out, "Nothing estimated to plan.")
}

func TestVelocityAndBurndownCmds(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	out := mustExec(t, app, "velocity")
	assert.Contains(t, out, "VELOCITY")
	assert.Contains(t, out, "ALL")
	assert.Contains(t, out, "SCHEDULED")

	out = mustExec(t, app, "burndown", "product", "--velocity-type", "custom", "--velocity", "4")
	assert.Contains(t, out, "PRODUCT BURNDOWN")
	assert.Contains(t, out, "REMAINING")

	out = mustExec(t, app, "hours-per-point")
	assert.Contains(t, out, "HOURS PER STORY POINT")
}

// --- import ---

func TestImportCmd(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "backlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`project:
  name: Imported
sprints:
  - ref: s1
    name: Sprint 1
    start_date: "2025-01-06"
    end_date: "2025-01-17"
items:
  - ref: login
    title: Login
    kind: story
    story_points: 3
  - ref: logout
    title: Logout
    kind: story
    sprint_ref: s1
dependencies:
  - predecessor_ref: login
    successor_ref: logout
`), 0o644))

	out := mustExec(t, app, "import", path)
	assert.Contains(t, out, "Imported project Imported: 2 scopes, 2 items, 1 dependencies")

	out = mustExec(t, app, "-p", "Imported", "item", "list")
	assert.Contains(t, out, "Login")
	out = mustExec(t, app, "-p", "Imported", "item", "list", "-s", "Sprint 1")
	assert.Contains(t, out, "Logout")

	_, err := executeCmd(t, app, "import", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

// --- board ---

func TestBoardCmd_RequiresTerminal(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)

	_, err := executeCmd(t, app, "board")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestBoardCmd_ReportsDiscardedChanges(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)
	app.IsInteractive = func() bool { return true }
	app.RunBoard = func(m *boardModel) error {
		d := newBoardDriver(t, m)
		d.Keys("Jq")
		return nil
	}

	out := mustExec(t, app, "board")
	assert.Contains(t, out, "Discarded unsaved changes.")
	assert.Equal(t, []string{"#1", "#2", "#3"}, backlogOrder(t, app))
}

func TestBoardCmd_SavesOrder(t *testing.T) {
	app := testApp(t)
	seedBacklog(t, app)
	app.IsInteractive = func() bool { return true }
	app.RunBoard = func(m *boardModel) error {
		d := newBoardDriver(t, m)
		d.Keys("Jsq")
		return nil
	}

	out := mustExec(t, app, "board", "Product backlog")
	assert.NotContains(t, out, "Discarded")
	assert.Equal(t, []string{"#2", "#1", "#3"}, backlogOrder(t, app))
}
