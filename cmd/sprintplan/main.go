package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/sprintplan/internal/cli"
	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/repository"
	"github.com/alexanderramin/sprintplan/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := cli.ParseGlobalFlags(args)
	if err != nil {
		return err
	}

	loader, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	settings := loader.Settings()

	database, err := db.OpenDB(settings.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	var observer service.UseCaseObserver = service.NoopUseCaseObserver{}
	if flags.Log {
		observer = service.NewLogUseCaseObserver(os.Stderr)
	}

	// Wire repositories
	projectRepo := repository.NewSQLiteProjectRepo(database)
	scopeRepo := repository.NewSQLiteScopeRepo(database)
	itemRepo := repository.NewSQLiteItemRepo(database)
	memberRepo := repository.NewSQLiteMemberRepo(database)
	activityRepo := repository.NewSQLiteActivityRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	locks := service.NewScopeLocks()
	catalog := service.NewActivityCatalog(activityRepo, loader)

	// Reviewing activities are configured, so the classification cache
	// follows the file.
	loader.OnChange(func(*config.Settings) { catalog.Invalidate() })
	loader.Watch(func(err error) {
		fmt.Fprintf(os.Stderr, "Warning: keeping previous config: %v\n", err)
	})

	app := &cli.App{
		Projects: service.NewProjectService(projectRepo, uow, observer),
		Scopes:   service.NewScopeService(scopeRepo, uow, locks, observer),
		Items: service.NewItemService(
			itemRepo,
			repository.NewSQLitePendingEffortRepo(database),
			repository.NewSQLiteTimeLogRepo(database),
			memberRepo,
			catalog, uow, loader, observer,
		),
		Ordering: service.NewOrderingService(itemRepo, uow, loader, locks, observer),
		Deps:     service.NewDependencyService(repository.NewSQLiteDependencyRepo(database), uow, observer),
		Efforts:  service.NewEffortService(repository.NewSQLiteEffortRepo(database), uow, loader, observer),
		Members:  service.NewMemberService(memberRepo, activityRepo, catalog),
		Planning: service.NewPlanningService(scopeRepo, uow, loader, locks, observer),
		Reports:  service.NewSprintReportService(uow, loader, observer),
		Import:   service.NewImportService(uow, loader, catalog, observer),
		Settings: loader,
		Now:      time.Now,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	root := cli.NewRootCmd(app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}
