package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/db"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/importer"
	"github.com/alexanderramin/sprintplan/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	settings config.Source
	catalog  *ActivityCatalog
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, settings config.Source, catalog *ActivityCatalog, observers ...UseCaseObserver) ImportService {
	return &importService{uow: uow, settings: settings, catalog: catalog, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportFile(ctx context.Context, filePath string) (*app.ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportSchema(ctx, schema)
}

// ImportSchema creates a new project from schema in one transaction; any
// failure leaves the database untouched.
func (s *importService) ImportSchema(ctx context.Context, schema *importer.ImportSchema) (result *app.ImportResult, err error) {
	fields := map[string]any{"project": schema.Project.Name}
	done := track(ctx, s.observer, "import", fields)
	defer func() { done(err) }()

	settings := s.settings.Settings()
	errs := importer.ValidateImportSchema(schema)
	errs = append(errs, validatePendingKinds(schema, settings.KindRegistry())...)
	if len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	addedActivities := false

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLiteProjectRepo(tx)
		if _, err := txProjects.GetByName(ctx, schema.Project.Name); err == nil {
			return &domain.ValidationError{Message: fmt.Sprintf("project %q already exists", schema.Project.Name)}
		} else if !domain.IsNotFound(err) {
			return err
		}

		refs, created, err := resolveSharedRefs(ctx, tx, schema)
		if err != nil {
			return err
		}
		addedActivities = created

		gen, err := importer.Convert(schema, refs)
		if err != nil {
			return fmt.Errorf("converting import schema: %w", err)
		}

		if err := txProjects.Create(ctx, gen.Project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		txScopes := repository.NewSQLiteScopeRepo(tx)
		for _, sc := range gen.Scopes {
			if err := txScopes.Create(ctx, sc); err != nil {
				return fmt.Errorf("creating scope %q: %w", sc.Name, err)
			}
		}
		txItems := repository.NewSQLiteItemRepo(tx)
		for _, it := range gen.Items {
			if it.Status == "" {
				it.Status = defaultStatus(settings, it.Kind)
			}
			if err := txItems.Create(ctx, it); err != nil {
				return fmt.Errorf("creating item %q: %w", it.Title, err)
			}
		}
		txDeps := repository.NewSQLiteDependencyRepo(tx)
		for i := range gen.Dependencies {
			if err := txDeps.Create(ctx, &gen.Dependencies[i]); err != nil {
				return fmt.Errorf("creating dependency: %w", err)
			}
		}
		txEfforts := repository.NewSQLiteEffortRepo(tx)
		for i := range gen.Efforts {
			if err := txEfforts.Upsert(ctx, &gen.Efforts[i]); err != nil {
				return fmt.Errorf("creating effort: %w", err)
			}
		}
		txPending := repository.NewSQLitePendingEffortRepo(tx)
		for i := range gen.PendingEfforts {
			if err := txPending.Upsert(ctx, &gen.PendingEfforts[i]); err != nil {
				return fmt.Errorf("creating pending effort: %w", err)
			}
		}
		txLogs := repository.NewSQLiteTimeLogRepo(tx)
		for i := range gen.TimeLogs {
			if err := txLogs.Create(ctx, &gen.TimeLogs[i]); err != nil {
				return fmt.Errorf("creating time log: %w", err)
			}
		}

		result = &app.ImportResult{
			ProjectID:       gen.Project.ID,
			ProjectName:     gen.Project.Name,
			ScopeCount:      len(gen.Scopes),
			ItemCount:       len(gen.Items),
			DependencyCount: len(gen.Dependencies),
			EffortCount:     len(gen.Efforts),
			TimeLogCount:    len(gen.TimeLogs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if addedActivities {
		s.catalog.Invalidate()
	}
	fields["items"] = result.ItemCount
	return result, nil
}

// resolveSharedRefs maps member and activity refs to stored records by
// name, creating the missing ones. created reports whether any activity
// was added.
func resolveSharedRefs(ctx context.Context, tx db.DBTX, schema *importer.ImportSchema) (refs importer.Refs, created bool, err error) {
	refs = importer.Refs{Members: make(map[string]string), Activities: make(map[string]string)}

	txMembers := repository.NewSQLiteMemberRepo(tx)
	for _, m := range schema.Members {
		name := strings.TrimSpace(m.Name)
		existing, err := txMembers.GetByName(ctx, name)
		if err == nil {
			refs.Members[m.Ref] = existing.ID
			continue
		}
		if !domain.IsNotFound(err) {
			return refs, false, err
		}
		member := &domain.Member{ID: uuid.New().String(), DisplayName: name}
		if err := txMembers.Create(ctx, member); err != nil {
			return refs, false, fmt.Errorf("creating member %q: %w", name, err)
		}
		refs.Members[m.Ref] = member.ID
	}

	txActivities := repository.NewSQLiteActivityRepo(tx)
	for _, a := range schema.Activities {
		name := strings.TrimSpace(a.Name)
		existing, err := txActivities.GetByName(ctx, name)
		if err == nil {
			refs.Activities[a.Ref] = existing.ID
			continue
		}
		if !domain.IsNotFound(err) {
			return refs, false, err
		}
		activity := &domain.Activity{ID: uuid.New().String(), Name: name}
		if err := txActivities.Create(ctx, activity); err != nil {
			return refs, false, fmt.Errorf("creating activity %q: %w", name, err)
		}
		refs.Activities[a.Ref] = activity.ID
		created = true
	}
	return refs, created, nil
}

// validatePendingKinds applies the configured kinds: pending effort is
// tracked on tasks only.
func validatePendingKinds(schema *importer.ImportSchema, kinds *domain.KindRegistry) []error {
	kindOf := make(map[string]string, len(schema.Items))
	for _, it := range schema.Items {
		kindOf[it.Ref] = it.Kind
	}
	var errs []error
	for i, p := range schema.PendingEfforts {
		kind, ok := kindOf[p.ItemRef]
		if !ok || kinds.IsTask(domain.ItemKind(kind)) {
			continue
		}
		errs = append(errs, fmt.Errorf("pending_efforts[%d].item_ref: %q is a %s, pending effort is tracked on tasks", i, p.ItemRef, kind))
	}
	return errs
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return &domain.ValidationError{Message: msg}
}
