package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// resolveProject resolves ref, or the only project when ref is empty.
func resolveProject(ctx context.Context, app *App, ref string) (*domain.Project, error) {
	if strings.TrimSpace(ref) != "" {
		return app.Projects.Resolve(ctx, ref)
	}
	projects, err := app.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(projects) {
	case 0:
		return nil, fmt.Errorf("no projects yet, create one with \"sprintplan project add NAME\"")
	case 1:
		return projects[0], nil
	default:
		return nil, fmt.Errorf("%d projects exist, pick one with --project", len(projects))
	}
}

// resolveScope resolves ref within the project, defaulting to the product
// backlog when ref is empty.
func resolveScope(ctx context.Context, app *App, projectID, ref string) (*domain.Scope, error) {
	if strings.TrimSpace(ref) == "" {
		return app.Scopes.ProductBacklog(ctx, projectID)
	}
	return app.Scopes.Resolve(ctx, projectID, ref)
}

// resolveSprintID resolves ref within the project; empty means the current
// sprint, which the report services pick themselves.
func resolveSprintID(ctx context.Context, app *App, projectID, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", nil
	}
	s, err := app.Scopes.Resolve(ctx, projectID, ref)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

func resolveItem(ctx context.Context, app *App, projectID, ref string) (*domain.BacklogItem, error) {
	return app.Items.GetByRef(ctx, projectID, ref)
}

// scopeRefs maps every item of a scope to its "#n" reference.
func scopeRefs(ctx context.Context, app *App, scopeID string) (map[string]string, error) {
	items, err := app.Items.ListByScope(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]string, len(items))
	for _, it := range items {
		refs[it.ID] = it.Ref()
	}
	return refs, nil
}
