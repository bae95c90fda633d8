package formatter

import (
	"strconv"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// FormatProjectList renders the project list inside a bordered box.
func FormatProjectList(projects []*domain.Project) string {
	headers := []string{"ID", "NAME", "CREATED"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			TruncID(p.ID),
			Bold(p.Name),
			FormatDay(p.CreatedAt),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows))
}

// ScopeRow is one scope with the number of backlog items it holds.
type ScopeRow struct {
	Scope *domain.Scope
	Items int
}

// FormatScopeList renders the scopes of a project, product backlog first.
func FormatScopeList(projectName string, scopes []ScopeRow) string {
	headers := []string{"ID", "NAME", "DATES", "STATUS", "ITEMS"}
	rows := make([][]string, 0, len(scopes))
	for _, s := range scopes {
		name := Bold(s.Scope.Name)
		if s.Scope.IsProductBacklog {
			name = StylePurple.Render(s.Scope.Name)
		}
		rows = append(rows, []string{
			TruncID(s.Scope.ID),
			name,
			DateRange(s.Scope),
			ScopeStatusPill(s.Scope.Status),
			strconv.Itoa(s.Items),
		})
	}
	return RenderBox(projectName, RenderTable(headers, rows, 4))
}
