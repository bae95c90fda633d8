package formatter

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/alexanderramin/sprintplan/internal/domain"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		return boxStyle.Render(titleRendered + "\n\n" + strings.TrimRight(content, "\n"))
	}
	return boxStyle.Render(strings.TrimRight(content, "\n"))
}

// FormatPoints prints a story-point estimate, "--" when unestimated.
func FormatPoints(d *decimal.Decimal) string {
	if d == nil {
		return Dim("--")
	}
	return d.String()
}

// FormatHours prints hours as "6h" or "1.5h".
func FormatHours(d decimal.Decimal) string {
	return d.String() + "h"
}

// FormatOptionalHours prints hours, "--" when never recorded.
func FormatOptionalHours(d *decimal.Decimal) string {
	if d == nil {
		return Dim("--")
	}
	return FormatHours(*d)
}

// FormatDay prints a calendar day as YYYY-MM-DD, "--" for the zero time.
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return Dim("--")
	}
	return t.Format(domain.DateLayout)
}

// DateRange prints a sprint's dates, or "product backlog" for the backlog.
func DateRange(s *domain.Scope) string {
	if s.IsProductBacklog {
		return StylePurple.Render("product backlog")
	}
	return FormatDay(s.StartDate) + Dim(" → ") + FormatDay(s.EndDate)
}

// ScopeStatusPill returns a colored status indicator for a scope.
func ScopeStatusPill(status domain.ScopeStatus) string {
	switch status {
	case domain.ScopeOpen:
		return StyleGreen.Render("● Open")
	case domain.ScopeClosed:
		return StyleDim.Render("✔ Closed")
	default:
		return StyleDim.Render(string(status))
	}
}

// ItemStatusPill colors an item status: dim when closed, green otherwise.
func ItemStatusPill(status string, closed bool) string {
	if closed {
		return StyleDim.Render("✔ " + status)
	}
	if status == "in_progress" {
		return StyleYellow.Render("▶ " + status)
	}
	return StyleGreen.Render("○ " + status)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}
