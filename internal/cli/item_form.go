package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/sprintplan/internal/cli/formatter"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

// itemFormTheme styles the two inputs and the kind select of the item
// form; everything else keeps the base theme.
func itemFormTheme() *huh.Theme {
	t := huh.ThemeBase()
	accent := lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	dim := lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Focused.Title = accent.Bold(true)
	t.Focused.SelectSelector = accent
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.TextInput.Cursor = accent
	t.Focused.TextInput.Placeholder = dim
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = dim
	t.Blurred.SelectedOption = dim
	t.Blurred.TextInput.Text = dim
	return t
}

// itemForm asks for the fields of a new backlog item.
type itemForm struct {
	Title  string
	Kind   string
	Points string
	form   *huh.Form
}

func newItemForm(kinds []string, kind string) *itemForm {
	f := &itemForm{Kind: kind}
	if f.Kind == "" && len(kinds) > 0 {
		f.Kind = kinds[0]
	}
	options := make([]huh.Option[string], len(kinds))
	for i, k := range kinds {
		options[i] = huh.NewOption(k, k)
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&f.Title).
				Validate(validateRequired),
			huh.NewSelect[string]().
				Title("Kind").
				Options(options...).
				Value(&f.Kind),
			huh.NewInput().
				Title("Story points (blank for unestimated)").
				Placeholder("3").
				Value(&f.Points).
				Validate(validateOptionalPoints),
		),
	).WithTheme(itemFormTheme()).WithShowHelp(false)
	return f
}

func runItemForm(f *itemForm) error {
	return f.form.Run()
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// validateOptionalPoints accepts blank or a non-negative number, "1,5" included.
func validateOptionalPoints(s string) error {
	if _, err := domain.ParseStoryPoints(s); err != nil {
		return fmt.Errorf("enter a non-negative number")
	}
	return nil
}
