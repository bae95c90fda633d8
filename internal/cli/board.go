package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/sprintplan/internal/cli/formatter"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

type boardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Grab     key.Binding
	RaiseRow key.Binding
	LowerRow key.Binding
	Save     key.Binding
	Reset    key.Binding
	Quit     key.Binding
}

func newBoardKeyMap() boardKeyMap {
	return boardKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Grab:     key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "grab/drop")),
		RaiseRow: key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		LowerRow: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Grab, k.Save, k.Reset, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Grab},
		{k.RaiseRow, k.LowerRow},
		{k.Save, k.Reset, k.Quit},
	}
}

type boardRow struct {
	item   *domain.BacklogItem
	closed bool
}

type boardLoadedMsg struct {
	rows []boardRow
	err  error
}

type boardSavedMsg struct {
	placements []domain.Placement
	err        error
}

// boardModel reorders the backlog items of one scope on screen and commits
// the new order in a single bulk reorder.
type boardModel struct {
	ctx   context.Context
	app   *App
	scope *domain.Scope

	rows    []boardRow
	loaded  []boardRow
	cursor  int
	grabbed bool
	dirty   bool
	saved   bool

	status string
	err    error
	keys   boardKeyMap
	help   help.Model
}

func newBoardModel(ctx context.Context, app *App, scope *domain.Scope) *boardModel {
	return &boardModel{
		ctx:   ctx,
		app:   app,
		scope: scope,
		keys:  newBoardKeyMap(),
		help:  help.New(),
	}
}

func (m *boardModel) Init() tea.Cmd {
	return m.load
}

func (m *boardModel) load() tea.Msg {
	items, err := m.app.Items.ListByScope(m.ctx, m.scope.ID)
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	settings := m.app.Settings.Settings()
	closed := settings.ClosedStatuses()
	var rows []boardRow
	for _, it := range settings.KindRegistry().BacklogItems(items) {
		rows = append(rows, boardRow{item: it, closed: closed.Has(it.Status)})
	}
	return boardLoadedMsg{rows: rows}
}

// order returns the item IDs in on-screen order.
func (m *boardModel) order() []string {
	ids := make([]string, len(m.rows))
	for i, r := range m.rows {
		ids[i] = r.item.ID
	}
	return ids
}

func (m *boardModel) save() tea.Cmd {
	order := m.order()
	return func() tea.Msg {
		placements, err := m.app.Ordering.BulkReorder(m.ctx, m.scope.ID, order)
		return boardSavedMsg{placements: placements, err: err}
	}
}

// swap moves the row under the cursor by delta and follows it.
func (m *boardModel) swap(delta int) {
	to := m.cursor + delta
	if to < 0 || to >= len(m.rows) {
		return
	}
	m.rows[m.cursor], m.rows[to] = m.rows[to], m.rows[m.cursor]
	m.cursor = to
	m.dirty = true
	m.status = ""
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		m.err = msg.err
		m.rows = msg.rows
		m.loaded = append([]boardRow(nil), msg.rows...)
		return m, nil

	case boardSavedMsg:
		if msg.err != nil {
			m.status = formatter.StyleRed.Render(msg.err.Error())
			return m, nil
		}
		m.dirty = false
		m.saved = true
		m.loaded = append([]boardRow(nil), m.rows...)
		m.status = formatter.StyleGreen.Render(fmt.Sprintf("Saved %d positions", len(msg.placements)))
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Grab):
			if len(m.rows) > 0 {
				m.grabbed = !m.grabbed
			}
		case key.Matches(msg, m.keys.RaiseRow):
			m.swap(-1)
		case key.Matches(msg, m.keys.LowerRow):
			m.swap(1)
		case key.Matches(msg, m.keys.Up):
			if m.grabbed {
				m.swap(-1)
			} else if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.grabbed {
				m.swap(1)
			} else if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Reset):
			m.rows = append([]boardRow(nil), m.loaded...)
			m.grabbed = false
			m.dirty = false
			m.status = ""
		case key.Matches(msg, m.keys.Save):
			if m.dirty {
				m.grabbed = false
				return m, m.save()
			}
			m.status = formatter.Dim("Nothing to save")
		}
	}
	return m, nil
}

func (m *boardModel) View() string {
	var b strings.Builder
	title := m.scope.Name
	if m.dirty {
		title += " *"
	}
	b.WriteString(formatter.StyleHeader.Render(title) + "\n\n")

	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render(m.err.Error()) + "\n")
		return b.String()
	}
	if len(m.rows) == 0 {
		b.WriteString(formatter.Dim("No items.") + "\n")
	}
	for i, r := range m.rows {
		marker := "  "
		line := r.item.Ref() + " " + r.item.Title
		if r.item.StoryPoints != nil {
			line += formatter.Dim(" · " + r.item.StoryPoints.String() + " sp")
		}
		if r.closed {
			line = formatter.Dim(line)
		}
		if i == m.cursor {
			marker = formatter.StyleHeader.Render("› ")
			if m.grabbed {
				marker = formatter.StyleYellowBold.Render("≡ ")
				line = formatter.StyleYellowBold.Render(r.item.Ref() + " " + r.item.Title)
			}
		}
		b.WriteString(marker + line + "\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func runBoard(m *boardModel) error {
	_, err := tea.NewProgram(m).Run()
	return err
}

func newBoardCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "board [SCOPE]",
		Short: "Reorder a scope interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !app.interactive() {
				return fmt.Errorf("board needs an interactive terminal, use \"item sort\" instead")
			}
			p, err := project(ctx)
			if err != nil {
				return err
			}
			scope, err := resolveScope(ctx, app, p.ID, firstOr(args, ""))
			if err != nil {
				return err
			}
			m := newBoardModel(ctx, app, scope)
			run := app.RunBoard
			if run == nil {
				run = runBoard
			}
			if err := run(m); err != nil {
				return err
			}
			if m.dirty {
				outln(cmd, "Discarded unsaved changes.")
			}
			return nil
		},
	}
}
