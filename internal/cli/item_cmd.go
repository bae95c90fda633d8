package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/sprintplan/internal/cli/formatter"
	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

func newItemCmd(app *App, project projectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage and order backlog items",
	}
	cmd.AddCommand(
		newItemAddCmd(app, project),
		newItemListCmd(app, project),
		newItemShowCmd(app, project),
		newItemMoveCmd(app, project),
		newItemEdgeCmd(app, project, true),
		newItemEdgeCmd(app, project, false),
		newItemRescopeCmd(app, project),
		newItemSortCmd(app, project),
		newItemRemoveCmd(app, project),
		newItemPointsCmd(app, project),
		newItemStatusCmd(app, project),
	)
	return cmd
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}

func newItemAddCmd(app *App, project projectFunc) *cobra.Command {
	var scopeRef, kind, parentRef, release string
	var top bool
	points := newDecimalFlag("story points")
	hours := newDecimalFlag("estimated hours")

	cmd := &cobra.Command{
		Use:   "add [TITLE]",
		Short: "Add a backlog item, or a task with --parent",
		Long: "Add a backlog item at the end of its scope (or the top with --top).\n" +
			"Without a title on a terminal, an interactive form asks for the fields.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			settings := app.Settings.Settings()
			kinds := settings.KindRegistry()

			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				if !app.interactive() || parentRef != "" {
					return fmt.Errorf("item title is required")
				}
				form := newItemForm(settings.Kinds.Backlog, kind)
				run := app.RunForm
				if run == nil {
					run = runItemForm
				}
				if err := run(form); err != nil {
					return err
				}
				title, kind = form.Title, form.Kind
				if err := points.Set(form.Points); err != nil {
					return err
				}
			}

			it := &domain.BacklogItem{
				ProjectID:      p.ID,
				Title:          title,
				StoryPoints:    points.value,
				EstimatedHours: hours.value,
				TargetRelease:  domain.StrPtr(strings.TrimSpace(release)),
			}
			var where string
			if parentRef != "" {
				parent, err := resolveItem(ctx, app, p.ID, parentRef)
				if err != nil {
					return err
				}
				it.ParentID = &parent.ID
				it.Kind = domain.ItemKind(domain.CoalesceStr(kind, firstOr(settings.Kinds.Task, "")))
				if !kinds.IsTask(it.Kind) {
					return fmt.Errorf("kind %q is not a task kind (kinds.task: %s)", it.Kind, strings.Join(settings.Kinds.Task, ", "))
				}
				where = "under " + parent.Ref()
			} else {
				scope, err := resolveScope(ctx, app, p.ID, scopeRef)
				if err != nil {
					return err
				}
				it.ScopeID = scope.ID
				it.Kind = domain.ItemKind(domain.CoalesceStr(kind, firstOr(settings.Kinds.Backlog, "")))
				if !kinds.IsBacklog(it.Kind) {
					return fmt.Errorf("kind %q is not a backlog kind (kinds.backlog: %s), tasks need --parent",
						it.Kind, strings.Join(settings.Kinds.Backlog, ", "))
				}
				where = "in " + scope.Name
			}

			if err := app.Ordering.Create(ctx, it, top); err != nil {
				return err
			}
			outf(cmd, "Created %s %s %s at position %d\n", it.Ref(), it.Title, where, it.Position)
			return nil
		},
	}
	cmd.Flags().StringVarP(&scopeRef, "scope", "s", "", "Scope name or ID (default: product backlog)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Item kind (default: first configured kind)")
	cmd.Flags().StringVar(&parentRef, "parent", "", "Parent backlog item; makes the new item a task")
	cmd.Flags().StringVar(&release, "release", "", "Target release")
	cmd.Flags().BoolVar(&top, "top", false, "Insert at the top instead of the end")
	cmd.Flags().Var(points, "points", "Story points")
	cmd.Flags().Var(hours, "hours", "Estimated hours")
	cmd.MarkFlagsMutuallyExclusive("scope", "parent")
	return cmd
}

// itemLines groups a scope's items into backlog items in position order,
// each with its tasks.
func itemLines(items []*domain.BacklogItem, settings *config.Settings) []formatter.ItemLine {
	kinds := settings.KindRegistry()
	closed := settings.ClosedStatuses()

	tasks := make(map[string][]formatter.ItemLine)
	for _, it := range items {
		if it.ParentID != nil && !kinds.IsBacklog(it.Kind) {
			tasks[*it.ParentID] = append(tasks[*it.ParentID], formatter.ItemLine{Item: it, Closed: closed.Has(it.Status)})
		}
	}
	var lines []formatter.ItemLine
	for _, it := range kinds.BacklogItems(items) {
		lines = append(lines, formatter.ItemLine{
			Item:   it,
			Closed: closed.Has(it.Status),
			Tasks:  tasks[it.ID],
		})
	}
	return lines
}

func newItemListCmd(app *App, project projectFunc) *cobra.Command {
	var scopeRef string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the items of a scope in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			scope, err := resolveScope(ctx, app, p.ID, scopeRef)
			if err != nil {
				return err
			}
			items, err := app.Items.ListByScope(ctx, scope.ID)
			if err != nil {
				return err
			}
			outln(cmd, formatter.FormatItemTree(scope.Name, itemLines(items, app.Settings.Settings())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&scopeRef, "scope", "s", "", "Scope name or ID (default: product backlog)")
	return cmd
}

func newItemShowCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show ITEM",
		Short: "Show an item with its effort, speed and people",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			it, err := resolveItem(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			insight, err := app.Items.Insight(ctx, it.ID)
			if err != nil {
				return err
			}
			scope, err := app.Scopes.GetByID(ctx, it.ScopeID)
			if err != nil {
				return err
			}
			children, err := app.Items.ListChildren(ctx, it.ID)
			if err != nil {
				return err
			}
			closed := app.Settings.Settings().ClosedStatuses()
			tasks := make([]formatter.ItemLine, len(children))
			for i, c := range children {
				tasks[i] = formatter.ItemLine{Item: c, Closed: closed.Has(c.Status)}
			}
			outln(cmd, formatter.FormatItemInsight(insight, scope.Name, tasks))
			return nil
		},
	}
}

// printPlacements reports the positions a reorder of scopeID assigned.
func printPlacements(ctx context.Context, cmd *cobra.Command, app *App, scopeID string, placements []domain.Placement) error {
	refs, err := scopeRefs(ctx, app, scopeID)
	if err != nil {
		return err
	}
	outln(cmd, formatter.FormatPlacements(placements, refs))
	return nil
}

func newItemMoveCmd(app *App, project projectFunc) *cobra.Command {
	var before, after string
	cmd := &cobra.Command{
		Use:   "move ITEM (--before ANCHOR | --after ANCHOR)",
		Short: "Place an item right before or after another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			it, err := resolveItem(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			anchor, err := resolveItem(ctx, app, p.ID, domain.CoalesceStr(before, after))
			if err != nil {
				return err
			}
			placements, err := app.Ordering.MoveRelative(ctx, it.ID, anchor.ID, after != "")
			if err != nil {
				return err
			}
			return printPlacements(ctx, cmd, app, it.ScopeID, placements)
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Item to place ITEM in front of")
	cmd.Flags().StringVar(&after, "after", "", "Item to place ITEM behind")
	cmd.MarkFlagsMutuallyExclusive("before", "after")
	cmd.MarkFlagsOneRequired("before", "after")
	return cmd
}

// newItemEdgeCmd builds "item top" and "item bottom".
func newItemEdgeCmd(app *App, project projectFunc, top bool) *cobra.Command {
	use, short := "bottom ITEM", "Move an item to the end of its scope"
	if top {
		use, short = "top ITEM", "Move an item to the top of its scope"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			it, err := resolveItem(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			move := app.Ordering.MoveToBottom
			if top {
				move = app.Ordering.MoveToTop
			}
			placements, err := move(ctx, it.ID)
			if err != nil {
				return err
			}
			return printPlacements(ctx, cmd, app, it.ScopeID, placements)
		},
	}
}

func newItemRescopeCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "rescope ITEM SCOPE",
		Short: "Move an item and its tasks to another sprint or the product backlog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			it, err := resolveItem(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			scope, err := app.Scopes.Resolve(ctx, p.ID, args[1])
			if err != nil {
				return err
			}
			placement, err := app.Ordering.MoveToScope(ctx, it.ID, scope.ID)
			if err != nil {
				return err
			}
			outf(cmd, "Moved %s to %s at position %d\n", it.Ref(), scope.Name, placement.Position)
			return nil
		},
	}
}

func newItemSortCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "sort SCOPE ITEM...",
		Short: "Reorder a whole scope; every backlog item must be listed once",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			scope, err := app.Scopes.Resolve(ctx, p.ID, args[0])
			if err != nil {
				return err
			}
			order := make([]string, 0, len(args)-1)
			for _, ref := range args[1:] {
				it, err := resolveItem(ctx, app, p.ID, ref)
				if err != nil {
					return err
				}
				order = append(order, it.ID)
			}
			placements, err := app.Ordering.BulkReorder(ctx, scope.ID, order)
			if err != nil {
				return err
			}
			return printPlacements(ctx, cmd, app, scope.ID, placements)
		},
	}
}

func newItemRemoveCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ITEM",
		Short: "Delete an item and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			it, err := resolveItem(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.Ordering.Delete(ctx, it.ID); err != nil {
				return err
			}
			outf(cmd, "Deleted %s %s\n", it.Ref(), it.Title)
			return nil
		},
	}
}

func newItemPointsCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "points ITEM [VALUE]",
		Short: "Set story points; without VALUE the estimate is cleared",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			it, err := resolveItem(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			}
			if err := app.Items.SetStoryPoints(ctx, it.ID, raw); err != nil {
				return err
			}
			updated, err := app.Items.GetByID(ctx, it.ID)
			if err != nil {
				return err
			}
			if updated.StoryPoints == nil {
				outf(cmd, "Cleared the estimate of %s\n", it.Ref())
				return nil
			}
			outf(cmd, "%s is now %s sp\n", it.Ref(), updated.StoryPoints)
			return nil
		},
	}
}

func newItemStatusCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status ITEM STATUS",
		Short: "Change an item's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			it, err := resolveItem(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.Items.SetStatus(ctx, it.ID, args[1], app.today()); err != nil {
				return err
			}
			outf(cmd, "%s is now %s\n", it.Ref(), args[1])
			return nil
		},
	}
}
