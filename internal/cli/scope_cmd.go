package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/sprintplan/internal/cli/formatter"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

func newScopeCmd(app *App, project projectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scope",
		Aliases: []string{"sprint"},
		Short:   "Manage sprints and the product backlog",
	}
	cmd.AddCommand(
		newScopeAddCmd(app, project),
		newScopeListCmd(app, project),
		newScopeCloseCmd(app, project),
		newScopeRemoveCmd(app, project),
	)
	return cmd
}

func newScopeAddCmd(app *App, project projectFunc) *cobra.Command {
	var start, end dayFlag
	var goal string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project(cmd.Context())
			if err != nil {
				return err
			}
			s := &domain.Scope{
				ProjectID: p.ID,
				Name:      args[0],
				Goal:      goal,
				StartDate: start.value,
				EndDate:   end.value,
			}
			if err := app.Scopes.Create(cmd.Context(), s); err != nil {
				return err
			}
			outf(cmd, "Created sprint %s (%s → %s)\n", s.Name,
				s.StartDate.Format(domain.DateLayout), s.EndDate.Format(domain.DateLayout))
			return nil
		},
	}
	cmd.Flags().Var(&start, "start", "First day (YYYY-MM-DD)")
	cmd.Flags().Var(&end, "end", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&goal, "goal", "", "Sprint goal")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newScopeListCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the scopes of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			scopes, err := app.Scopes.List(ctx, p.ID)
			if err != nil {
				return err
			}
			kinds := app.Settings.Settings().KindRegistry()
			rows := make([]formatter.ScopeRow, 0, len(scopes))
			for _, s := range scopes {
				items, err := app.Items.ListByScope(ctx, s.ID)
				if err != nil {
					return err
				}
				rows = append(rows, formatter.ScopeRow{Scope: s, Items: len(kinds.BacklogItems(items))})
			}
			outln(cmd, formatter.FormatScopeList(p.Name, rows))
			return nil
		},
	}
}

func newScopeCloseCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "close SCOPE",
		Short: "Close a sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project(cmd.Context())
			if err != nil {
				return err
			}
			s, err := app.Scopes.Resolve(cmd.Context(), p.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.Scopes.Close(cmd.Context(), s.ID); err != nil {
				return err
			}
			outf(cmd, "Closed %s\n", s.Name)
			return nil
		},
	}
}

func newScopeRemoveCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "rm SCOPE",
		Short: "Delete a sprint and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project(cmd.Context())
			if err != nil {
				return err
			}
			s, err := app.Scopes.Resolve(cmd.Context(), p.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.Scopes.Delete(cmd.Context(), s.ID); err != nil {
				return err
			}
			outf(cmd, "Deleted %s\n", s.Name)
			return nil
		},
	}
}
