package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/sprintplan/internal/cli/formatter"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

func newDepCmd(app *App, project projectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage dependencies between items",
	}
	cmd.AddCommand(
		newDepAddCmd(app, project),
		newDepRemoveCmd(app, project),
		newDepCheckCmd(app, project),
	)
	return cmd
}

// resolvePair resolves the PREDECESSOR SUCCESSOR arguments.
func resolvePair(cmd *cobra.Command, app *App, project projectFunc, args []string) (*domain.BacklogItem, *domain.BacklogItem, error) {
	ctx := cmd.Context()
	p, err := project(ctx)
	if err != nil {
		return nil, nil, err
	}
	pred, err := resolveItem(ctx, app, p.ID, args[0])
	if err != nil {
		return nil, nil, err
	}
	succ, err := resolveItem(ctx, app, p.ID, args[1])
	if err != nil {
		return nil, nil, err
	}
	return pred, succ, nil
}

func newDepAddCmd(app *App, project projectFunc) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "add PREDECESSOR SUCCESSOR",
		Short: "Record that SUCCESSOR depends on PREDECESSOR",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, succ, err := resolvePair(cmd, app, project, args)
			if err != nil {
				return err
			}
			d := &domain.Dependency{PredecessorID: pred.ID, SuccessorID: succ.ID, Kind: domain.DependencyKind(kind)}
			if err := app.Deps.Add(cmd.Context(), d); err != nil {
				return err
			}
			outf(cmd, "%s %s %s\n", pred.Ref(), d.Kind, succ.Ref())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(domain.DependencyPrecedes), "precedes or blocks")
	return cmd
}

func newDepRemoveCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "rm PREDECESSOR SUCCESSOR",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, succ, err := resolvePair(cmd, app, project, args)
			if err != nil {
				return err
			}
			if err := app.Deps.Remove(cmd.Context(), pred.ID, succ.ID); err != nil {
				return err
			}
			outf(cmd, "Removed dependency %s → %s\n", pred.Ref(), succ.Ref())
			return nil
		},
	}
}

func newDepCheckCmd(app *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "check [SCOPE]",
		Short: "Report items placed ahead of items they depend on",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			scope, err := resolveScope(ctx, app, p.ID, firstOr(args, ""))
			if err != nil {
				return err
			}
			report, err := app.Ordering.CheckScope(ctx, scope.ID)
			if err != nil {
				return err
			}
			outln(cmd, formatter.FormatDependencyReport(scope.Name, report))
			return nil
		},
	}
}
