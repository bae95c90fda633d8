package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/sprintplan/internal/app"
	"github.com/alexanderramin/sprintplan/internal/cli/formatter"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

func newVelocityCmd(a *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "velocity",
		Short: "Show the story points completed per sprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project(cmd.Context())
			if err != nil {
				return err
			}
			today := a.today()
			resp, err := a.Planning.Velocity(cmd.Context(), app.VelocityRequest{ProjectID: p.ID, Today: &today})
			if err != nil {
				return err
			}
			outln(cmd, formatter.FormatVelocity(resp))
			return nil
		},
	}
}

// velocityFlags selects the velocity a projection is built with.
type velocityFlags struct {
	kind   string
	custom *decimalFlag
}

func bindVelocityFlags(cmd *cobra.Command) *velocityFlags {
	f := &velocityFlags{custom: newDecimalFlag("velocity")}
	cmd.Flags().StringVar(&f.kind, "velocity-type", "", "all, only_scheduled or custom (default: velocity.default_type)")
	cmd.Flags().Var(f.custom, "velocity", "Custom velocity; implies --velocity-type custom")
	return f
}

func (f *velocityFlags) request(projectID string, today *time.Time) app.ReleasePlanRequest {
	kind := f.kind
	if kind == "" && f.custom.value != nil {
		kind = string(domain.VelocityCustom)
	}
	return app.ReleasePlanRequest{
		ProjectID:      projectID,
		VelocityType:   domain.VelocityType(kind),
		CustomVelocity: f.custom.value,
		Today:          today,
	}
}

func newPlanCmd(a *App, project projectFunc) *cobra.Command {
	var vf *velocityFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Project the product backlog onto future sprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project(cmd.Context())
			if err != nil {
				return err
			}
			today := a.today()
			resp, err := a.Planning.ReleasePlan(cmd.Context(), vf.request(p.ID, &today))
			if err != nil {
				return err
			}
			outln(cmd, formatter.FormatReleasePlan(resp))
			return nil
		},
	}
	vf = bindVelocityFlags(cmd)
	return cmd
}

func newBurndownCmd(a *App, project projectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burndown",
		Short: "Chart remaining work",
	}

	var vf *velocityFlags
	product := &cobra.Command{
		Use:   "product",
		Short: "Projected story points left after each future sprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project(cmd.Context())
			if err != nil {
				return err
			}
			today := a.today()
			resp, err := a.Planning.ProductBurndown(cmd.Context(), vf.request(p.ID, &today))
			if err != nil {
				return err
			}
			outln(cmd, formatter.FormatProductBurndown(resp))
			return nil
		},
	}
	vf = bindVelocityFlags(product)

	sprint := &cobra.Command{
		Use:   "sprint [SPRINT]",
		Short: "Daily planned capacity against pending task effort",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			scopeID, err := resolveSprintID(ctx, a, p.ID, firstOr(args, ""))
			if err != nil {
				return err
			}
			today := a.today()
			resp, err := a.Reports.EffortBurndown(ctx, app.SprintRequest{ScopeID: scopeID, ProjectID: p.ID, Today: &today})
			if err != nil {
				return err
			}
			outln(cmd, formatter.FormatEffortBurndown(resp))
			return nil
		},
	}

	cmd.AddCommand(product, sprint)
	return cmd
}

func newStatsCmd(a *App, project projectFunc) *cobra.Command {
	var memberRef string
	cmd := &cobra.Command{
		Use:   "stats [SPRINT]",
		Short: "Planned against logged hours per member",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			scopeID, err := resolveSprintID(ctx, a, p.ID, firstOr(args, ""))
			if err != nil {
				return err
			}
			today := a.today()
			req := app.SprintStatsRequest{
				SprintRequest: app.SprintRequest{ScopeID: scopeID, ProjectID: p.ID, Today: &today},
				AllMembers:    memberRef == "",
			}
			if memberRef != "" {
				m, err := a.Members.ResolveMember(ctx, memberRef)
				if err != nil {
					return err
				}
				req.ViewerID = m.ID
			}
			resp, err := a.Reports.Stats(ctx, req)
			if err != nil {
				return err
			}
			outln(cmd, formatter.FormatEffortStats(resp))
			return nil
		},
	}
	cmd.Flags().StringVarP(&memberRef, "member", "m", "", "Only this member's figures (default: everyone)")
	return cmd
}

func newHoursPerPointCmd(a *App, project projectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "hours-per-point",
		Short: "Logged hours per completed story point, per sprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project(cmd.Context())
			if err != nil {
				return err
			}
			today := a.today()
			resp, err := a.Planning.HoursPerStoryPoint(cmd.Context(), app.VelocityRequest{ProjectID: p.ID, Today: &today})
			if err != nil {
				return err
			}
			outln(cmd, formatter.FormatHoursPerPoint(resp))
			return nil
		},
	}
}
