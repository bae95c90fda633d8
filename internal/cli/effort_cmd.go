package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/sprintplan/internal/cli/formatter"
	"github.com/alexanderramin/sprintplan/internal/domain"
)

// requiredHours parses a positional hours argument.
func requiredHours(raw string) (decimal.Decimal, error) {
	v, err := domain.ParseDecimal("hours", raw)
	if err != nil {
		return decimal.Zero, err
	}
	if v == nil {
		return decimal.Zero, &domain.ValidationError{Message: "hours are required"}
	}
	return *v, nil
}

// sprintOrCurrent resolves ref, or the current sprint when ref is empty.
func sprintOrCurrent(ctx context.Context, app *App, projectID, ref string) (*domain.Scope, error) {
	if ref != "" {
		return app.Scopes.Resolve(ctx, projectID, ref)
	}
	return app.Scopes.CurrentSprint(ctx, projectID, app.today())
}

func newEffortCmd(app *App, project projectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "effort",
		Short: "Plan member capacity per sprint day",
	}
	cmd.AddCommand(newEffortSetCmd(app, project))
	return cmd
}

func newEffortSetCmd(app *App, project projectFunc) *cobra.Command {
	var sprintRef string
	var day dayFlag
	cmd := &cobra.Command{
		Use:   "set MEMBER HOURS",
		Short: "Plan a member's hours for one sprint day; 0 removes the plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := project(ctx)
			if err != nil {
				return err
			}
			sprint, err := sprintOrCurrent(ctx, app, p.ID, sprintRef)
			if err != nil {
				return err
			}
			member, err := app.Members.ResolveMember(ctx, args[0])
			if err != nil {
				return err
			}
			hours, err := requiredHours(args[1])
			if err != nil {
				return err
			}
			e := &domain.EffortRecord{
				ScopeID:        sprint.ID,
				MemberID:       member.ID,
				Date:           day.or(app.today()),
				EstimatedHours: hours,
			}
			if err := app.Efforts.SetEffort(ctx, e); err != nil {
				return err
			}
			outf(cmd, "%s plans %s on %s in %s\n", member.DisplayName, formatter.FormatHours(hours),
				e.Date.Format(domain.DateLayout), sprint.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&sprintRef, "sprint", "", "Sprint name or ID (default: current sprint)")
	cmd.Flags().Var(&day, "date", "Sprint day (default: today)")
	return cmd
}

func newPendingCmd(app *App, project projectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Record the remaining effort of tasks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set TASK HOURS",
		Short: "Record how many hours a task still needs",
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
			mark, err := app.Efforts.SetPending(ctx, it.ID, args[1], app.today())
			if err != nil {
				return err
			}
			outf(cmd, "%s has %s pending as of %s\n", it.Ref(), formatter.FormatHours(mark.RemainingHours),
				mark.Date.Format(domain.DateLayout))
			return nil
		},
	})
	return cmd
}

func newLogCmd(app *App, project projectFunc) *cobra.Command {
	var memberRef, activityRef string
	var day dayFlag
	cmd := &cobra.Command{
		Use:   "log ITEM HOURS",
		Short: "Log time spent on an item",
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
			hours, err := requiredHours(args[1])
			if err != nil {
				return err
			}
			member, err := app.Members.ResolveMember(ctx, memberRef)
			if err != nil {
				return err
			}
			e := &domain.TimeLogEntry{
				MemberID: member.ID,
				ItemID:   it.ID,
				Date:     day.or(app.today()),
				Hours:    hours,
			}
			if activityRef != "" {
				activity, err := app.Members.GetActivityByName(ctx, activityRef)
				if err != nil {
					return fmt.Errorf("activity %q: %w", activityRef, err)
				}
				e.ActivityID = activity.ID
			}
			if err := app.Efforts.LogTime(ctx, e); err != nil {
				return err
			}
			outf(cmd, "Logged %s on %s for %s\n", formatter.FormatHours(hours), it.Ref(), member.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&memberRef, "member", "m", "", "Member name or ID")
	cmd.Flags().StringVarP(&activityRef, "activity", "a", "", "Activity name")
	cmd.Flags().Var(&day, "date", "Day worked (default: today)")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newMemberCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage team members",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a team member",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m := &domain.Member{DisplayName: args[0]}
				if err := app.Members.AddMember(cmd.Context(), m); err != nil {
					return err
				}
				outf(cmd, "Added member %s\n", m.DisplayName)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List team members",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				members, err := app.Members.ListMembers(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, len(members))
				for i, m := range members {
					rows[i] = []string{formatter.TruncID(m.ID), m.DisplayName}
				}
				outln(cmd, formatter.RenderTable([]string{"ID", "NAME"}, rows))
				return nil
			},
		},
	)
	return cmd
}

func newActivityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Manage time-log activities",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add an activity; names listed in activities.reviewing count as review",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := &domain.Activity{Name: args[0]}
				if err := app.Members.AddActivity(cmd.Context(), a); err != nil {
					return err
				}
				outf(cmd, "Added activity %s\n", a.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List activities",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				activities, err := app.Members.ListActivities(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, len(activities))
				for i, a := range activities {
					rows[i] = []string{formatter.TruncID(a.ID), a.Name}
				}
				outln(cmd, formatter.RenderTable([]string{"ID", "NAME"}, rows))
				return nil
			},
		},
	)
	return cmd
}
