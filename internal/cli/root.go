package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/sprintplan/internal/config"
	"github.com/alexanderramin/sprintplan/internal/domain"
	"github.com/alexanderramin/sprintplan/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects service.ProjectService
	Scopes   service.ScopeService
	Items    service.ItemService
	Ordering service.OrderingService
	Deps     service.DependencyService
	Efforts  service.EffortService
	Members  service.MemberService
	Planning service.PlanningService
	Reports  service.SprintReportService
	Import   service.ImportService
	Settings config.Source

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
	// IsInteractive reports whether stdin is a terminal. Forms and the
	// board only run when it does.
	IsInteractive func() bool
	// RunForm and RunBoard default to running against the terminal.
	RunForm  func(f *itemForm) error
	RunBoard func(m *boardModel) error
}

func (a *App) today() time.Time {
	if a.Now == nil {
		return domain.Day(time.Now())
	}
	return domain.Day(a.Now())
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// GlobalFlags are the flags every command accepts. main parses --config
// and --log before the App exists, so they live outside the command tree.
type GlobalFlags struct {
	ConfigPath string
	Log        bool
	Project    string
}

// Bind registers the global flags on fs.
func (g *GlobalFlags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&g.ConfigPath, "config", "", "Config file (default ~/.sprintplan/config.yaml)")
	fs.BoolVar(&g.Log, "log", os.Getenv(config.EnvPrefix+"_LOG") == "1", "Log use cases to stderr")
	fs.StringVarP(&g.Project, "project", "p", os.Getenv(config.EnvPrefix+"_PROJECT"), "Project ID, ID prefix or name")
}

// ParseGlobalFlags extracts the global flags from args, ignoring every
// other flag and argument.
func ParseGlobalFlags(args []string) (GlobalFlags, error) {
	var g GlobalFlags
	fs := pflag.NewFlagSet("sprintplan", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.BoolP("help", "h", false, "")
	g.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return g, err
	}
	return g, nil
}

// NewRootCmd creates the top-level "sprintplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var flags GlobalFlags
	root := &cobra.Command{
		Use:           "sprintplan",
		Short:         "Backlog ordering and sprint planning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.Bind(root.PersistentFlags())

	project := func(ctx context.Context) (*domain.Project, error) {
		return resolveProject(ctx, app, flags.Project)
	}

	root.AddCommand(
		newProjectCmd(app),
		newScopeCmd(app, project),
		newItemCmd(app, project),
		newDepCmd(app, project),
		newEffortCmd(app, project),
		newPendingCmd(app, project),
		newLogCmd(app, project),
		newMemberCmd(app),
		newActivityCmd(app),
		newVelocityCmd(app, project),
		newPlanCmd(app, project),
		newBurndownCmd(app, project),
		newStatsCmd(app, project),
		newHoursPerPointCmd(app, project),
		newImportCmd(app),
		newBoardCmd(app, project),
	)
	return root
}

// projectFunc resolves the project named by --project.
type projectFunc func(ctx context.Context) (*domain.Project, error)

func outf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func outln(cmd *cobra.Command, s string) {
	fmt.Fprintln(cmd.OutOrStdout(), s)
}
