package cli

import (
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create a project from a JSON or YAML backlog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Import.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			outf(cmd, "Imported project %s: %d scopes, %d items, %d dependencies, %d effort days, %d time entries\n",
				result.ProjectName, result.ScopeCount, result.ItemCount, result.DependencyCount,
				result.EffortCount, result.TimeLogCount)
			return nil
		},
	}
}
